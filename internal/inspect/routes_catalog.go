package inspect

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veilgate-project/veilgate/internal/frame"
	"github.com/veilgate-project/veilgate/internal/protocol"
	"github.com/veilgate-project/veilgate/internal/util"
)

// handleCatalog lists every registered message type.
func (s *Server) handleCatalog(c *gin.Context) {
	ids := protocol.TypeIDs()
	types := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		types = append(types, gin.H{
			"type_id":    id,
			"id_hex":     fmt.Sprintf("0x%04x", id),
			"name":       protocol.Name(id),
			"compressed": protocol.Compressed(id),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"protocol_version": protocol.Version,
		"types":            types,
		"total":            len(types),
	})
}

// handleCatalogType describes one message type, including its zero-value
// encoding so the fixed baseline of the layout is visible.
func (s *Server) handleCatalogType(c *gin.Context) {
	idStr := c.Param("id")
	id64, err := strconv.ParseUint(idStr, 0, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type id"})
		return
	}
	id := uint32(id64)

	if !protocol.Known(id) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "type id not in catalog",
			"type_id": id,
		})
		return
	}

	resp := gin.H{
		"type_id":    id,
		"id_hex":     fmt.Sprintf("0x%04x", id),
		"name":       protocol.Name(id),
		"compressed": protocol.Compressed(id),
	}

	if baseline, err := protocol.Encode(protocol.New(id)); err == nil {
		resp["baseline_size"] = len(baseline)
		resp["baseline_hexdump"] = util.HexDump(baseline)
	}

	c.JSON(http.StatusOK, resp)
}

// decodeRequest is the body of POST /api/decode. Data is hex or base64;
// format "frame" (default) expects the 8-byte envelope in front, format
// "payload" takes bare payload bytes plus an explicit type id.
type decodeRequest struct {
	Data   string `json:"data" binding:"required"`
	Format string `json:"format"`
	TypeID uint32 `json:"type_id"`
}

// handleDecode decodes pasted bytes through the production codec.
func (s *Server) handleDecode(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := parseBytes(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		id      uint32
		payload []byte
	)

	switch req.Format {
	case "", "frame":
		hdr, p, err := frame.Read(bytes.NewReader(raw))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   err.Error(),
				"hexdump": util.HexDump(raw),
			})
			return
		}
		id, payload = hdr.TypeID, p
	case "payload":
		id, payload = req.TypeID, raw
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be \"frame\" or \"payload\""})
		return
	}

	resp := gin.H{
		"type_id":    id,
		"id_hex":     fmt.Sprintf("0x%04x", id),
		"name":       protocol.Name(id),
		"compressed": protocol.Compressed(id),
		"size":       len(payload),
		"hexdump":    util.HexDump(payload),
	}

	// Same rule as the gateway: a compressed payload never reaches the
	// codec.
	if protocol.Compressed(id) {
		resp["decoded"] = nil
		c.JSON(http.StatusOK, resp)
		return
	}

	msg, err := protocol.Decode(id, payload)
	if err != nil {
		resp["error"] = err.Error()
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	if _, isRaw := msg.(*protocol.RawMessage); isRaw {
		resp["passthrough"] = true
		c.JSON(http.StatusOK, resp)
		return
	}

	resp["decoded"] = msg
	c.JSON(http.StatusOK, resp)
}

// parseBytes accepts hex (spaces and newlines tolerated) or base64.
func parseBytes(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimPrefix(cleaned, "0x")

	if raw, err := hex.DecodeString(cleaned); err == nil {
		return raw, nil
	}
	if raw, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("data is neither valid hex nor base64")
}
