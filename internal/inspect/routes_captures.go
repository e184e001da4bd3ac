package inspect

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veilgate-project/veilgate/internal/protocol"
	"github.com/veilgate-project/veilgate/internal/util"
)

// queryLimit reads ?limit= with a default and a hard cap.
func queryLimit(c *gin.Context, def, max int) int {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(def))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// requireStore answers 503 when capture is disabled.
func (s *Server) requireStore(c *gin.Context) bool {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "capture store disabled"})
		return false
	}
	return true
}

// handleCaptures lists recently captured frames, newest first. Payloads
// are omitted from listings; fetch one frame by id for the bytes.
func (s *Server) handleCaptures(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	limit := queryLimit(c, 50, 500)

	var err error
	var frames interface{}
	if sessionID := c.Query("session"); sessionID != "" {
		frames, err = s.store.SessionFrames(sessionID, limit)
	} else {
		frames, err = s.store.RecentFrames(limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"frames": frames})
}

// handleCaptureByID returns one captured frame with its payload, a hex
// dump, and a fresh decode through the codec.
func (s *Server) handleCaptureByID(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	f, err := s.store.FrameByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "capture not found"})
		return
	}

	resp := gin.H{
		"frame":   f,
		"hexdump": util.HexDump(f.Payload),
	}

	// Replay the stored bytes through the codec; for rejected frames this
	// reproduces the original decode error.
	if !f.Compressed && len(f.Payload) > 0 {
		if msg, err := protocol.Decode(f.TypeID, f.Payload); err != nil {
			resp["decode_error"] = err.Error()
		} else if _, isRaw := msg.(*protocol.RawMessage); !isRaw {
			resp["decoded"] = msg
		}
	}

	c.JSON(http.StatusOK, resp)
}

// handleCaptureSessions lists recorded sessions, newest first.
func (s *Server) handleCaptureSessions(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	sessions, err := s.store.Sessions(queryLimit(c, 50, 500))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// handleTypeCounts tallies captured frames per message type.
func (s *Server) handleTypeCounts(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	counts, err := s.store.TypeCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"types": counts})
}
