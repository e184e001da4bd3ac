package inspect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veilgate-project/veilgate/internal/protocol"
	"github.com/veilgate-project/veilgate/internal/util"
)

// handlePing is the liveness check.
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleStatus reports gateway health: traffic counters, host usage and
// capture store size.
func (s *Server) handleStatus(c *gin.Context) {
	resp := gin.H{
		"uptime_sec":       int64(time.Since(s.started).Seconds()),
		"protocol_version": protocol.Version,
		"active_sessions":  s.registry.Count(),
		"stats":            s.stats.Snapshot(),
	}

	if usage, err := util.GetCPUUsage(); err == nil {
		resp["cpu_percent"] = usage
	}
	if mem, err := util.GetMemoryUsage(); err == nil {
		resp["memory"] = mem
	}

	if s.store != nil {
		sessions, frames, err := s.store.Counts()
		if err == nil {
			resp["capture"] = gin.H{
				"sessions": sessions,
				"frames":   frames,
			}
		}
		if du, err := util.GetDiskUsage(s.cfg.GetApplication().Capture.Directory); err == nil {
			resp["disk"] = du
		}
	}

	c.JSON(http.StatusOK, resp)
}

// handleSessions lists the live sessions in the registry.
func (s *Server) handleSessions(c *gin.Context) {
	infos := s.registry.Snapshots()
	c.JSON(http.StatusOK, gin.H{
		"sessions": infos,
		"total":    len(infos),
	})
}

// handleLogs returns recent log entries.
func (s *Server) handleLogs(c *gin.Context) {
	countStr := c.DefaultQuery("count", "100")
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 1 {
		count = 100
	}
	if count > 1000 {
		count = 1000
	}

	logDir := s.cfg.GetApplication().Logging.Directory
	entries, err := readRecentLogEntries(logDir, count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// logEntry is a parsed log entry for the API response.
type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// readRecentLogEntries parses the tail of the current log file. The file
// stream is JSON lines, one zerolog event each.
func readRecentLogEntries(logDir string, count int) ([]logEntry, error) {
	latestFile := util.CurrentLogFile(logDir)

	data, err := os.ReadFile(latestFile)
	if err != nil {
		if os.IsNotExist(err) {
			return []logEntry{}, nil
		}
		return nil, err
	}

	lines := strings.Split(string(data), "\n")

	start := len(lines) - count
	if start < 0 {
		start = 0
	}

	// Zerolog internal fields excluded from "fields"
	knownKeys := map[string]bool{
		"level": true, "time": true, "message": true,
		"caller": true, "app": true,
	}

	result := make([]logEntry, 0, count)
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			// Not valid JSON, include as a plain message
			result = append(result, logEntry{Message: line})
			continue
		}

		entry := logEntry{
			Level:   stringFromMap(raw, "level"),
			Message: stringFromMap(raw, "message"),
		}

		if t, ok := raw["time"]; ok {
			entry.Timestamp = fmt.Sprintf("%v", t)
		}

		extra := make(map[string]interface{})
		for k, v := range raw {
			if !knownKeys[k] {
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			entry.Fields = extra
		}

		result = append(result, entry)
	}

	return result, nil
}

// stringFromMap extracts a string value from a map, returning "" if missing.
func stringFromMap(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}
