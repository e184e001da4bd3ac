package inspect

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/veilgate-project/veilgate/internal/config"
	"github.com/veilgate-project/veilgate/internal/events"
)

// handleGetConfig returns the full current configuration.
func (s *Server) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"gateway":     s.cfg.GetGateway(),
		"application": s.cfg.GetApplication(),
	})
}

// handlePatchGateway updates individual gateway fields by JSON key.
func (s *Server) handlePatchGateway(c *gin.Context) {
	s.patchConfig(c, "gateway", s.cfg.UpdateGatewayField)
}

// handlePatchApplication updates individual application fields by JSON key.
func (s *Server) handlePatchApplication(c *gin.Context) {
	s.patchConfig(c, "application", s.cfg.UpdateAppField)
}

// patchConfig applies a map of field updates, validates the result, saves,
// and announces the change. A validation failure reports the offending
// fields but the values stay applied in memory until corrected; the save
// is skipped.
func (s *Server) patchConfig(c *gin.Context, section string, update func(key string, value interface{}) error) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	for key, value := range fields {
		if err := update(key, value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"field": key,
			})
			return
		}
	}

	if result := config.Validate(s.cfg); !result.IsValid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "configuration invalid after update",
			"errors": result.Errors,
		})
		return
	}

	if err := s.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config"})
		return
	}

	for key := range fields {
		s.bus.Emit(c.Request.Context(), events.Event{
			Type:   events.EventConfigChanged,
			Source: "inspect",
			Payload: events.ConfigChangedPayload{
				Section: section,
				Key:     key,
				Value:   fields[key],
			},
		})
	}

	log.Info().
		Str("section", section).
		Int("fields", len(fields)).
		Msg("configuration updated")

	c.JSON(http.StatusOK, gin.H{
		"status":      "updated",
		"gateway":     s.cfg.GetGateway(),
		"application": s.cfg.GetApplication(),
	})
}
