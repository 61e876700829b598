package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// FieldConfigs reads and replaces field configuration.
type FieldConfigs interface {
	Get(ctx context.Context, fieldID string) (*field.Config, error)
	Save(ctx context.Context, cfg *field.Config) (*field.Config, error)
}

// FieldHandler exposes field configuration.
type FieldHandler struct {
	svc FieldConfigs
}

// NewFieldHandler creates a FieldHandler.
func NewFieldHandler(svc FieldConfigs) *FieldHandler {
	return &FieldHandler{svc: svc}
}

// GetConfig handles GET /fields/:field_id/config.
func (h *FieldHandler) GetConfig(c *gin.Context) {
	cfg, err := h.svc.Get(c.Request.Context(), c.Param("field_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PutConfig handles PUT /fields/:field_id/config. The path identifies the
// field; a body naming a different field is rejected.
func (h *FieldHandler) PutConfig(c *gin.Context) {
	var cfg field.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	id := c.Param("field_id")
	if cfg.FieldID != "" && cfg.FieldID != id {
		respondError(c, errors.NewValidation("body field_id %q does not match path %q", cfg.FieldID, id))
		return
	}
	cfg.FieldID = id

	saved, err := h.svc.Save(c.Request.Context(), &cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

//Personal.AI order the ending
