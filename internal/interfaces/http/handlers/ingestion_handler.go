package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/ingestion"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// IngestionHandler accepts flights and reports the latest ingestion.
type IngestionHandler struct {
	svc     ingestion.Service
	reports Reports
}

// NewIngestionHandler creates an IngestionHandler.
func NewIngestionHandler(svc ingestion.Service, reports Reports) *IngestionHandler {
	return &IngestionHandler{svc: svc, reports: reports}
}

// IngestDaily handles POST /ingestion/daily. A committed flight answers 201.
func (h *IngestionHandler) IngestDaily(c *gin.Context) {
	var req ingestion.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	req.Source = "http"

	res, err := h.svc.Ingest(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Status handles GET /ingestion/status/:field_id.
func (h *IngestionHandler) Status(c *gin.Context) {
	st, err := h.reports.IngestionStatus(c.Request.Context(), c.Param("field_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

//Personal.AI order the ending
