package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/alerting"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
)

// AlertHandler exposes alert listing and acknowledgement.
type AlertHandler struct {
	svc alerting.Service
}

// NewAlertHandler creates an AlertHandler.
func NewAlertHandler(svc alerting.Service) *AlertHandler {
	return &AlertHandler{svc: svc}
}

// ActiveAlerts is the body of GET /alerts/active.
type ActiveAlerts struct {
	Alerts      []*alert.Alert `json:"active_alerts"`
	TotalActive int            `json:"total_active"`
}

// AlertUpdate is the body returned by acknowledge and resolve.
type AlertUpdate struct {
	Status  string       `json:"status"`
	AlertID string       `json:"alert_id"`
	Alert   *alert.Alert `json:"alert"`
}

// Active handles GET /alerts/active?field_id=, newest first.
func (h *AlertHandler) Active(c *gin.Context) {
	fieldID, err := requiredQuery(c, "field_id")
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.svc.ListActive(c.Request.Context(), fieldID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActiveAlerts{Alerts: list, TotalActive: len(list)})
}

// Acknowledge handles POST /alerts/acknowledge/:alert_id.
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	a, err := h.svc.Acknowledge(c.Request.Context(), c.Param("alert_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AlertUpdate{Status: "success", AlertID: a.ID, Alert: a})
}

// Resolve handles POST /alerts/resolve/:alert_id.
func (h *AlertHandler) Resolve(c *gin.Context) {
	a, err := h.svc.Resolve(c.Request.Context(), c.Param("alert_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AlertUpdate{Status: "success", AlertID: a.ID, Alert: a})
}

// Stats handles GET /alerts/stats?field_id=.
func (h *AlertHandler) Stats(c *gin.Context) {
	fieldID, err := requiredQuery(c, "field_id")
	if err != nil {
		respondError(c, err)
		return
	}
	st, err := h.svc.Stats(c.Request.Context(), fieldID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

//Personal.AI order the ending
