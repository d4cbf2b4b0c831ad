package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medlabs/critalert/internal/middleware"
	"github.com/medlabs/critalert/internal/notify"
	"github.com/medlabs/critalert/internal/services"
	"github.com/medlabs/critalert/pkg/errors"
	"github.com/medlabs/critalert/pkg/metrics"
	"github.com/medlabs/critalert/pkg/response"
)

// AlertHandler exposes the alert lifecycle endpoints.
type AlertHandler struct {
	alerts *services.AlertService
	fanout *notify.Fanout
}

// NewAlertHandler constructs an AlertHandler.
func NewAlertHandler(alerts *services.AlertService, fanout *notify.Fanout) *AlertHandler {
	return &AlertHandler{alerts: alerts, fanout: fanout}
}

type createAlertRequest struct {
	FileNumber string `json:"file_number" validate:"required,max=64"`
	TestName   string `json:"test_name" validate:"required,max=128"`
	Value      string `json:"value" validate:"required,max=64"`
}

// POST /api/alerts  (role: sender)
func (h *AlertHandler) Create(c *gin.Context) {
	var req createAlertRequest
	if !bindAndValidate(c, &req) {
		return
	}

	alert, err := h.alerts.Create(c.Request.Context(), services.CreateAlertInput{
		FileNumber: req.FileNumber,
		TestName:   req.TestName,
		Value:      req.Value,
	})
	if err != nil {
		response.Error(c, errors.Wrap(err, "Failed to add alert"))
		return
	}

	metrics.AlertsCreated.Inc()

	// Fan-out runs synchronously on the request path, but its outcome never
	// rolls back the created alert.
	notified := false
	if h.fanout != nil {
		notified = h.fanout.NotifyNewAlert(c.Request.Context(), alert)
	}

	response.Success(c, http.StatusCreated, gin.H{
		"id":       alert.ID,
		"notified": notified,
	})
}

// GET /api/alerts  (role: any authenticated)
func (h *AlertHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)
	showClosed := parseBoolQuery(c, "show_closed")

	alerts, total, err := h.alerts.List(c.Request.Context(), services.ListAlertsOptions{
		Page:       page,
		PerPage:    perPage,
		ShowClosed: showClosed,
	})
	if err != nil {
		response.Error(c, errors.Wrap(err, "Failed to list alerts"))
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, alerts, response.NewMeta(page, perPage, int(total)))
}

// GET /api/alerts/pending  (role: receiver)
func (h *AlertHandler) Pending(c *gin.Context) {
	alerts, err := h.alerts.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, errors.Wrap(err, "Failed to list pending alerts"))
		return
	}

	response.Success(c, http.StatusOK, alerts)
}

// PUT /api/alerts/:id/close  (role: any authenticated)
func (h *AlertHandler) Close(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, errors.NewBadRequest("alert id must be a positive integer"))
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	alert, err := h.alerts.Close(c.Request.Context(), uint(id), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.AlertsClosed.Inc()
	response.Success(c, http.StatusOK, alert)
}

// GET /api/alerts/stats  (role: admin)
func (h *AlertHandler) Stats(c *gin.Context) {
	days := parseIntQuery(c, "days", 30)
	if days <= 0 {
		response.Error(c, errors.NewBadRequest("days must be a positive integer"))
		return
	}

	stats, err := h.alerts.Stats(c.Request.Context(), days)
	if err != nil {
		response.Error(c, errors.Wrap(err, "Failed to compute statistics"))
		return
	}

	response.Success(c, http.StatusOK, stats)
}
