package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdftoolpro/tracking-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry a tool usage without counting it twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// TrackingHandler handles visit and tool usage tracking.
type TrackingHandler struct {
	service ports.TrackingService
}

func NewTrackingHandler(service ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// RecordVisit handles POST /api/visit.
//
// @Summary      Record a page visit
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        body  body      visitRequest  true  "Visited page"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/visit [post]
func (h *TrackingHandler) RecordVisit(c echo.Context) error {
	var req visitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.service.RecordVisit(c.Request().Context(), ports.VisitInput{
		Page:      req.Page,
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: "Visit recorded successfully"})
}

// RecordToolUsage handles POST /api/tool-usage. A bearer token is optional;
// an invalid one only drops the caller's identity.
//
// @Summary      Record a tool usage
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string            false  "Retry key; a repeated key is counted once"
// @Param        body             body      toolUsageRequest  true   "Used tool"
// @Success      200              {object}  toolUsageResponse
// @Failure      400              {object}  ErrorResponse
// @Failure      500              {object}  ErrorResponse
// @Router       /api/tool-usage [post]
func (h *TrackingHandler) RecordToolUsage(c echo.Context) error {
	var req toolUsageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.RecordToolUsage(c.Request().Context(), ports.ToolUsageInput{
		ToolName:       req.ToolName,
		UserID:         ctxUserID(c),
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toolUsageResponse{
		Message:   "Tool usage recorded",
		ToolUsage: toolUsageRecord{ToolName: res.ToolName, Count: res.Count},
	})
}

// Stats handles GET /api/tool-usage/stats.
//
// @Summary      Tool usage statistics
// @Description  Every tool counter, highest count first.
// @Tags         tracking
// @Produce      json
// @Success      200  {array}   toolUsageStatResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/tool-usage/stats [get]
func (h *TrackingHandler) Stats(c echo.Context) error {
	stats, err := h.service.UsageStats(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]toolUsageStatResponse, len(stats))
	for i, s := range stats {
		out[i] = toolUsageStatResponse{ToolName: s.ToolName, Count: s.Count}
	}
	return c.JSON(http.StatusOK, out)
}
