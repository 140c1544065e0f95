package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/njchilds90/antideriv"
	"github.com/njchilds90/antideriv/internal/plotting"
)

// Handlers holds the HTTP handlers.
type Handlers struct {
	s *Server
}

// NewHandlers creates handlers bound to s.
func NewHandlers(s *Server) *Handlers { return &Handlers{s: s} }

// HandleReconstruct handles POST /v1/reconstruct.
//
// Response:
//
//	200 OK: antideriv.ResultView
//	400 Bad Request: invalid body or interval
//	422 Unprocessable Entity: parse, condition or integration failure
func (h *Handlers) HandleReconstruct(c *gin.Context) {
	req, res, ok := h.reconstruct(c)
	if !ok {
		return
	}
	view := res.View()
	if req.Sample {
		lo, hi, n := h.interval(req)
		curves, warnings, err := res.Sample(lo, hi, n)
		if err != nil {
			h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
			return
		}
		view.Curves = &curves
		view.Warnings = append(view.Warnings, warnings...)
	}
	c.JSON(http.StatusOK, view)
}

// HandlePlot handles POST /v1/plot and answers with a PNG.
func (h *Handlers) HandlePlot(c *gin.Context) {
	req, res, ok := h.reconstruct(c)
	if !ok {
		return
	}
	lo, hi, n := h.interval(req)
	fig, warnings, err := plotting.NewFigure(res, lo, hi, n)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	var buf bytes.Buffer
	opt := plotting.Options{
		Width:  vg.Length(h.s.cfg.Plot.WidthIn) * vg.Inch,
		Height: vg.Length(h.s.cfg.Plot.HeightIn) * vg.Inch,
	}
	if err := plotting.Render(&buf, fig, opt); err != nil {
		h.fail(c, http.StatusInternalServerError, "PLOT_FAILED", err)
		return
	}
	c.Header("X-Antideriv-Warnings", strconv.Itoa(len(res.Warnings)+len(warnings)))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// HandleTool handles POST /tool.
func (h *Handlers) HandleTool(c *gin.Context) {
	var req antideriv.ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	c.JSON(http.StatusOK, h.s.engine.HandleToolCall(c.Request.Context(), req))
}

// HandleSchema handles GET /schema.
func (h *Handlers) HandleSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(antideriv.ToolSpec()))
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) reconstruct(c *gin.Context) (ReconstructRequest, *antideriv.Result, bool) {
	var req ReconstructRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return req, nil, false
	}
	res, err := h.s.engine.Reconstruct(c.Request.Context(), antideriv.Request{
		Derivative: req.Derivative,
		Order:      antideriv.Order(req.Order),
		Conditions: req.Conditions,
		Zeros:      req.Zeros,
	})
	if err != nil {
		status, code := classify(err)
		h.fail(c, status, code, err)
		return req, nil, false
	}
	return req, res, true
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return 499, "CANCELED"
	case errors.Is(err, antideriv.ErrParse):
		return http.StatusUnprocessableEntity, "PARSE_ERROR"
	case errors.Is(err, antideriv.ErrMalformedCondition):
		return http.StatusUnprocessableEntity, "MALFORMED_CONDITION"
	case errors.Is(err, antideriv.ErrUnintegrable):
		return http.StatusUnprocessableEntity, "UNINTEGRABLE"
	}
	return http.StatusInternalServerError, "RECONSTRUCT_FAILED"
}

func (h *Handlers) fail(c *gin.Context, status int, code string, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: code, RequestID: getRequestID(c)}
	var se *antideriv.StageError
	if errors.As(err, &se) {
		resp.Stage = se.Stage
		resp.Line = se.Line
	}
	if status >= http.StatusInternalServerError {
		h.s.log.Error("request error", zap.String("request_id", resp.RequestID), zap.String("code", code), zap.Error(err))
	} else {
		h.s.log.Warn("request rejected", zap.String("request_id", resp.RequestID), zap.String("code", code), zap.Error(err))
	}
	c.JSON(status, resp)
}

func (h *Handlers) interval(req ReconstructRequest) (lo, hi float64, n int) {
	lo, hi, n = h.s.cfg.Plot.XMin, h.s.cfg.Plot.XMax, h.s.cfg.Plot.Points
	if req.XMin != nil {
		lo = *req.XMin
	}
	if req.XMax != nil {
		hi = *req.XMax
	}
	if req.Points > 0 {
		n = req.Points
	}
	return lo, hi, n
}
