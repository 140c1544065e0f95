package server

import (
	"github.com/go-playground/validator/v10"
)

// ReconstructRequest is the body of POST /v1/reconstruct and /v1/plot.
type ReconstructRequest struct {
	// Derivative is f' (order 1) or f'' (order 2) in x.
	Derivative string `json:"derivative" binding:"required,max=4096"`
	Order      int    `json:"order" binding:"required,oneof=1 2"`
	// Conditions holds one f(a)=b or f'(a)=b per line.
	Conditions string `json:"conditions" binding:"max=65536"`
	// Zeros is a comma-separated list of x where f' vanishes.
	Zeros string `json:"zeros" binding:"max=65536"`

	XMin   *float64 `json:"x_min"`
	XMax   *float64 `json:"x_max"`
	Points int      `json:"points" binding:"omitempty,min=2,max=10000"`
	// Sample adds the sampled curves to the JSON response.
	Sample bool `json:"sample"`
}

// validateInterval rejects x_max <= x_min when both are given.
func validateInterval(sl validator.StructLevel) {
	req := sl.Current().Interface().(ReconstructRequest)
	if req.XMin != nil && req.XMax != nil && !(*req.XMax > *req.XMin) {
		sl.ReportError(req.XMax, "XMax", "x_max", "gtfield", "XMin")
	}
}

// ErrorResponse is returned for every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Line      int    `json:"line,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
