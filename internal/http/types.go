package http

import (
	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Providers int    `json:"providers"`
}

// ProvidersResponse is the response body for GET /api/v1/providers.
type ProvidersResponse struct {
	Providers map[string]provider.Status `json:"providers"`
}

// ProbeResponse is the response body for POST /api/v1/providers/probe.
type ProbeResponse struct {
	Results map[string]bool `json:"results"`
}

// OrchestrateRequest is the request body for POST /api/v1/orchestrate.
type OrchestrateRequest struct {
	Design       task.Design       `json:"design"`
	Requirements task.Requirements `json:"requirements"`
	Options      task.Options      `json:"options"`
}
