package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/isabela-labs/tortoisefind/pkg/api/services"
)

// HealthOutput is the response for the health check
type HealthOutput struct {
	Body struct {
		Status string `json:"status" doc:"Service status"`
	}
}

// RegisterAPI registers all routes
func RegisterAPI(api huma.API, svcs *services.Services) {
	RegisterHealth(api)
	RegisterRuns(api, svcs)
}

// RegisterHealth registers the health check route
func RegisterHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health check",
		Tags:        []string{"System"},
	}, func(ctx context.Context, input *struct{}) (*HealthOutput, error) {
		resp := &HealthOutput{}
		resp.Body.Status = "ok"
		return resp, nil
	})
}
