package routes

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/libra/pkg/lapi/services/authconfig"
)

const healthTimeout = 2 * time.Second

type HealthOutput struct {
	Body struct {
		Status string            `json:"status" example:"ok"`
		Checks map[string]string `json:"checks,omitempty" doc:"Result per dependency"`
	}
}

// RegisterHealth probes the user table and the revocation store. A nil auth
// (OpenAPI generation) reports ok without checks.
func RegisterHealth(api huma.API, auth *authconfig.AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Answers 503 when the database or the revocation store is unreachable.",
		Tags:        []string{TagHealth.String()},
	}, func(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
		out := &HealthOutput{}
		out.Body.Status = "ok"
		if auth == nil {
			return out, nil
		}

		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()

		results := auth.Ready(ctx)
		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)

		out.Body.Checks = make(map[string]string, len(results))
		var failed []error
		for _, name := range names {
			if err := results[name]; err != nil {
				out.Body.Checks[name] = err.Error()
				failed = append(failed, fmt.Errorf("%s: %w", name, err))
				continue
			}
			out.Body.Checks[name] = "ok"
		}
		if len(failed) > 0 {
			return nil, huma.Error503ServiceUnavailable("degraded", failed...)
		}
		return out, nil
	})
}
