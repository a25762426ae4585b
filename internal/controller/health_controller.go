package controller

import (
	"LykkeLoopAPI/internal/helper"
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB and the Redis client wrapper.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthController struct {
	checks map[string]Pinger
}

func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{
		checks: checks,
	}
}

// Health godoc
// @Summary      Health Check
// @Tags         health
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      503  {object}  helper.ResponseError
// @Router       /healthz [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, check := range c.checks {
		if check == nil {
			continue
		}
		if err := check.PingContext(ctx); err != nil {
			slog.Error("Health check failed", "dependency", name, "error", err)
			helper.WriteError(w, helper.NewServiceUnavailableError(name+" unavailable"))
			return
		}
	}

	helper.WriteSuccess(w, "ok")
}
