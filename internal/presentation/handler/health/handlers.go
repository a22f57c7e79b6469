package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/hilthontt/todoroom/internal/infrastructure/json"
)

type Handler struct {
	checks  map[string]domain.Pinger
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler takes the named dependencies /ready must reach.
func NewHandler(checks map[string]domain.Pinger, logger *zap.Logger) *Handler {
	return &Handler{checks: checks, timeout: 2 * time.Second, logger: logger}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) GetReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := readyResponse{Status: "ok", Timestamp: time.Now().UTC(), Checks: make([]checkResult, 0, len(names))}
	status := http.StatusOK
	for _, name := range names {
		result := checkResult{Name: name, Status: "ok"}
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			result.Status = "unavailable"
			result.Error = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		resp.Checks = append(resp.Checks, result)
	}

	json.Write(w, status, resp)
}
