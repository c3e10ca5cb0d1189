package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"labreserve/internal/roster/service"
	"labreserve/pkg/config"
	apperrors "labreserve/pkg/errors"
	httputil "labreserve/pkg/http"
	"labreserve/pkg/logger"
	"labreserve/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ImportRequest carries the parsed roster rules. The semester override pair
// is optional; when absent the configured semester window applies.
type ImportRequest struct {
	Rules         []model.RecurrenceRule `json:"rules"`
	SemesterStart string                 `json:"semester_start,omitempty"`
	SemesterEnd   string                 `json:"semester_end,omitempty"`
}

type RosterHandler struct {
	service service.RosterService
	cfg     *config.Config
	log     *logger.Logger
}

func NewRosterHandler(service service.RosterService, cfg *config.Config) *RosterHandler {
	return &RosterHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

// Import expands a batch of weekly recurrence rules into dated reservations.
// The response always carries the full summary, including per-rule skips.
func (h *RosterHandler) Import(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Import", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if len(req.Rules) == 0 {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "At least one rule is required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Import", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	summary, err := h.expand(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Import", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Import", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RosterHandler) expand(ctx context.Context, req *ImportRequest) (*model.ImportSummary, error) {
	if req.SemesterStart == "" && req.SemesterEnd == "" {
		return h.service.Expand(ctx, req.Rules)
	}

	start, err := time.ParseInLocation("2006-01-02", req.SemesterStart, h.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid semester_start, must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation("2006-01-02", req.SemesterEnd, h.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid semester_end, must be YYYY-MM-DD")
	}

	return h.service.ExpandWindow(ctx, req.Rules, start, end)
}

func (h *RosterHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/roster/import", h.Import)
}
