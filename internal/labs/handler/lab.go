package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"labreserve/internal/labs/service"
	"labreserve/pkg/config"
	apperrors "labreserve/pkg/errors"
	httputil "labreserve/pkg/http"
	"labreserve/pkg/logger"
	"labreserve/pkg/model"
	"labreserve/pkg/timeutil"

	"github.com/julienschmidt/httprouter"
)

type LabHandler struct {
	service service.LabService
	cfg     *config.Config
	log     *logger.Logger
}

func NewLabHandler(service service.LabService, cfg *config.Config) *LabHandler {
	return &LabHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *LabHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var lab model.Lab
	if err := json.NewDecoder(r.Body).Decode(&lab); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &lab); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, lab); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *LabHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lab, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lab); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LabHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	labs, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, labs, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *LabHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.LabUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LabHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

// Status answers "what is happening in this lab right now". An explicit
// as_of parameter lets operators inspect any instant.
func (h *LabHandler) Status(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	asOf, err := httputil.ExtractTime(r, "as_of", time.Now())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Status", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	snapshot, err := h.service.Status(r.Context(), ps.ByName("id"), asOf)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Status", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, snapshot); err != nil {
		h.log.Error("failed to write success response", "handler", "Status", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LabHandler) Timeline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.ExtractDate(r, "date", h.cfg.Location)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Timeline", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	timeline, err := h.service.Timeline(r.Context(), ps.ByName("id"), date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Timeline", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, timeline); err != nil {
		h.log.Error("failed to write success response", "handler", "Timeline", "operation", "WriteSuccess", "error", err)
	}
}

// FindAvailable searches for labs free over date + start + duration_hours,
// optionally filtered by capacity and installed software.
func (h *LabHandler) FindAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, err := h.parseAvailabilityRequest(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "FindAvailable", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	labs, err := h.service.FindAvailable(r.Context(), *req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "FindAvailable", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, labs); err != nil {
		h.log.Error("failed to write success response", "handler", "FindAvailable", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LabHandler) parseAvailabilityRequest(r *http.Request) (*service.AvailabilityRequest, error) {
	query := r.URL.Query()

	date, err := httputil.ExtractDate(r, "date", h.cfg.Location)
	if err != nil {
		return nil, err
	}

	startStr := query.Get("start")
	if startStr == "" {
		return nil, apperrors.InvalidInput("start parameter is required")
	}
	startOfDay, err := timeutil.ParseTimeOfDay(startStr)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid start parameter, must be HH:MM")
	}

	durationStr := query.Get("duration_hours")
	if durationStr == "" {
		return nil, apperrors.InvalidInput("duration_hours parameter is required")
	}
	durationHours, err := strconv.ParseFloat(durationStr, 64)
	if err != nil || durationHours <= 0 {
		return nil, apperrors.InvalidInput("invalid duration_hours parameter")
	}

	minCapacity := 0
	if s := query.Get("min_capacity"); s != "" {
		minCapacity, err = strconv.Atoi(s)
		if err != nil || minCapacity < 0 {
			return nil, apperrors.InvalidInput("invalid min_capacity parameter")
		}
	}

	start := startOfDay.At(date, h.cfg.Location)
	end := start.Add(time.Duration(durationHours * float64(time.Hour)))

	return &service.AvailabilityRequest{
		Start:       start,
		End:         end,
		MinCapacity: minCapacity,
		Software:    query["software"],
	}, nil
}

func (h *LabHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/labs", h.Create)
	router.GET("/api/v1/labs", h.GetAll)
	router.GET("/api/v1/labs/available", h.FindAvailable)
	router.GET("/api/v1/labs/id/:id", h.GetByID)
	router.PATCH("/api/v1/labs/id/:id", h.Update)
	router.DELETE("/api/v1/labs/id/:id", h.Delete)
	router.GET("/api/v1/labs/id/:id/status", h.Status)
	router.GET("/api/v1/labs/id/:id/timeline", h.Timeline)
}
