package handler

import (
	"encoding/json"
	"net/http"

	"labreserve/internal/schools/service"
	httputil "labreserve/pkg/http"
	"labreserve/pkg/logger"
	"labreserve/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SchoolHandler struct {
	service service.SchoolService
	log     *logger.Logger
}

func NewSchoolHandler(service service.SchoolService, log *logger.Logger) *SchoolHandler {
	return &SchoolHandler{
		service: service,
		log:     log,
	}
}

func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var school model.School
	if err := json.NewDecoder(r.Body).Decode(&school); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &school); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, school); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *SchoolHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	school, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, school); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SchoolHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	schools, err := h.service.GetAll(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, schools); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.SchoolUpdate
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

func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SchoolHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/schools", h.Create)
	router.GET("/api/v1/schools", h.GetAll)
	router.GET("/api/v1/schools/id/:id", h.GetByID)
	router.PATCH("/api/v1/schools/id/:id", h.Update)
	router.DELETE("/api/v1/schools/id/:id", h.Delete)
}
