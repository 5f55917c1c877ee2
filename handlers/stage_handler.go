package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/prode/middleware"
	"github.com/Dosada05/prode/services"
	"github.com/go-chi/chi/v5"
)

type StageHandler struct {
	stageService services.StageService
}

func NewStageHandler(ss services.StageService) *StageHandler {
	return &StageHandler{stageService: ss}
}

// List работает и для анонимных запросов (пустой список).
func (h *StageHandler) List(w http.ResponseWriter, r *http.Request) {
	stages, err := h.stageService.ListVisible(r.Context(), middleware.ViewerRole(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stages": stages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, role, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.CreateStageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stage, err := h.stageService.Create(r.Context(), role, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/stages/"+stage.Slug)
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"stage": stage}, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) Get(w http.ResponseWriter, r *http.Request) {
	stage, err := h.stageService.GetBySlug(r.Context(), middleware.ViewerRole(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"stage":       stage,
		"expired":     stage.Expired(),
		"next_action": stage.NextActionAt(time.Now()),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) NextAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.stageService.NextAction(r.Context(), middleware.ViewerRole(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"next_action": action}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, role, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.UpdateStageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stage, err := h.stageService.Update(r.Context(), role, chi.URLParam(r, "slug"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, role, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.stageService.Delete(r.Context(), role, chi.URLParam(r, "slug")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
