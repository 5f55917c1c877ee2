package handlers

import (
	"net/http"

	"github.com/Dosada05/prode/middleware"
	"github.com/Dosada05/prode/services"
	"github.com/go-chi/chi/v5"
)

type RankingHandler struct {
	rankingService services.RankingService
	stageService   services.StageService
}

func NewRankingHandler(rs services.RankingService, ss services.StageService) *RankingHandler {
	return &RankingHandler{
		rankingService: rs,
		stageService:   ss,
	}
}

func (h *RankingHandler) Global(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.rankingService.GlobalRanking(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	// второй вызов берет рейтинг из кэша запроса
	winners, err := h.rankingService.Winners(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"ranking": ranking,
		"winners": winners,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) Stage(w http.ResponseWriter, r *http.Request) {
	stage, err := h.stageService.GetBySlug(r.Context(), middleware.ViewerRole(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	ranking, err := h.rankingService.StageRanking(r.Context(), stage.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": stage, "ranking": ranking}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Me: position is null when the user has not placed any bet yet.
func (h *RankingHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, err := middleware.GetUsernameFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	pos, found, err := h.rankingService.Position(r.Context(), username)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	total, err := h.rankingService.UserTotal(r.Context(), username)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"username": username,
		"position": nil,
		"points":   total,
	}
	if found {
		response["position"] = pos
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
