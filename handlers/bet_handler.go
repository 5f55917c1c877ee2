package handlers

import (
	"net/http"

	"github.com/Dosada05/prode/middleware"
	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/scoring"
	"github.com/Dosada05/prode/services"
	"github.com/go-chi/chi/v5"
)

type BetHandler struct {
	betService services.BetService
}

func NewBetHandler(bs services.BetService) *BetHandler {
	return &BetHandler{betService: bs}
}

type submitBetsRequest struct {
	Bets []services.BetInput `json:"bets"`
}

type betView struct {
	models.Bet
	WinnerLabel string `json:"winner_label"`
}

func (h *BetHandler) Form(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(w, r)
	if !ok {
		return
	}
	form, err := h.betService.BetForm(r.Context(), userID, role, chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"form": form}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BetHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input submitBetsRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bets, err := h.betService.SubmitBets(r.Context(), userID, role, chi.URLParam(r, "slug"), input.Bets)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bets": bets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListStage отдает прогнозы всех пользователей после дедлайна этапа.
func (h *BetHandler) ListStage(w http.ResponseWriter, r *http.Request) {
	bets, err := h.betService.ListStageBets(r.Context(), middleware.ViewerRole(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	views := make([]betView, 0, len(bets))
	for _, b := range bets {
		v := betView{Bet: b}
		if b.Match != nil {
			v.WinnerLabel = scoring.WinnerDisplay(b.Winner, b.Match.HomeName, b.Match.AwayName)
		}
		views = append(views, v)
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bets": views}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
