package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/prode/middleware"
	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRankingService struct {
	services.RankingService
	ranking models.Ranking
}

func (f *fakeRankingService) GlobalRanking(context.Context) (models.Ranking, error) {
	return f.ranking, nil
}

func (f *fakeRankingService) Winners(context.Context) ([]string, error) {
	if len(f.ranking) == 0 {
		return []string{}, nil
	}
	return []string{f.ranking[0].Username}, nil
}

func (f *fakeRankingService) Position(_ context.Context, username string) (int, bool, error) {
	for i, e := range f.ranking {
		if e.Username == username {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeRankingService) UserTotal(_ context.Context, username string) (int, error) {
	for _, e := range f.ranking {
		if e.Username == username {
			return e.Points, nil
		}
	}
	return 0, nil
}

func withUser(r *http.Request, username string, role models.UserRole) *http.Request {
	claims := jwt.MapClaims{"user_id": float64(1), "role": string(role), "username": username}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrStageNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", services.ErrMatchNotFound), http.StatusNotFound},
		{services.ErrStageSlugConflict, http.StatusConflict},
		{fmt.Errorf("match 3: %w", models.ErrResultUndefined), http.StatusConflict},
		{services.ErrBetAlreadyPlaced, http.StatusUnprocessableEntity},
		{services.ErrInvalidOutcome, http.StatusBadRequest},
		{fmt.Errorf("%w: match 9", services.ErrMatchNotInStage), http.StatusBadRequest},
		{services.ErrStageClosed, http.StatusForbidden},
		{services.ErrMatchNotOver, http.StatusForbidden},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrStorageNotConfigured, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, decodeBody(t, rec), "error")
		})
	}
}

func TestRankingHandler_Me(t *testing.T) {
	h := NewRankingHandler(&fakeRankingService{ranking: models.Ranking{
		{Username: "ana", Points: 7},
		{Username: "beto", Points: 3},
	}}, nil)

	rec := httptest.NewRecorder()
	h.Me(rec, withUser(httptest.NewRequest(http.MethodGet, "/ranking/me", nil), "beto", models.RolePlayer))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["position"])
	assert.Equal(t, float64(3), body["points"])

	rec = httptest.NewRecorder()
	h.Me(rec, withUser(httptest.NewRequest(http.MethodGet, "/ranking/me", nil), "nuevo", models.RolePlayer))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Contains(t, body, "position")
	assert.Nil(t, body["position"])
	assert.Equal(t, float64(0), body["points"])

	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/ranking/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRankingHandler_Global(t *testing.T) {
	h := NewRankingHandler(&fakeRankingService{ranking: models.Ranking{{Username: "ana", Points: 7}}}, nil)

	rec := httptest.NewRecorder()
	h.Global(rec, httptest.NewRequest(http.MethodGet, "/ranking", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ranking models.Ranking `json:"ranking"`
		Winners []string       `json:"winners"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"ana"}, body.Winners)
	assert.Len(t, body.Ranking, 1)
}

type fakeStageService struct {
	services.StageService
	role models.UserRole
}

func (f *fakeStageService) ListVisible(_ context.Context, role models.UserRole) ([]models.Stage, error) {
	f.role = role
	if role == "" {
		return []models.Stage{}, nil
	}
	return []models.Stage{{ID: 1, Slug: "fecha-1", Public: true}}, nil
}

func TestStageHandler_List(t *testing.T) {
	ss := &fakeStageService{}
	r := chi.NewRouter()
	r.With(middleware.OptionalAuthenticate("secret")).Get("/stages", NewStageHandler(ss).List)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ss.role)
	assert.Empty(t, decodeBody(t, rec)["stages"])
}

func TestGetIDFromURL(t *testing.T) {
	tests := []struct {
		path    string
		want    int
		wantErr bool
	}{
		{"/matches/12", 12, false},
		{"/matches/abc", 0, true},
		{"/matches/-3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/matches/{matchID}", func(w http.ResponseWriter, req *http.Request) {
				id, err := getIDFromURL(req, "matchID")
				if tt.wantErr {
					assert.Error(t, err)
				} else {
					assert.NoError(t, err)
					assert.Equal(t, tt.want, id)
				}
			})
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
		})
	}
}
