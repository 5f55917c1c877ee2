package middleware

import (
	"net/http"

	"github.com/Dosada05/prode/services"
)

// RankingMemo даёт каждому запросу свой кэш рейтинга.
func RankingMemo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRankingMemo(r.Context(), services.NewRankingMemo())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
