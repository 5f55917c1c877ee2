package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/prode/live"
	"github.com/Dosada05/prode/middleware"
	"github.com/Dosada05/prode/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub          *live.Hub
	stageService services.StageService
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

// NewWebSocketHandler: allowedOrigins "*" разрешает любой Origin.
func NewWebSocketHandler(hub *live.Hub, ss services.StageService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:          hub,
		stageService: ss,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeStage подписывает клиента на обновления рейтинга этапа: /ws/stages/{slug}
func (h *WebSocketHandler) ServeStage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, err := h.stageService.GetBySlug(r.Context(), middleware.ViewerRole(r.Context()), slug); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("stage", slug), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, live.RoomForStage(slug))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
