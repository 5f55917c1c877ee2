package live

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, RoomForStage(r.URL.Query().Get("stage")))
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, stage string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?stage=" + stage
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastToStage(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "final")
	other := dial(t, srv, "semis")
	require.Eventually(t, func() bool {
		return hub.ClientCount(RoomForStage("final")) == 1 && hub.ClientCount(RoomForStage("semis")) == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToStage("final", Message{Type: TypeRankingUpdated, Payload: []string{"ana"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, TypeRankingUpdated, msg.Type)
	assert.Equal(t, "stage_final", msg.Room)

	// в другую комнату сообщение не уходит
	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "final")
	require.Eventually(t, func() bool { return hub.ClientCount(RoomForStage("final")) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount(RoomForStage("final")) == 0 }, time.Second, 10*time.Millisecond)

	// пустая комната: ничего не происходит
	hub.BroadcastToStage("final", Message{Type: TypeStageClosed})
}

func TestClient_TrySendAfterClose(t *testing.T) {
	c := NewClient(nil, nil, "stage_x")
	assert.True(t, c.trySend([]byte("a")))
	c.close()
	c.close()
	assert.False(t, c.trySend([]byte("b")))
}

func TestHub_RegisterAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)
	cancel()

	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	client := NewClient(hub, nil, RoomForStage("final"))
	returned := make(chan struct{})
	go func() {
		hub.Register(client)
		hub.unregisterClient(client)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("register blocked on a stopped hub")
	}
	assert.False(t, client.trySend([]byte("x")))
	assert.Zero(t, hub.ClientCount(RoomForStage("final")))
}

func TestHub_ReadPumpReturnsAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	readDone := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, RoomForStage("final"))
		hub.Register(client)
		go client.WritePump()
		go func() {
			client.ReadPump()
			close(readDone)
		}()
	}))
	defer srv.Close()

	conn := dial(t, srv, "final")
	require.Eventually(t, func() bool { return hub.ClientCount(RoomForStage("final")) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-hub.done
	require.NoError(t, conn.Close())

	select {
	case <-readDone:
	case <-time.After(2 * time.Second):
		t.Fatal("read pump stuck unregistering from a stopped hub")
	}
}
