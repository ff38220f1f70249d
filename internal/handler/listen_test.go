package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/middleware"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/realtime"
)

type staticLoader struct{}

func (staticLoader) LoadSnapshot(ctx context.Context, topic realtime.Topic, userID string) (any, error) {
	return []string{string(topic) + ":" + userID}, nil
}

func newListenServer(t *testing.T, allowOrigin func(string) bool) (*realtime.Hub, *httptest.Server) {
	t.Helper()
	hub := realtime.NewHub(staticLoader{}, discardLogger(), metrics.NewInMemory())
	h := NewListenHandler(hub, allowOrigin, discardLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Listen(w, withSession(r, "u1"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) realtime.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env realtime.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestListenHandler_SubscribeReceivesSnapshot(t *testing.T) {
	hub, srv := newListenServer(t, nil)
	conn := dial(t, srv, nil)

	require.NoError(t, conn.WriteJSON(realtime.Envelope{Type: realtime.TypeSubscribe, Topic: realtime.TopicMyBrews}))

	env := readEnvelope(t, conn)
	assert.Equal(t, realtime.TypeSnapshot, env.Type)
	assert.Equal(t, realtime.TopicMyBrews, env.Topic)
	assert.Equal(t, []any{"my-brews:u1"}, env.Data)

	hub.Notify(context.Background(), model.Change{Collection: model.CollectionBrews, DocumentID: "b1", OwnerID: "u1"})

	env = readEnvelope(t, conn)
	assert.Equal(t, realtime.TypeSnapshot, env.Type)
	assert.Equal(t, realtime.TopicMyBrews, env.Topic)
}

func TestListenHandler_UnknownTopic(t *testing.T) {
	_, srv := newListenServer(t, nil)
	conn := dial(t, srv, nil)

	require.NoError(t, conn.WriteJSON(realtime.Envelope{Type: realtime.TypeSubscribe, Topic: "everything"}))

	env := readEnvelope(t, conn)
	assert.Equal(t, realtime.TypeError, env.Type)
	assert.Equal(t, realtime.Topic("everything"), env.Topic)
}

func TestListenHandler_UnknownMessageType(t *testing.T) {
	_, srv := newListenServer(t, nil)
	conn := dial(t, srv, nil)

	require.NoError(t, conn.WriteJSON(realtime.Envelope{Type: "shout"}))

	env := readEnvelope(t, conn)
	assert.Equal(t, realtime.TypeError, env.Type)
	assert.Equal(t, "unknown message type", env.Error)
}

func TestListenHandler_DisconnectUnregisters(t *testing.T) {
	hub, srv := newListenServer(t, nil)
	conn := dial(t, srv, nil)

	require.NoError(t, conn.WriteJSON(realtime.Envelope{Type: realtime.TypeSubscribe, Topic: realtime.TopicBrews}))
	readEnvelope(t, conn)
	require.Equal(t, 1, hub.Count())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestListenHandler_ShutdownClosesConnection(t *testing.T) {
	hub, srv := newListenServer(t, nil)
	conn := dial(t, srv, nil)

	require.NoError(t, conn.WriteJSON(realtime.Envelope{Type: realtime.TypeSubscribe, Topic: realtime.TopicBags}))
	readEnvelope(t, conn)

	require.NoError(t, hub.Shutdown(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected normal close, got %v", err)
}

func TestListenHandler_Origin(t *testing.T) {
	allow := func(origin string) bool { return origin == "https://app.beanbook.dev" }
	_, srv := newListenServer(t, allow)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, srv, http.Header{"Origin": {"https://app.beanbook.dev"}})
	require.NoError(t, conn.WriteJSON(realtime.Envelope{Type: realtime.TypeSubscribe, Topic: realtime.TopicProfile}))
	assert.Equal(t, realtime.TypeSnapshot, readEnvelope(t, conn).Type)
}

func TestListenHandler_ConfiguredOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		wantOK  bool
	}{
		{name: "native app without origin", allowed: nil, origin: "", wantOK: true},
		{name: "web app", allowed: []string{"https://app.beanbook.dev"}, origin: "https://app.beanbook.dev", wantOK: true},
		{name: "preview deploy", allowed: []string{"*.preview.beanbook.dev"}, origin: "https://pr-9.preview.beanbook.dev", wantOK: true},
		{name: "unlisted site", allowed: []string{"https://app.beanbook.dev"}, origin: "https://beanbook.evil", wantOK: false},
		{name: "lookalike of a wildcard", allowed: []string{"*.preview.beanbook.dev"}, origin: "https://evilpreview.beanbook.dev", wantOK: false},
		{name: "browser with nothing configured", allowed: nil, origin: "https://app.beanbook.dev", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cors := middleware.DefaultCORSConfig()
			cors.AllowedOrigins = tt.allowed
			_, srv := newListenServer(t, cors.AllowsOrigin)

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			url := "ws" + strings.TrimPrefix(srv.URL, "http")
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if !tt.wantOK {
				require.Error(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = conn.Close() })

			require.NoError(t, conn.WriteJSON(realtime.Envelope{Type: realtime.TypeSubscribe, Topic: realtime.TopicBrews}))
			assert.Equal(t, realtime.TypeSnapshot, readEnvelope(t, conn).Type)
		})
	}
}
