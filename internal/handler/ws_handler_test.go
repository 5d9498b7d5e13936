package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pairpad/collab-service/internal/config"
	"github.com/pairpad/collab-service/internal/domain"
	"github.com/pairpad/collab-service/internal/events"
	"github.com/pairpad/collab-service/internal/hub"
	"github.com/pairpad/collab-service/internal/registry"
	"github.com/pairpad/collab-service/internal/repository"
	"github.com/pairpad/collab-service/internal/service"
)

type stubOracle struct {
	reply string
}

func (o *stubOracle) Review(ctx context.Context, code string) (string, error) {
	return o.reply, nil
}

type wsEnv struct {
	server   *httptest.Server
	hub      *hub.Hub
	projects repository.ProjectRepository
	messages repository.MessageRepository
}

func setupWSServer(t *testing.T) *wsEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ProjectModel{}, &domain.MessageModel{}))

	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 1 << 20,
	}

	h := hub.NewHub(wsCfg)
	go h.Run()

	projects := repository.NewGormProjectRepository(db)
	messages := repository.NewGormMessageRepository(db)

	svc := service.NewRelayService(h, projects, messages, &stubOracle{reply: "solid work"},
		events.NewNoopProducer(), registry.NewNoopRegistry())

	r := gin.New()
	NewWSHandler(h, svc, wsCfg).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &wsEnv{server: srv, hub: h, projects: projects, messages: messages}
}

func (e *wsEnv) dial(t *testing.T, projectID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?project=" + projectID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (e *wsEnv) createProject(t *testing.T, name string) *domain.Project {
	t.Helper()
	p := &domain.Project{Name: name}
	require.NoError(t, e.projects.Create(context.Background(), p))
	return p
}

func send(t *testing.T, conn *websocket.Conn, frame interface{}) {
	t.Helper()
	data, err := json.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func requireNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("unexpectedly received: %s", data)
	}
	netErr, ok := err.(net.Error)
	require.True(t, ok && netErr.Timeout(), "expected read timeout, got: %v", err)
}

func TestMissingProjectParamRejected(t *testing.T) {
	env := setupWSServer(t)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatMessageRoundTrip(t *testing.T) {
	env := setupWSServer(t)
	p := env.createProject(t, "demo")

	a := env.dial(t, p.ID)
	b := env.dial(t, p.ID)
	waitForRoomSize(t, env.hub, p.ID, 2)

	send(t, a, domain.ChatFrame{Type: domain.EventChatMessage, Text: "hi"})

	frame := readFrame(t, b)
	require.Equal(t, domain.EventChatMessage, frame["type"])
	require.Equal(t, "hi", frame["text"])
	requireNoFrame(t, a)

	// Persistence runs after the broadcast; wait for it before asking for history.
	require.Eventually(t, func() bool {
		msgs, err := env.messages.ListByProject(context.Background(), p.ID)
		return err == nil && len(msgs) == 1
	}, 2*time.Second, 20*time.Millisecond)

	send(t, b, domain.BaseFrame{Type: domain.EventChatHistory})
	frame = readFrame(t, b)
	require.Equal(t, domain.EventChatHistory, frame["type"])
	records := frame["messages"].([]interface{})
	require.Len(t, records, 1)
	require.Equal(t, "hi", records[0].(map[string]interface{})["text"])
}

func TestCodeChangePropagatesAndLateJoinerSeesIt(t *testing.T) {
	env := setupWSServer(t)
	p := env.createProject(t, "demo")

	a := env.dial(t, p.ID)
	b := env.dial(t, p.ID)
	waitForRoomSize(t, env.hub, p.ID, 2)

	send(t, a, domain.CodeFrame{Type: domain.EventCodeChange, Code: "print(1)"})

	frame := readFrame(t, b)
	require.Equal(t, domain.EventCodeChange, frame["type"])
	require.Equal(t, "print(1)", frame["code"])

	require.Eventually(t, func() bool {
		code, err := env.projects.GetCode(context.Background(), p.ID)
		return err == nil && code == "print(1)"
	}, 2*time.Second, 20*time.Millisecond)

	late := env.dial(t, p.ID)
	send(t, late, domain.BaseFrame{Type: domain.EventGetProjectCode})

	frame = readFrame(t, late)
	require.Equal(t, domain.EventProjectCode, frame["type"])
	require.Equal(t, "print(1)", frame["code"])
}

func TestRoomIsolation(t *testing.T) {
	env := setupWSServer(t)
	p1 := env.createProject(t, "one")
	p2 := env.createProject(t, "two")

	a := env.dial(t, p1.ID)
	outsider := env.dial(t, p2.ID)
	waitForRoomSize(t, env.hub, p1.ID, 1)
	waitForRoomSize(t, env.hub, p2.ID, 1)

	send(t, a, domain.ChatFrame{Type: domain.EventChatMessage, Text: "private"})

	requireNoFrame(t, outsider)
}

func TestReviewRepliesToRequesterOnly(t *testing.T) {
	env := setupWSServer(t)
	p := env.createProject(t, "demo")

	a := env.dial(t, p.ID)
	b := env.dial(t, p.ID)
	waitForRoomSize(t, env.hub, p.ID, 2)

	send(t, a, domain.CodeFrame{Type: domain.EventGetReview, Code: "def f(): pass"})

	frame := readFrame(t, a)
	require.Equal(t, domain.EventCodeReview, frame["type"])
	require.Equal(t, "solid work", frame["review"])
	requireNoFrame(t, b)
}

func TestDisconnectCleanup(t *testing.T) {
	env := setupWSServer(t)
	p := env.createProject(t, "demo")

	a := env.dial(t, p.ID)
	b := env.dial(t, p.ID)
	c := env.dial(t, p.ID)
	waitForRoomSize(t, env.hub, p.ID, 3)

	b.Close()
	waitForRoomSize(t, env.hub, p.ID, 2)

	send(t, a, domain.ChatFrame{Type: domain.EventChatMessage, Text: "still here"})

	frame := readFrame(t, c)
	require.Equal(t, "still here", frame["text"])
}

func TestUnknownEventYieldsError(t *testing.T) {
	env := setupWSServer(t)
	p := env.createProject(t, "demo")

	a := env.dial(t, p.ID)

	send(t, a, domain.BaseFrame{Type: "bogus"})

	frame := readFrame(t, a)
	require.Equal(t, domain.EventError, frame["type"])
	require.Equal(t, domain.ErrCodeBadRequest, frame["code"])
}

func TestMalformedFrameYieldsError(t *testing.T) {
	env := setupWSServer(t)
	p := env.createProject(t, "demo")

	a := env.dial(t, p.ID)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("not json")))

	frame := readFrame(t, a)
	require.Equal(t, domain.EventError, frame["type"])
}

func waitForRoomSize(t *testing.T, h *hub.Hub, projectID string, size int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.RoomSize(projectID) == size
	}, 2*time.Second, 10*time.Millisecond, fmt.Sprintf("room %s never reached size %d", projectID, size))
}
