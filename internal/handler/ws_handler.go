package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pairpad/collab-service/internal/config"
	"github.com/pairpad/collab-service/internal/domain"
	"github.com/pairpad/collab-service/internal/hub"
	"github.com/pairpad/collab-service/internal/service"
	"github.com/pairpad/collab-service/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades connections and dispatches inbound frames to the
// relay service.
type WSHandler struct {
	hub     *hub.Hub
	service service.RelayService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.RelayService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

// RegisterRoutes registers the websocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", func(c *gin.Context) {
		h.HandleWebSocket(c.Writer, c.Request)
	})
}

// HandleWebSocket accepts a connection tagged with a project id. The id is
// read once from the query string and binds the session to its room for
// the connection's lifetime; it is not checked against the store.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		http.Error(w, "missing project query parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), projectID, h.hub, conn, h.wsCfg)

	h.hub.Register(client)
	h.service.HandleJoin(h.clientCtx(client), client)

	go client.WritePump()
	go client.ReadPump(h.handleFrame, func() {
		h.service.HandleDisconnect(h.clientCtx(client), client)
	})
}

// clientCtx returns a background context carrying a logger annotated with
// the session's identity. Event handling deliberately does not inherit the
// upgrade request's context: in-flight work survives the disconnect.
func (h *WSHandler) clientCtx(client *hub.Client) context.Context {
	l := log.L().With().
		Str(log.FieldClientID, client.ID).
		Str(log.FieldProjectID, client.Session.Project()).
		Logger()
	return log.WithLogger(context.Background(), l)
}

func (h *WSHandler) handleFrame(client *hub.Client, message []byte) {
	var base domain.BaseFrame
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid frame"))
		return
	}

	ctx := h.clientCtx(client)
	l := log.Ctx(ctx)

	switch base.Type {
	case domain.EventChatHistory:
		if err := h.service.HandleChatHistory(ctx, client); err != nil {
			l.Error().Err(err).Str(log.FieldEvent, base.Type).Msg("chat history failed")
		}

	case domain.EventGetProjectCode:
		if err := h.service.HandleGetProjectCode(ctx, client); err != nil {
			l.Error().Err(err).Str(log.FieldEvent, base.Type).Msg("get project code failed")
		}

	case domain.EventChatMessage:
		var frame domain.ChatFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid chat-message frame"))
			return
		}
		if err := h.service.HandleChatMessage(ctx, client, frame.Text); err != nil {
			l.Error().Err(err).Str(log.FieldEvent, base.Type).Msg("chat message failed")
		}

	case domain.EventCodeChange:
		var frame domain.CodeFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid code-change frame"))
			return
		}
		if err := h.service.HandleCodeChange(ctx, client, frame.Code); err != nil {
			l.Error().Err(err).Str(log.FieldEvent, base.Type).Msg("code change failed")
		}

	case domain.EventSaveProjectCode:
		var frame domain.CodeFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid save-project-code frame"))
			return
		}
		if err := h.service.HandleSaveProjectCode(ctx, client, frame.Code); err != nil {
			l.Error().Err(err).Str(log.FieldEvent, base.Type).Msg("save project code failed")
		}

	case domain.EventGetReview:
		var frame domain.CodeFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid get-review frame"))
			return
		}
		if err := h.service.HandleGetReview(ctx, client, frame.Code); err != nil {
			l.Error().Err(err).Str(log.FieldEvent, base.Type).Msg("get review failed")
		}

	default:
		client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "unknown event type"))
	}
}
