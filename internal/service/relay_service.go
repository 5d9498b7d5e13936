package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pairpad/collab-service/internal/audit"
	"github.com/pairpad/collab-service/internal/domain"
	"github.com/pairpad/collab-service/internal/events"
	"github.com/pairpad/collab-service/internal/hub"
	"github.com/pairpad/collab-service/internal/registry"
	"github.com/pairpad/collab-service/internal/repository"
	"github.com/pairpad/collab-service/internal/review"
	"github.com/pairpad/collab-service/pkg/log"
)

type relayService struct {
	hub      *hub.Hub
	projects repository.ProjectRepository
	messages repository.MessageRepository
	oracle   review.Oracle
	producer events.EventProducer
	registry registry.Registry
}

func NewRelayService(
	h *hub.Hub,
	projects repository.ProjectRepository,
	messages repository.MessageRepository,
	oracle review.Oracle,
	producer events.EventProducer,
	reg registry.Registry,
) RelayService {
	return &relayService{
		hub:      h,
		projects: projects,
		messages: messages,
		oracle:   oracle,
		producer: producer,
		registry: reg,
	}
}

// HandleJoin puts the client in its project's room. The project id comes
// from connection metadata and is never revalidated against the store.
func (s *relayService) HandleJoin(ctx context.Context, c *hub.Client) error {
	projectID := c.Session.Project()

	s.hub.JoinRoom(c)

	if err := s.registry.Register(ctx, projectID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldProjectID, projectID).Msg("failed to register room in registry")
	}

	audit.Log(ctx, audit.ActionJoin, projectID, c.ID, "session joined room")
	return nil
}

// HandleChatHistory replies to the caller only with the project's chat log
// in append order. A store failure produces no reply.
func (s *relayService) HandleChatHistory(ctx context.Context, c *hub.Client) error {
	projectID := c.Session.Project()

	msgs, err := s.messages.ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}

	records := make([]domain.MessageRecord, len(msgs))
	for i, m := range msgs {
		records[i] = domain.MessageRecord{Text: m.Text}
	}

	return c.SendMessage(&domain.ChatHistoryFrame{
		Type:     domain.EventChatHistory,
		Messages: records,
	})
}

// HandleGetProjectCode replies to the caller only with the current code
// buffer. An unknown project yields an empty buffer, not an error.
func (s *relayService) HandleGetProjectCode(ctx context.Context, c *hub.Client) error {
	projectID := c.Session.Project()

	code, err := s.projects.GetCode(ctx, projectID)
	if err != nil && !errors.Is(err, repository.ErrProjectNotFound) {
		return fmt.Errorf("failed to load project code: %w", err)
	}

	return c.SendMessage(&domain.CodeFrame{
		Type: domain.EventProjectCode,
		Code: code,
	})
}

// HandleChatMessage relays the message to the rest of the room, then
// persists it. The broadcast does not wait for the store: peers may see a
// message the store failed to keep.
func (s *relayService) HandleChatMessage(ctx context.Context, c *hub.Client, text string) error {
	projectID := c.Session.Project()

	if err := s.hub.BroadcastToRoom(projectID, &domain.ChatFrame{
		Type: domain.EventChatMessage,
		Text: text,
	}, c.ID); err != nil {
		return err
	}

	s.produceEvent(ctx, projectID, c.ID, domain.EventChatMessage, len(text))

	if _, err := s.messages.Append(ctx, projectID, text); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldProjectID, projectID).Msg("failed to persist chat message")
		return err
	}

	audit.Log(ctx, audit.ActionChat, projectID, c.ID, "chat message relayed")
	return nil
}

// HandleCodeChange relays the new buffer to the rest of the room, then
// overwrites the stored code. Concurrent writers race; the store keeps
// whichever write arrives last.
func (s *relayService) HandleCodeChange(ctx context.Context, c *hub.Client, code string) error {
	projectID := c.Session.Project()

	if err := s.hub.BroadcastToRoom(projectID, &domain.CodeFrame{
		Type: domain.EventCodeChange,
		Code: code,
	}, c.ID); err != nil {
		return err
	}

	s.produceEvent(ctx, projectID, c.ID, domain.EventCodeChange, len(code))

	if err := s.projects.UpdateCode(ctx, projectID, code); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldProjectID, projectID).Msg("failed to persist code change")
		return err
	}

	audit.Log(ctx, audit.ActionCodeChange, projectID, c.ID, "code change relayed")
	return nil
}

// HandleSaveProjectCode persists the buffer without relaying it; the save
// button writes what peers already have.
func (s *relayService) HandleSaveProjectCode(ctx context.Context, c *hub.Client, code string) error {
	projectID := c.Session.Project()

	if err := s.projects.UpdateCode(ctx, projectID, code); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldProjectID, projectID).Msg("failed to save project code")
		return err
	}

	audit.Log(ctx, audit.ActionSaveCode, projectID, c.ID, "project code saved")
	return nil
}

// HandleGetReview asks the oracle for a review and replies to the caller
// only. The call runs in its own goroutine so a slow oracle never blocks
// the session's other events, and it is not cancelled by a later
// disconnect; an undeliverable reply is dropped by the client's closed
// flag. Failures produce no reply.
func (s *relayService) HandleGetReview(ctx context.Context, c *hub.Client, code string) error {
	projectID := c.Session.Project()
	l := log.Ctx(ctx)

	go func() {
		start := time.Now()

		text, err := s.oracle.Review(context.WithoutCancel(ctx), code)
		if err != nil {
			l.Error().Err(err).Str(log.FieldProjectID, projectID).Msg("review oracle failed")
			return
		}

		audit.Log(ctx, audit.ActionReview, projectID, c.ID, "review produced")
		l.Debug().Dur("took", time.Since(start)).Msg("review oracle replied")

		c.SendMessage(&domain.ReviewFrame{
			Type:   domain.EventCodeReview,
			Review: text,
		})
	}()

	return nil
}

// HandleDisconnect tears the session out of its room synchronously and
// drops the room's registry entry when the last member leaves.
func (s *relayService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	projectID := c.Session.Project()

	s.hub.LeaveRoom(c)

	if s.hub.RoomSize(projectID) == 0 {
		if err := s.registry.Deregister(ctx, projectID); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldProjectID, projectID).Msg("failed to deregister room")
		}
	}

	audit.Log(ctx, audit.ActionLeave, projectID, c.ID, "session left room")
	return nil
}

func (s *relayService) Start(ctx context.Context) error {
	if err := s.registry.StartHeartbeat(ctx); err != nil {
		return fmt.Errorf("failed to start registry heartbeat: %w", err)
	}
	l := log.L()
	l.Info().Msg("relay service started")
	return nil
}

func (s *relayService) Stop() error {
	s.registry.StopHeartbeat()
	if err := s.producer.Close(); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to close event producer")
	}
	return nil
}

func (s *relayService) produceEvent(ctx context.Context, projectID, clientID, event string, size int) {
	err := s.producer.Produce(ctx, &events.RoomEvent{
		ProjectID: projectID,
		ClientID:  clientID,
		Event:     event,
		Size:      size,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldEvent, event).Msg("failed to produce room event")
	}
}
