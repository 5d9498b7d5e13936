package audit

import (
	"context"

	"github.com/pairpad/collab-service/pkg/log"
)

// Audit actions for the collaboration relay.
const (
	ActionJoin       = "project.join"
	ActionLeave      = "project.leave"
	ActionChat       = "project.chat_message"
	ActionCodeChange = "project.code_change"
	ActionSaveCode   = "project.save_code"
	ActionReview     = "project.review"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, projectID, clientID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str("action", action).
		Str(log.FieldProjectID, projectID).
		Str(log.FieldClientID, clientID).
		Msg(msg)
}
