package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// EmailSender is the outbound mail relay; delivery itself is external.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Worker consumes queued mail tasks.
type Worker struct {
	srv    *asynq.Server
	sender EmailSender
}

func NewWorker(redisAddr, redisPassword string, sender EmailSender) *Worker {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword},
		asynq.Config{Concurrency: 4},
	)
	return &Worker{srv: srv, sender: sender}
}

// Run blocks until Shutdown.
func (w *Worker) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskInvitationEmail, w.handleInvitationEmail)
	return w.srv.Run(mux)
}

func (w *Worker) Shutdown() { w.srv.Shutdown() }

func (w *Worker) handleInvitationEmail(ctx context.Context, t *asynq.Task) error {
	var p invitationEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal %s: %w", t.Type(), err)
	}
	subject := fmt.Sprintf("You are invited to %s", p.Document)
	body := fmt.Sprintf("%s (%s) invited you to collaborate on %q.", p.FromName, p.FromEmail, p.Document)
	if err := w.sender.Send(ctx, p.ToEmail, subject, body); err != nil {
		return fmt.Errorf("send invitation mail: %w", err)
	}
	log.Info().Str("module", "notify.worker").Str("to", p.ToEmail).Str("document", p.Document).Msg("invitation mail sent")
	return nil
}
