package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dkeye/Inkroom/internal/domain"
)

const TaskInvitationEmail = "email:invitation"

type invitationEmailPayload struct {
	FromName  string `json:"from_name"`
	FromEmail string `json:"from_email"`
	ToName    string `json:"to_name"`
	ToEmail   string `json:"to_email"`
	Document  string `json:"document"`
}

// Mailer enqueues outbound e-mail onto the background queue. The actual
// SMTP call happens in the worker so a slow mail relay never blocks a
// room command.
type Mailer struct {
	client *asynq.Client
}

func NewMailer(redisAddr, redisPassword string) *Mailer {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword})
	return &Mailer{client: client}
}

func (m *Mailer) EnqueueInvitationEmail(from domain.User, to domain.Member, docName string) error {
	payload, err := json.Marshal(invitationEmailPayload{
		FromName:  from.Name,
		FromEmail: from.Email,
		ToName:    to.Name,
		ToEmail:   to.Email,
		Document:  docName,
	})
	if err != nil {
		return fmt.Errorf("marshal invitation payload: %w", err)
	}
	task := asynq.NewTask(TaskInvitationEmail, payload)
	_, err = m.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(30*time.Second))
	return err
}

func (m *Mailer) Close() error { return m.client.Close() }
