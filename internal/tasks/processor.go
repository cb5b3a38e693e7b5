package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"html"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"playaway/internal/notify"
)

// Processor renders notification tasks into emails and hands them to
// the mailer. A failed send leaves the message unacked so a later
// claim retries it.
type Processor struct {
	mailer notify.Mailer
	logger zerolog.Logger
}

func NewProcessor(mailer notify.Mailer, logger zerolog.Logger) *Processor {
	return &Processor{
		mailer: mailer,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var task notify.Task
	if err := decodeTask(msg.Values, &task); err != nil {
		return fmt.Errorf("decode task: %w", err)
	}
	if task.To == "" {
		p.logger.Warn().Str("type", task.Type).Msg("task without recipient address, dropping")
		return nil
	}

	subject, body, ok := render(task)
	if !ok {
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type, dropping")
		return nil
	}

	if err := p.mailer.Send(ctx, task.To, subject, body); err != nil {
		return fmt.Errorf("send %s to %s: %w", task.Type, task.To, err)
	}

	p.logger.Info().
		Str("type", task.Type).
		Str("to", task.To).
		Msg("notification sent")
	return nil
}

func decodeTask(values map[string]interface{}, out *notify.Task) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func render(task notify.Task) (subject string, body string, ok bool) {
	name := task.Recipient
	if name == "" {
		name = "there"
	}
	name = html.EscapeString(name)
	title := html.EscapeString(task.EventTitle)
	club := html.EscapeString(task.ClubName)
	reason := html.EscapeString(task.Reason)

	switch task.Type {
	case notify.TaskAccountApproved:
		subject = "Your account has been approved"
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your account has been approved. You can now sign in and start organising events.</p>", name)
	case notify.TaskAccountRejected:
		subject = "Your account application was not approved"
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your account application was not approved.</p><p>Reason: %s</p>", name, reason)
	case notify.TaskEventReviewed:
		subject = fmt.Sprintf("Event %q has been reviewed", task.EventTitle)
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your event <strong>%s</strong> has been reviewed.</p>", name, title)
		if reason != "" {
			body += fmt.Sprintf("<p>Notes: %s</p>", reason)
		}
	case notify.TaskAppealResolved:
		subject = fmt.Sprintf("Appeal decision for %q", task.EventTitle)
		body = fmt.Sprintf("<p>Hi %s,</p><p>The appeal for <strong>%s</strong> has been resolved.</p>", name, title)
		if reason != "" {
			body += fmt.Sprintf("<p>Notes: %s</p>", reason)
		}
	case notify.TaskReviewInvite:
		subject = fmt.Sprintf("Review %s after %q", task.ClubName, task.EventTitle)
		body = fmt.Sprintf(
			"<p>Hi %s,</p><p>Thanks for attending <strong>%s</strong>. Please take a minute to review <strong>%s</strong>.</p><p><a href=%q>Leave your review</a></p><p>The link is single-use and expires in 7 days.</p>",
			name, title, club, task.ReviewURL,
		)
	default:
		return "", "", false
	}
	return subject, body, true
}
