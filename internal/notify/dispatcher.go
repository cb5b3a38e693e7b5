package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"playaway/internal/config"
)

const (
	TaskAccountApproved = "account_approved"
	TaskAccountRejected = "account_rejected"
	TaskEventReviewed   = "event_reviewed"
	TaskAppealResolved  = "appeal_resolved"
	TaskReviewInvite    = "review_invite"
)

// Task carries everything the worker needs to render and send one
// email, so the worker stays free of database access.
type Task struct {
	Type       string `json:"type"`
	To         string `json:"to"`
	Recipient  string `json:"recipient"`
	Reason     string `json:"reason"`
	EventTitle string `json:"eventTitle"`
	ClubName   string `json:"clubName"`
	ReviewURL  string `json:"reviewUrl"`
}

// Dispatcher pushes notification tasks onto the outbox stream. Dispatch
// never fails the caller: a dropped notification is logged and lost,
// never allowed to roll back a state transition.
type Dispatcher struct {
	queue  *redis.Client
	stream string
	log    zerolog.Logger
}

func NewDispatcher(queue *redis.Client, cfg config.NotifyConfig, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:  queue,
		stream: cfg.Stream,
		log:    log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, task Task) {
	if d.queue == nil {
		return
	}

	values := map[string]any{
		"type":       task.Type,
		"to":         task.To,
		"recipient":  task.Recipient,
		"reason":     task.Reason,
		"eventTitle": task.EventTitle,
		"clubName":   task.ClubName,
		"reviewUrl":  task.ReviewURL,
	}

	if err := d.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: values,
	}).Err(); err != nil {
		d.log.Error().Err(err).Str("type", task.Type).Str("to", task.To).Msg("enqueue notification failed")
	}
}
