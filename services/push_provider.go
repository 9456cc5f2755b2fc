package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type PushMessage struct {
	Address string
	Title   string
	Body    string
	Actions []Action
}

// PushResult reports one send attempt. Ordinary delivery failures are reported here, not as a Go error.
type PushResult struct {
	Delivered         bool
	ProviderMessageID string
	Error             string
}

// PushProvider delivers one notification to one device address.
type PushProvider interface {
	Name() string
	Send(ctx context.Context, msg PushMessage) PushResult
}

func failed(err error) PushResult {
	return PushResult{Delivered: false, Error: err.Error()}
}

// LogProvider only logs messages. It backs PUSH_PROVIDER=log for local runs.
type LogProvider struct {
	log zerolog.Logger
}

func NewLogProvider(log zerolog.Logger) *LogProvider {
	return &LogProvider{log: log.With().Str("component", "push.log").Logger()}
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Send(ctx context.Context, msg PushMessage) PushResult {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	id := uuid.NewString()
	p.log.Info().
		Str("message_id", id).
		Str("title", msg.Title).
		Str("body", msg.Body).
		Int("actions", len(msg.Actions)).
		Msg("push (dry run)")
	return PushResult{Delivered: true, ProviderMessageID: id}
}
