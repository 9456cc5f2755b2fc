package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"studyflow-backend/models"
)

const (
	DefaultPushTimeout     = 5 * time.Second
	DefaultPushConcurrency = 4
)

type DispatcherOptions struct {
	Concurrency int
	Timeout     time.Duration
	// RatePerSec caps provider calls per second across workers. Zero means unlimited.
	RatePerSec float64
}

// Dispatcher sends one rendered notification per recipient and collects exactly one outcome each.
type Dispatcher struct {
	provider    PushProvider
	concurrency int
	timeout     time.Duration
	limiter     *rate.Limiter
	log         zerolog.Logger
}

func NewDispatcher(provider PushProvider, opts DispatcherOptions, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		provider:    provider,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		log:         log.With().Str("component", "dispatch").Str("provider", provider.Name()).Logger(),
	}
	if d.concurrency < 1 {
		d.concurrency = DefaultPushConcurrency
	}
	if d.timeout <= 0 {
		d.timeout = DefaultPushTimeout
	}
	if opts.RatePerSec > 0 {
		burst := int(opts.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return d
}

func (d *Dispatcher) Provider() string { return d.provider.Name() }

// Dispatch renders kind for every recipient and pushes it. Outcomes keep the input order.
// subs may be nil; it is called once per recipient.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []models.Recipient, kind TemplateKind, subs func(models.Recipient) map[string]string) models.DispatchSummary {
	summary := models.DispatchSummary{
		Template: kind.String(),
		Outcomes: make([]models.DispatchOutcome, len(recipients)),
	}

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, rc := range recipients {
		i, rc := i, rc
		g.Go(func() error {
			summary.Outcomes[i] = d.deliver(ctx, rc, kind, subs)
			return nil
		})
	}
	_ = g.Wait()

	summary.Tally()
	return summary
}

func (d *Dispatcher) deliver(ctx context.Context, rc models.Recipient, kind TemplateKind, subs func(models.Recipient) map[string]string) (out models.DispatchOutcome) {
	out.Recipient = rc
	defer func() {
		if p := recover(); p != nil {
			out.Delivered = false
			out.ProviderMessageID = ""
			out.Error = fmt.Sprintf("%v: provider panic: %v", ErrDeliveryFailed, p)
			d.log.Error().Str("user_id", rc.UserID).Interface("panic", p).Msg("push provider panicked")
		}
	}()

	var values map[string]string
	if subs != nil {
		values = subs(rc)
	}
	msg := Render(kind, values)

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			out.Error = fmt.Sprintf("%v: rate limit wait: %v", ErrDeliveryFailed, err)
			return out
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res := d.provider.Send(callCtx, PushMessage{
		Address: rc.PushAddress,
		Title:   msg.Title,
		Body:    msg.Body,
		Actions: msg.Actions,
	})
	out.Delivered = res.Delivered
	out.ProviderMessageID = res.ProviderMessageID
	out.Error = res.Error
	if !res.Delivered && out.Error == "" {
		out.Error = ErrDeliveryFailed.Error()
	}

	if out.Delivered {
		d.log.Debug().Str("user_id", rc.UserID).Str("message_id", out.ProviderMessageID).Msg("notification sent")
	} else {
		d.log.Warn().Str("user_id", rc.UserID).Str("error", out.Error).Msg("notification failed")
	}
	return out
}
