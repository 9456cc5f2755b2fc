package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studyflow-backend/models"
	"studyflow-backend/utils"
)

// EligibilityResolver computes the reminder audience for a day against today's date in loc.
type EligibilityResolver struct {
	store RecipientStore
	loc   *time.Location
	now   func() time.Time
	log   zerolog.Logger
}

func NewEligibilityResolver(store RecipientStore, loc *time.Location, log zerolog.Logger) *EligibilityResolver {
	if loc == nil {
		loc = time.UTC
	}
	return &EligibilityResolver{
		store: store,
		loc:   loc,
		now:   time.Now,
		log:   log.With().Str("component", "eligibility").Logger(),
	}
}

// ResolveEligible returns each eligible user once, in store order.
// A store failure is returned as an error wrapping ErrStoreUnavailable, never as an empty result.
func (r *EligibilityResolver) ResolveEligible(ctx context.Context, day models.Weekday) ([]models.Recipient, error) {
	return r.ResolveEligibleAt(ctx, day, r.now())
}

// ResolveEligibleAt is ResolveEligible with activity checked on asOf's date in the resolver's zone.
func (r *EligibilityResolver) ResolveEligibleAt(ctx context.Context, day models.Weekday, asOf time.Time) ([]models.Recipient, error) {
	if !day.Valid() {
		return nil, fmt.Errorf("resolve eligible: invalid weekday %d", int(day))
	}
	asOf = asOf.In(r.loc)

	rows, err := r.store.QueryEligible(ctx, day, asOf)
	if err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	recipients := make([]models.Recipient, 0, len(rows))
	for _, rc := range rows {
		if strings.TrimSpace(rc.PushAddress) == "" {
			continue
		}
		if _, dup := seen[rc.UserID]; dup {
			continue
		}
		seen[rc.UserID] = struct{}{}
		recipients = append(recipients, rc)
	}

	r.log.Debug().
		Str("day", day.String()).
		Str("date", asOf.Format(utils.DateLayout)).
		Int("rows", len(rows)).
		Int("eligible", len(recipients)).
		Msg("resolved reminder audience")
	return recipients, nil
}
