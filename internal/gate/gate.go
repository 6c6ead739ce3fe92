package gate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/model"
)

// ResultReader is the slice of the result store the gate needs.
type ResultReader interface {
	LatestForRound(ctx context.Context, candidateID int, roundID uuid.UUID) (*model.Result, error)
}

// SettingReader fetches runtime settings.
type SettingReader interface {
	GetByKey(ctx context.Context, key string) (*model.AppSetting, error)
}

// CooldownGate decides whether a candidate may open a session on a round.
// A failed attempt freezes the round for a configurable number of days,
// counted from the attempt's completion time. The gate fails open: when the
// result store or the settings store cannot be reached, the candidate is
// admitted rather than locked out by infrastructure trouble.
type CooldownGate struct {
	results  ResultReader
	settings SettingReader

	// fallbackDays is used when the settings table has no value.
	fallbackDays int

	// cachedDays holds the freezing period after the first successful
	// settings read; the value is fetched once per process.
	mu         sync.Mutex
	cachedDays *int

	now func() time.Time
	log zerolog.Logger
}

// NewCooldownGate creates a new CooldownGate.
func NewCooldownGate(results ResultReader, settings SettingReader, fallbackDays int, log zerolog.Logger) *CooldownGate {
	return &CooldownGate{
		results:      results,
		settings:     settings,
		fallbackDays: fallbackDays,
		now:          time.Now,
		log:          log.With().Str("component", "cooldown_gate").Logger(),
	}
}

// CheckEligibility evaluates the cooldown for one candidate and round.
func (g *CooldownGate) CheckEligibility(ctx context.Context, candidateID int, roundID uuid.UUID) model.Eligibility {
	latest, err := g.results.LatestForRound(ctx, candidateID, roundID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			g.log.Warn().
				Err(err).
				Int("candidate_id", candidateID).
				Str("round_id", roundID.String()).
				Msg("Result lookup failed, admitting candidate")
		}
		return model.Eligibility{Eligible: true}
	}

	if latest.Passed {
		return model.Eligibility{Eligible: true}
	}

	// Project rounds have no automatic fail verdict, so a stored attempt
	// never freezes them.
	if latest.RoundType == model.RoundTypeProject {
		return model.Eligibility{Eligible: true}
	}

	retryAt := latest.CompletedAt.Add(time.Duration(g.freezingDays(ctx)) * 24 * time.Hour)
	if !g.now().Before(retryAt) {
		return model.Eligibility{Eligible: true}
	}

	return model.Eligibility{
		Eligible: false,
		RetryAt:  &retryAt,
		Message:  fmt.Sprintf("Round is frozen after a failed attempt. You can retry after %s.", retryAt.Format(time.RFC3339)),
	}
}

// freezingDays returns the freezing period, reading it from settings once
// and caching it. Absent or unreadable settings fall back to the configured
// default without poisoning the cache, so a transient outage is retried.
func (g *CooldownGate) freezingDays(ctx context.Context) int {
	g.mu.Lock()
	if g.cachedDays != nil {
		days := *g.cachedDays
		g.mu.Unlock()
		return days
	}
	g.mu.Unlock()

	setting, err := g.settings.GetByKey(ctx, model.SettingFreezingPeriodDays)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			g.log.Warn().Err(err).Msg("Setting lookup failed, using fallback freezing period")
		}
		return g.fallbackDays
	}

	days, err := strconv.Atoi(setting.Value)
	if err != nil || days < 0 {
		g.log.Warn().Str("value", setting.Value).Msg("Invalid freezing period setting, using fallback")
		return g.fallbackDays
	}

	g.mu.Lock()
	g.cachedDays = &days
	g.mu.Unlock()
	return days
}
