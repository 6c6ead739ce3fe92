package gate

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/interview-backend/internal/model"
)

type stubResults struct {
	result *model.Result
	err    error
}

func (s *stubResults) LatestForRound(_ context.Context, _ int, _ uuid.UUID) (*model.Result, error) {
	return s.result, s.err
}

type stubSettings struct {
	setting *model.AppSetting
	err     error
	calls   int
}

func (s *stubSettings) GetByKey(_ context.Context, _ string) (*model.AppSetting, error) {
	s.calls++
	return s.setting, s.err
}

func newGate(results ResultReader, settings SettingReader, now time.Time) *CooldownGate {
	g := NewCooldownGate(results, settings, 7, zerolog.Nop())
	g.now = func() time.Time { return now }
	return g
}

func TestCheckEligibility_NoPriorAttempt(t *testing.T) {
	g := newGate(&stubResults{err: pgx.ErrNoRows}, &stubSettings{err: pgx.ErrNoRows}, time.Now())

	elig := g.CheckEligibility(context.Background(), 1, uuid.New())
	assert.True(t, elig.Eligible)
	assert.Nil(t, elig.RetryAt)
}

func TestCheckEligibility_PassedAttemptAdmits(t *testing.T) {
	res := &model.Result{Passed: true, CompletedAt: time.Now()}
	g := newGate(&stubResults{result: res}, &stubSettings{err: pgx.ErrNoRows}, time.Now())

	elig := g.CheckEligibility(context.Background(), 1, uuid.New())
	assert.True(t, elig.Eligible)
}

func TestCheckEligibility_FreezeWindow(t *testing.T) {
	completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &model.Result{Passed: false, CompletedAt: completed}
	settings := &stubSettings{setting: &model.AppSetting{Key: model.SettingFreezingPeriodDays, Value: "3"}}

	tests := []struct {
		name     string
		now      time.Time
		eligible bool
	}{
		{"one second after failure", completed.Add(time.Second), false},
		{"one second before window ends", completed.Add(3*24*time.Hour - time.Second), false},
		{"exactly at window end", completed.Add(3 * 24 * time.Hour), true},
		{"well after window", completed.Add(10 * 24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGate(&stubResults{result: res}, settings, tt.now)
			elig := g.CheckEligibility(context.Background(), 1, uuid.New())
			assert.Equal(t, tt.eligible, elig.Eligible)
			if !tt.eligible {
				require.NotNil(t, elig.RetryAt)
				assert.Equal(t, completed.Add(3*24*time.Hour), *elig.RetryAt)
				assert.NotEmpty(t, elig.Message)
			}
		})
	}
}

func TestCheckEligibility_FailsOpenOnStoreError(t *testing.T) {
	g := newGate(&stubResults{err: context.DeadlineExceeded}, &stubSettings{err: pgx.ErrNoRows}, time.Now())

	elig := g.CheckEligibility(context.Background(), 1, uuid.New())
	assert.True(t, elig.Eligible)
}

func TestFreezingDays_ReadOncePerProcess(t *testing.T) {
	completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &model.Result{Passed: false, CompletedAt: completed}
	settings := &stubSettings{setting: &model.AppSetting{Key: model.SettingFreezingPeriodDays, Value: "3"}}

	g := newGate(&stubResults{result: res}, settings, completed.Add(time.Hour))

	first := g.CheckEligibility(context.Background(), 1, uuid.New())
	assert.False(t, first.Eligible)
	require.NotNil(t, first.RetryAt)
	assert.Equal(t, completed.Add(3*24*time.Hour), *first.RetryAt)
	assert.Equal(t, 1, settings.calls)

	// Later edits to the settings row do not reach a running process.
	settings.setting = &model.AppSetting{Key: model.SettingFreezingPeriodDays, Value: "30"}
	second := g.CheckEligibility(context.Background(), 1, uuid.New())
	assert.Equal(t, 1, settings.calls, "cached value served without another read")
	require.NotNil(t, second.RetryAt)
	assert.Equal(t, completed.Add(3*24*time.Hour), *second.RetryAt)
}

func TestFreezingDays_RetriesAfterFailedRead(t *testing.T) {
	completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &model.Result{Passed: false, CompletedAt: completed}
	settings := &stubSettings{err: context.DeadlineExceeded}

	g := newGate(&stubResults{result: res}, settings, completed.Add(time.Hour))

	// The failed read falls back without caching.
	elig := g.CheckEligibility(context.Background(), 1, uuid.New())
	require.NotNil(t, elig.RetryAt)
	assert.Equal(t, completed.Add(7*24*time.Hour), *elig.RetryAt)
	assert.Equal(t, 1, settings.calls)

	// Once the store recovers, the real value is read and cached.
	settings.err = nil
	settings.setting = &model.AppSetting{Key: model.SettingFreezingPeriodDays, Value: "3"}
	elig = g.CheckEligibility(context.Background(), 1, uuid.New())
	require.NotNil(t, elig.RetryAt)
	assert.Equal(t, completed.Add(3*24*time.Hour), *elig.RetryAt)
	assert.Equal(t, 2, settings.calls)
}

func TestFreezingDays_FallbackOnBadValue(t *testing.T) {
	completed := time.Now().Add(-5 * 24 * time.Hour)
	res := &model.Result{Passed: false, CompletedAt: completed}
	settings := &stubSettings{setting: &model.AppSetting{Key: model.SettingFreezingPeriodDays, Value: "not-a-number"}}

	// Fallback of 7 days keeps the 5-day-old failure frozen.
	g := newGate(&stubResults{result: res}, settings, time.Now())
	elig := g.CheckEligibility(context.Background(), 1, uuid.New())
	assert.False(t, elig.Eligible)
}
