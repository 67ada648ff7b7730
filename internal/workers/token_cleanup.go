package workers

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/shopfront-dev/shopfront/internal/models"
)

// TokenCleanup purges expired refresh tokens and denylist entries on a cron schedule
type TokenCleanup struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
	cron   *cron.Cron
}

// NewTokenCleanup creates a cleanup job. Start must be called to schedule it.
func NewTokenCleanup(db *gorm.DB, logger zerolog.Logger) *TokenCleanup {
	return &TokenCleanup{
		db:     db,
		logger: logger.With().Str("worker", "token_cleanup").Logger(),
		now:    time.Now,
	}
}

// Start parses the schedule (standard 5-field format) and runs the job
// immediately, then on every tick.
func (t *TokenCleanup) Start(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	t.cron = cron.New(cron.WithParser(parser))

	if _, err := t.cron.AddFunc(schedule, func() {
		if _, err := t.Run(); err != nil {
			t.logger.Error().Err(err).Msg("Token cleanup failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	if _, err := t.Run(); err != nil {
		t.logger.Error().Err(err).Msg("Token cleanup failed")
	}

	t.cron.Start()
	t.logger.Info().Str("schedule", schedule).Msg("Token cleanup scheduled")
	return nil
}

// Stop halts the schedule and waits for a running job to finish
func (t *TokenCleanup) Stop() {
	if t.cron == nil {
		return
	}
	<-t.cron.Stop().Done()
}

// Run deletes refresh tokens that are expired or revoked, and denylist
// entries whose access token has expired anyway. It returns the number of
// rows removed.
func (t *TokenCleanup) Run() (int64, error) {
	now := t.now()

	refresh := t.db.
		Where("expires_at <= ? OR revoked_at IS NOT NULL", now).
		Delete(&models.RefreshToken{})
	if refresh.Error != nil {
		return 0, fmt.Errorf("failed to delete refresh tokens: %w", refresh.Error)
	}

	revoked := t.db.
		Where("expires_at <= ?", now).
		Delete(&models.RevokedToken{})
	if revoked.Error != nil {
		return refresh.RowsAffected, fmt.Errorf("failed to delete revoked tokens: %w", revoked.Error)
	}

	total := refresh.RowsAffected + revoked.RowsAffected
	if total > 0 {
		t.logger.Info().
			Int64("refresh_tokens", refresh.RowsAffected).
			Int64("revoked_tokens", revoked.RowsAffected).
			Msg("Purged expired tokens")
	} else {
		t.logger.Debug().Msg("No expired tokens to purge")
	}

	return total, nil
}
