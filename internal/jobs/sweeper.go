package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/opencrew/matchengine/internal/engine"
	"github.com/opencrew/matchengine/internal/match"
)

// Default sweep settings.
const (
	DefaultSweepInterval = 15 * time.Minute
	DefaultMissionLimit  = 100
)

// Refresher is the subset of the matching engine the sweeper drives.
type Refresher interface {
	RefreshMatches(ctx context.Context, missionID string, opts engine.RefreshOptions) ([]match.Result, error)
	RefreshMatchPower(ctx context.Context, contributorID string) (int, error)
}

// Directory lists the populations each sweep walks.
type Directory interface {
	ListOpenMissions(ctx context.Context, limit int) ([]match.Mission, error)
	ListEligibleContributors(ctx context.Context) ([]match.ContributorProfile, error)
}

// SweeperConfig controls sweep cadence and scope.
type SweeperConfig struct {
	// Interval between sweeps. Zero means DefaultSweepInterval.
	Interval time.Duration

	// MissionLimit caps how many open missions a single sweep refreshes.
	// Zero means DefaultMissionLimit.
	MissionLimit int

	// RecomputeMatchPower also refreshes match power for all eligible
	// contributors on each sweep.
	RecomputeMatchPower bool
}

// Sweeper periodically recomputes stored matches for open missions so that
// the stored lists do not go stale between on-demand refreshes. It can also
// recompute contributor match power in the same pass.
type Sweeper struct {
	refresher Refresher
	directory Directory
	config    SweeperConfig
	logger    *slog.Logger
	metrics   *Metrics
}

// NewSweeper creates a sweeper. metrics may be nil.
func NewSweeper(r Refresher, d Directory, cfg SweeperConfig, logger *slog.Logger, metrics *Metrics) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.MissionLimit <= 0 {
		cfg.MissionLimit = DefaultMissionLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		refresher: r,
		directory: d,
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run sweeps immediately, then on every interval tick until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over open missions and, if configured, eligible
// contributors. Failures on individual items are logged and counted but do
// not stop the pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	s.sweepMissions(ctx)
	if s.config.RecomputeMatchPower {
		s.sweepMatchPower(ctx)
	}
}

func (s *Sweeper) sweepMissions(ctx context.Context) {
	start := time.Now()

	missions, err := s.directory.ListOpenMissions(ctx, s.config.MissionLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "match refresh sweep failed to list missions", "error", err)
		s.recordRun(JobTypeMatchRefresh, start, false)
		s.recordError(JobTypeMatchRefresh, "database_error")
		return
	}

	var failed int
	for _, m := range missions {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.refresher.RefreshMatches(ctx, m.ID, engine.RefreshOptions{}); err != nil {
			failed++
			s.recordError(JobTypeMatchRefresh, classifyRefreshError(err))
			s.logger.WarnContext(ctx, "match refresh sweep skipped mission",
				"mission_id", m.ID, "error", err)
		}
	}

	s.recordRun(JobTypeMatchRefresh, start, failed == 0)
	s.logger.InfoContext(ctx, "match refresh sweep complete",
		"missions", len(missions), "failed", failed,
		"duration_ms", time.Since(start).Milliseconds())
}

func (s *Sweeper) sweepMatchPower(ctx context.Context) {
	start := time.Now()

	contributors, err := s.directory.ListEligibleContributors(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "match power sweep failed to list contributors", "error", err)
		s.recordRun(JobTypeMatchPowerRecompute, start, false)
		s.recordError(JobTypeMatchPowerRecompute, "database_error")
		return
	}

	var failed int
	for _, c := range contributors {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.refresher.RefreshMatchPower(ctx, c.ID); err != nil {
			failed++
			s.recordError(JobTypeMatchPowerRecompute, "refresh_error")
			s.logger.WarnContext(ctx, "match power sweep skipped contributor",
				"contributor_id", c.ID, "error", err)
		}
	}

	s.recordRun(JobTypeMatchPowerRecompute, start, failed == 0)
	s.logger.InfoContext(ctx, "match power sweep complete",
		"contributors", len(contributors), "failed", failed,
		"duration_ms", time.Since(start).Milliseconds())
}

func (s *Sweeper) recordRun(jobType string, start time.Time, success bool) {
	if s.metrics == nil {
		return
	}
	status := StatusSuccess
	if !success {
		status = StatusFailure
	}
	s.metrics.IncJobsTotal(jobType, status)
	s.metrics.ObserveJobDuration(jobType, time.Since(start).Seconds())
}

func (s *Sweeper) recordError(jobType, errorType string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncJobErrors(jobType, errorType)
}

func classifyRefreshError(err error) string {
	switch {
	case errors.Is(err, engine.ErrRefreshTimeout):
		return "timeout"
	case errors.Is(err, match.ErrMissionNotFound):
		return "not_found"
	default:
		return "refresh_error"
	}
}
