// Package engine orchestrates the matching pipeline: loading candidates,
// scoring them in bounded parallel batches, ranking, persisting, and serving
// stored results and recommendations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opencrew/matchengine/internal/catalog"
	"github.com/opencrew/matchengine/internal/history"
	"github.com/opencrew/matchengine/internal/match"
	"github.com/opencrew/matchengine/internal/store"
)

// ErrRefreshTimeout is returned when a refresh exceeds its deadline. Nothing
// is persisted in that case; the previous stored set stays intact.
var ErrRefreshTimeout = errors.New("match refresh deadline exceeded")

// Config carries the engine's tuning knobs.
type Config struct {
	// BatchSize is how many candidates are dispatched per scoring batch.
	BatchSize int
	// Parallelism bounds concurrent scoring goroutines within a batch.
	Parallelism int
	// RefreshTimeout is the deadline for one whole refresh. Fail-closed:
	// hitting it aborts the refresh with nothing persisted.
	RefreshTimeout time.Duration
	// PersistTopN is how many ranked matches are stored per mission.
	PersistTopN int
	// RecentHireWindow defines how far back an engagement counts as a
	// recent hire for diversity penalties.
	RecentHireWindow time.Duration
	// Diversity configures the re-ranking pass applied under DiversityBoost.
	Diversity match.DiversityConfig
}

// Engine default knobs.
const (
	DefaultBatchSize        = 100
	DefaultParallelism      = 8
	DefaultRefreshTimeout   = 30 * time.Second
	DefaultPersistTopN      = 50
	DefaultRecentHireWindow = 30 * 24 * time.Hour
)

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Parallelism <= 0 {
		c.Parallelism = DefaultParallelism
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = DefaultRefreshTimeout
	}
	if c.PersistTopN <= 0 {
		c.PersistTopN = DefaultPersistTopN
	}
	if c.RecentHireWindow <= 0 {
		c.RecentHireWindow = DefaultRecentHireWindow
	}
	return c
}

// RefreshOptions controls one refresh invocation.
type RefreshOptions struct {
	// Limit caps the returned (not the persisted) match list; 0 returns all.
	Limit int
	// MinimumScore filters out matches below this overall score when >0.
	MinimumScore int
	// StrictBudget additionally requires a budget-fit score of at least 50.
	StrictBudget bool
	// DiversityBoost enables the diversity re-ranking pass and the sort-key
	// jitter.
	DiversityBoost bool
}

// Hard eligibility floors applied to every refresh.
const (
	minSkillCoverage = 30
	minAvailability  = 20
	strictBudgetFit  = 50
)

// jitterRange bounds the tie-break jitter added to sort keys under
// DiversityBoost.
const jitterRange = 2.0

// Engine is the matching orchestrator. All its operations are safe for
// concurrent use; refreshes for the same mission serialize on a per-mission
// lock.
type Engine struct {
	store   store.Store
	history *history.Aggregator
	catalog *catalog.Cache
	cache   *store.MatchCache
	weights *match.Weights
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	// jitter returns a value in [0,1) for the DiversityBoost tie-break.
	// Defaults to rand.Float64; injected so tests and reproducible runs can
	// seed it. Nil disables jitter entirely.
	jitter func() float64

	missionLocks keyedMutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithWeights sets the overall-score weights (defaults otherwise).
func WithWeights(w *match.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithMatchCache attaches a Redis read-through cache for stored matches.
func WithMatchCache(c *store.MatchCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithJitter injects the tie-break jitter source. Pass nil to disable.
func WithJitter(fn func() float64) Option {
	return func(e *Engine) { e.jitter = fn }
}

// New creates a matching engine over the given store.
func New(st store.Store, cat *catalog.Cache, cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:   st,
		history: history.NewAggregator(st),
		catalog: cat,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		jitter:  rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.weights == nil {
		e.weights = match.DefaultWeights()
	}
	return e
}

// RefreshMatches recomputes and persists the mission's match set.
//
// The whole refresh runs under a per-mission lock and a config deadline.
// Eligible candidates (verified, looking for work) are scored in bounded
// parallel batches; a single candidate failure is logged and skipped, never
// fatal. Survivors of the hard floors are ranked, the top PersistTopN are
// stored atomically, and the top Limit are returned.
func (e *Engine) RefreshMatches(ctx context.Context, missionID string, opts RefreshOptions) ([]match.Result, error) {
	unlock := e.missionLocks.lock(missionID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RefreshTimeout)
	defer cancel()

	start := time.Now()
	e.metrics.IncRefreshTotal()

	results, err := e.refresh(ctx, missionID, opts)
	if err != nil {
		e.metrics.IncRefreshErrors()
		if errors.Is(err, context.DeadlineExceeded) {
			e.logger.Error("match refresh timed out, nothing persisted",
				slog.String("mission_id", missionID),
				slog.Duration("deadline", e.cfg.RefreshTimeout))
			return nil, fmt.Errorf("%w: %s", ErrRefreshTimeout, missionID)
		}
		return nil, err
	}

	e.metrics.ObserveRefreshDuration(time.Since(start).Seconds())
	e.metrics.SetLastRefresh(float64(time.Now().Unix()), len(results))

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (e *Engine) refresh(ctx context.Context, missionID string, opts RefreshOptions) ([]match.Result, error) {
	mission, err := e.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	names := e.skillNames(ctx)

	candidates, err := e.store.ListEligibleContributors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	scored, skipped, err := e.scoreCandidates(ctx, *mission, candidates, names)
	if err != nil {
		return nil, err
	}
	e.metrics.AddCandidatesEvaluated(len(scored))
	e.metrics.AddCandidatesSkipped(skipped)

	filtered := scored[:0]
	for _, r := range scored {
		if opts.MinimumScore > 0 && r.OverallScore < opts.MinimumScore {
			continue
		}
		if r.Breakdown.SkillCoverage < minSkillCoverage {
			continue
		}
		if r.Breakdown.AvailabilityScore < minAvailability {
			continue
		}
		if opts.StrictBudget && r.Breakdown.BudgetFitScore < strictBudgetFit {
			continue
		}
		filtered = append(filtered, r)
	}

	ranked := e.rank(ctx, *mission, filtered, opts)

	persisted := ranked
	if len(persisted) > e.cfg.PersistTopN {
		persisted = persisted[:e.cfg.PersistTopN]
	}
	if err := e.store.ReplaceMissionMatches(ctx, missionID, persisted); err != nil {
		return nil, fmt.Errorf("failed to persist matches: %w", err)
	}
	if e.cache != nil {
		if err := e.cache.Invalidate(ctx, missionID); err != nil {
			e.logger.Warn("failed to invalidate match cache after refresh",
				slog.String("mission_id", missionID),
				slog.String("error", err.Error()))
		}
	}

	e.logger.Info("match refresh complete",
		slog.String("mission_id", missionID),
		slog.Int("candidates", len(candidates)),
		slog.Int("skipped", skipped),
		slog.Int("matches", len(ranked)),
		slog.Int("persisted", len(persisted)))
	return ranked, nil
}

// scoreCandidates evaluates candidates in batches, each batch fanned out
// through an errgroup bounded by the configured parallelism. A candidate
// whose history cannot be loaded is logged and skipped; only context
// cancellation aborts the whole pass.
func (e *Engine) scoreCandidates(ctx context.Context, mission match.Mission, candidates []match.ContributorProfile, names map[string]string) ([]match.Result, int, error) {
	results := make([]*match.Result, len(candidates))
	var skipped int
	var mu sync.Mutex

	for batchStart := 0; batchStart < len(candidates); batchStart += e.cfg.BatchSize {
		batchEnd := batchStart + e.cfg.BatchSize
		if batchEnd > len(candidates) {
			batchEnd = len(candidates)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Parallelism)
		for i := batchStart; i < batchEnd; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				candidate := candidates[i]
				h, err := e.history.ForContributor(gctx, candidate.ID)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					e.logger.Warn("skipping candidate, history aggregation failed",
						slog.String("contributor_id", candidate.ID),
						slog.String("mission_id", mission.ID),
						slog.String("error", err.Error()))
					mu.Lock()
					skipped++
					mu.Unlock()
					return nil
				}
				r := match.Score(mission, candidate, h, names, e.weights)
				results[i] = &r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, skipped, err
		}
	}

	out := make([]match.Result, 0, len(candidates))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, skipped, nil
}

// rank orders the filtered matches. With DiversityBoost the diversity pass
// adjusts scores and caps timezone buckets, and the jitter source (when
// present) perturbs the sort key only; stored scores are never jittered.
// Without it the ordering is fully deterministic.
func (e *Engine) rank(ctx context.Context, mission match.Mission, matches []match.Result, opts RefreshOptions) []match.Result {
	if !opts.DiversityBoost {
		sorted := append([]match.Result(nil), matches...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].OverallScore != sorted[j].OverallScore {
				return sorted[i].OverallScore > sorted[j].OverallScore
			}
			return sorted[i].ContributorID < sorted[j].ContributorID
		})
		for i := range sorted {
			sorted[i].Rank = i + 1
		}
		return sorted
	}

	recentHires := map[string]bool{}
	if e.cfg.Diversity.PenalizeRecentHires {
		hires, err := e.store.RecentHires(ctx, mission.InitiatorID, time.Now().Add(-e.cfg.RecentHireWindow))
		if err != nil {
			e.logger.Warn("recent-hire lookup failed, skipping penalty",
				slog.String("mission_id", mission.ID),
				slog.String("error", err.Error()))
		} else {
			recentHires = hires
		}
	}

	ranked := match.ApplyDiversityRanking(matches, recentHires, e.cfg.Diversity)

	if e.jitter != nil {
		keys := make(map[string]float64, len(ranked))
		for _, r := range ranked {
			keys[r.ContributorID] = float64(r.OverallScore) + e.jitter()*jitterRange
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return keys[ranked[i].ContributorID] > keys[ranked[j].ContributorID]
		})
		for i := range ranked {
			ranked[i].Rank = i + 1
		}
	}
	return ranked
}

// skillNames resolves the skill taxonomy, tolerating catalog failures with a
// nil map so scoring proceeds with bare skill IDs.
func (e *Engine) skillNames(ctx context.Context) map[string]string {
	if e.catalog == nil {
		return nil
	}
	names, err := e.catalog.Names(ctx)
	if err != nil {
		e.logger.Warn("skill catalog unavailable, scoring without names",
			slog.String("error", err.Error()))
		return nil
	}
	return names
}

// PreviewResult is a one-off scored pairing with confidence, explanation,
// and a rarity-weighted view of the skill score attached. Nothing is
// persisted.
type PreviewResult struct {
	match.Result
	RarityWeightedSkillScore int              `json:"rarity_weighted_skill_score"`
	Confidence               match.Confidence `json:"confidence"`
	Explanation              []string         `json:"explanation"`
}

// PreviewMatch scores one contributor against one mission without touching
// stored state. Alongside the flat breakdown it reports the skill score
// under rarity weights derived from the full contributor population; when
// the population cannot be loaded the flat skill score stands in.
func (e *Engine) PreviewMatch(ctx context.Context, missionID, contributorID string) (*PreviewResult, error) {
	mission, err := e.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	contributor, err := e.store.GetContributor(ctx, contributorID)
	if err != nil {
		return nil, err
	}
	h, err := e.history.ForContributor(ctx, contributorID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate work history: %w", err)
	}

	names := e.skillNames(ctx)
	r := match.Score(*mission, *contributor, h, names, e.weights)
	preview := &PreviewResult{
		Result:                   r,
		RarityWeightedSkillScore: r.Breakdown.SkillScore,
		Confidence:               match.CalculateMatchConfidence(r),
		Explanation:              match.GenerateMatchExplanation(r),
	}

	population, err := e.store.ListContributors(ctx)
	if err != nil {
		e.logger.Warn("population load failed, preview keeps the flat skill score",
			slog.String("mission_id", missionID),
			slog.String("contributor_id", contributorID),
			slog.String("error", err.Error()))
		return preview, nil
	}
	rarity := match.SkillRarityWeights(population)
	weighted := match.WeightedSkillMatch(mission.RequiredSkillIDs, contributor.Skills, names, rarity)
	preview.RarityWeightedSkillScore = weighted.Score
	return preview, nil
}

// RefreshMatchPower recomputes and persists a contributor's match power.
// Returns the new value.
func (e *Engine) RefreshMatchPower(ctx context.Context, contributorID string) (int, error) {
	contributor, err := e.store.GetContributor(ctx, contributorID)
	if err != nil {
		return 0, err
	}
	h, err := e.history.ForContributor(ctx, contributorID)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate work history: %w", err)
	}

	power := match.MatchPower(*contributor, h)
	if err := e.store.UpdateMatchPower(ctx, contributorID, power); err != nil {
		return 0, err
	}
	e.logger.Info("match power refreshed",
		slog.String("contributor_id", contributorID),
		slog.Int("match_power", power))
	return power, nil
}

// AnalyzeSkillGaps reports where the contributor falls short of the
// mission's required skills.
func (e *Engine) AnalyzeSkillGaps(ctx context.Context, missionID, contributorID string) ([]match.SkillGap, error) {
	mission, err := e.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	contributor, err := e.store.GetContributor(ctx, contributorID)
	if err != nil {
		return nil, err
	}
	return match.AnalyzeSkillGaps(mission.RequiredSkillIDs, contributor.Skills, e.skillNames(ctx)), nil
}

// StoredMatches returns the mission's stored match set, read through the
// Redis cache when one is attached. Returned scores are age-decayed on read;
// the stored values are untouched.
func (e *Engine) StoredMatches(ctx context.Context, missionID string) ([]match.Result, error) {
	if e.cache != nil {
		if cached, hit := e.cache.Get(ctx, missionID); hit {
			return decayed(cached, time.Now()), nil
		}
	}

	results, err := e.store.ListMissionMatches(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored matches: %w", err)
	}
	if e.cache != nil {
		if err := e.cache.Set(ctx, missionID, results); err != nil {
			e.logger.Warn("failed to cache stored matches",
				slog.String("mission_id", missionID),
				slog.String("error", err.Error()))
		}
	}
	return decayed(results, time.Now()), nil
}

// decayed applies time decay to a copy of the stored results.
func decayed(results []match.Result, now time.Time) []match.Result {
	out := make([]match.Result, len(results))
	copy(out, results)
	for i := range out {
		out[i].OverallScore = match.ApplyTimeDecay(out[i].OverallScore, out[i].ComputedAt, now)
	}
	return out
}

// keyedMutex serializes work per string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key, creating it on first use, and returns the
// unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
