package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/opencrew/matchengine/internal/history"
	"github.com/opencrew/matchengine/internal/match"
)

// Postgres implements Store over PostgreSQL via database/sql + lib/pq.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, logger: logger}
}

func (s *Postgres) GetContributor(ctx context.Context, id string) (*match.ContributorProfile, error) {
	query := `
		SELECT id, headline, bio,
		       COALESCE(github_url, ''), COALESCE(linkedin_url, ''), COALESCE(portfolio_url, ''),
		       verified, background_checked, looking_for_work,
		       available_hours, COALESCE(timezone, ''), match_power, updated_at
		FROM contributors
		WHERE id = $1
	`
	var p match.ContributorProfile
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Headline, &p.Bio,
		&p.GitHubURL, &p.LinkedInURL, &p.PortfolioURL,
		&p.Verified, &p.BackgroundChecked, &p.LookingForWork,
		&p.AvailableHours, &p.Timezone, &p.MatchPower, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, match.ErrContributorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contributor: %w", err)
	}

	p.Skills, err = s.listContributorSkills(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) listContributorSkills(ctx context.Context, contributorID string) ([]match.ContributorSkill, error) {
	query := `
		SELECT skill_id, level, verified, years_experience
		FROM contributor_skills
		WHERE contributor_id = $1
		ORDER BY skill_id
	`
	rows, err := s.db.QueryContext(ctx, query, contributorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributor skills: %w", err)
	}
	defer rows.Close()

	var skills []match.ContributorSkill
	for rows.Next() {
		var cs match.ContributorSkill
		if err := rows.Scan(&cs.SkillID, &cs.Level, &cs.Verified, &cs.YearsExperience); err != nil {
			return nil, fmt.Errorf("failed to scan contributor skill: %w", err)
		}
		skills = append(skills, cs)
	}
	return skills, rows.Err()
}

func (s *Postgres) ListEligibleContributors(ctx context.Context) ([]match.ContributorProfile, error) {
	return s.listContributors(ctx, `WHERE verified AND looking_for_work`)
}

func (s *Postgres) ListContributors(ctx context.Context) ([]match.ContributorProfile, error) {
	return s.listContributors(ctx, ``)
}

func (s *Postgres) listContributors(ctx context.Context, where string) ([]match.ContributorProfile, error) {
	query := `
		SELECT id, headline, bio,
		       COALESCE(github_url, ''), COALESCE(linkedin_url, ''), COALESCE(portfolio_url, ''),
		       verified, background_checked, looking_for_work,
		       available_hours, COALESCE(timezone, ''), match_power, updated_at
		FROM contributors
	` + where + ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors: %w", err)
	}
	defer rows.Close()

	var out []match.ContributorProfile
	byID := make(map[string]int)
	for rows.Next() {
		var p match.ContributorProfile
		if err := rows.Scan(
			&p.ID, &p.Headline, &p.Bio,
			&p.GitHubURL, &p.LinkedInURL, &p.PortfolioURL,
			&p.Verified, &p.BackgroundChecked, &p.LookingForWork,
			&p.AvailableHours, &p.Timezone, &p.MatchPower, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		byID[p.ID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Attach skills in one pass instead of a query per contributor.
	skillQuery := `
		SELECT contributor_id, skill_id, level, verified, years_experience
		FROM contributor_skills
		ORDER BY contributor_id, skill_id
	`
	skillRows, err := s.db.QueryContext(ctx, skillQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributor skills: %w", err)
	}
	defer skillRows.Close()

	for skillRows.Next() {
		var contributorID string
		var cs match.ContributorSkill
		if err := skillRows.Scan(&contributorID, &cs.SkillID, &cs.Level, &cs.Verified, &cs.YearsExperience); err != nil {
			return nil, fmt.Errorf("failed to scan contributor skill: %w", err)
		}
		if i, ok := byID[contributorID]; ok {
			out[i].Skills = append(out[i].Skills, cs)
		}
	}
	return out, skillRows.Err()
}

func (s *Postgres) UpdateMatchPower(ctx context.Context, id string, power int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE contributors SET match_power = $1, updated_at = NOW() WHERE id = $2`,
		power, id)
	if err != nil {
		return fmt.Errorf("failed to update match power: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return match.ErrContributorNotFound
	}
	return nil
}

func (s *Postgres) GetMission(ctx context.Context, id string) (*match.Mission, error) {
	query := `
		SELECT id, initiator_id, title, required_skill_ids,
		       budget_min, budget_max, complexity, estimated_duration_days,
		       COALESCE(timezone, ''), status, featured, created_at
		FROM missions
		WHERE id = $1
	`
	var m match.Mission
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.InitiatorID, &m.Title, pq.Array(&m.RequiredSkillIDs),
		&m.BudgetMin, &m.BudgetMax, &m.Complexity, &m.EstimatedDuration,
		&m.Timezone, &m.Status, &m.Featured, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, match.ErrMissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}
	return &m, nil
}

func (s *Postgres) ListOpenMissions(ctx context.Context, limit int) ([]match.Mission, error) {
	query := `
		SELECT id, initiator_id, title, required_skill_ids,
		       budget_min, budget_max, complexity, estimated_duration_days,
		       COALESCE(timezone, ''), status, featured, created_at
		FROM missions
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, match.MissionStatusOpen, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open missions: %w", err)
	}
	defer rows.Close()

	var out []match.Mission
	for rows.Next() {
		var m match.Mission
		if err := rows.Scan(
			&m.ID, &m.InitiatorID, &m.Title, pq.Array(&m.RequiredSkillIDs),
			&m.BudgetMin, &m.BudgetMax, &m.Complexity, &m.EstimatedDuration,
			&m.Timezone, &m.Status, &m.Featured, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) ListSkillNames(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM skills`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (s *Postgres) ListEngagements(ctx context.Context, contributorID string) ([]history.Engagement, error) {
	query := `
		SELECT mission_id, initiator_id, status,
		       COALESCE(invited_at, 'epoch'::timestamptz),
		       COALESCE(responded_at, 'epoch'::timestamptz),
		       COALESCE(due_at, 'epoch'::timestamptz),
		       COALESCE(completed_at, 'epoch'::timestamptz)
		FROM engagements
		WHERE contributor_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, contributorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list engagements: %w", err)
	}
	defer rows.Close()

	var out []history.Engagement
	for rows.Next() {
		var e history.Engagement
		if err := rows.Scan(&e.MissionID, &e.InitiatorID, &e.Status,
			&e.InvitedAt, &e.RespondedAt, &e.DueAt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan engagement: %w", err)
		}
		out = append(out, normalizeEngagement(e))
	}
	return out, rows.Err()
}

// normalizeEngagement maps epoch placeholders from NULL columns back to the
// zero time the aggregator treats as absent.
func normalizeEngagement(e history.Engagement) history.Engagement {
	epoch := time.Unix(0, 0).UTC()
	if e.InvitedAt.Equal(epoch) {
		e.InvitedAt = time.Time{}
	}
	if e.RespondedAt.Equal(epoch) {
		e.RespondedAt = time.Time{}
	}
	if e.DueAt.Equal(epoch) {
		e.DueAt = time.Time{}
	}
	if e.CompletedAt.Equal(epoch) {
		e.CompletedAt = time.Time{}
	}
	return e
}

func (s *Postgres) ListReviews(ctx context.Context, contributorID string) ([]history.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mission_id, rating FROM reviews WHERE contributor_id = $1`, contributorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var out []history.Review
	for rows.Next() {
		var r history.Review
		if err := rows.Scan(&r.MissionID, &r.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) ListDisputes(ctx context.Context, contributorID string) ([]history.Dispute, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mission_id FROM disputes WHERE contributor_id = $1`, contributorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	defer rows.Close()

	var out []history.Dispute
	for rows.Next() {
		var d history.Dispute
		if err := rows.Scan(&d.MissionID); err != nil {
			return nil, fmt.Errorf("failed to scan dispute: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Postgres) RecentHires(ctx context.Context, initiatorID string, since time.Time) (map[string]bool, error) {
	query := `
		SELECT DISTINCT contributor_id
		FROM engagements
		WHERE initiator_id = $1 AND invited_at >= $2
	`
	rows, err := s.db.QueryContext(ctx, query, initiatorID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent hires: %w", err)
	}
	defer rows.Close()

	hires := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan recent hire: %w", err)
		}
		hires[id] = true
	}
	return hires, rows.Err()
}

// ReplaceMissionMatches swaps the mission's stored match set in a single
// transaction: delete everything, insert the new ranking. Readers never see a
// partial set.
func (s *Postgres) ReplaceMissionMatches(ctx context.Context, missionID string, matches []match.Result) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Always attempt rollback on function exit (no-op after successful commit)
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warn("failed to rollback match replacement",
				slog.String("mission_id", missionID),
				slog.String("error", err.Error()))
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM mission_matches WHERE mission_id = $1`, missionID); err != nil {
		return fmt.Errorf("failed to clear stored matches: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mission_matches
			(mission_id, contributor_id, overall_score, breakdown, has_history, rank, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range matches {
		breakdown, err := json.Marshal(r.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to encode breakdown: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			missionID, r.ContributorID, r.OverallScore, breakdown,
			r.HasHistory, r.Rank, r.ComputedAt); err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match replacement: %w", err)
	}
	return nil
}

func (s *Postgres) ListMissionMatches(ctx context.Context, missionID string) ([]match.Result, error) {
	query := `
		SELECT mission_id, contributor_id, overall_score, breakdown, has_history, rank, computed_at
		FROM mission_matches
		WHERE mission_id = $1
		ORDER BY rank
	`
	rows, err := s.db.QueryContext(ctx, query, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored matches: %w", err)
	}
	defer rows.Close()

	var out []match.Result
	for rows.Next() {
		var r match.Result
		var breakdown []byte
		if err := rows.Scan(&r.MissionID, &r.ContributorID, &r.OverallScore,
			&breakdown, &r.HasHistory, &r.Rank, &r.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stored match: %w", err)
		}
		if err := json.Unmarshal(breakdown, &r.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to decode breakdown: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

var _ Store = (*Postgres)(nil)
