package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/models"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id                     TEXT PRIMARY KEY,
	email                  TEXT NOT NULL DEFAULT '',
	plan                   TEXT NOT NULL DEFAULT 'free',
	subscription_status    TEXT NOT NULL DEFAULT 'none',
	stripe_customer_id     TEXT,
	stripe_subscription_id TEXT UNIQUE,
	analysis_runs          INTEGER NOT NULL DEFAULT 0,
	leads_generated        INTEGER NOT NULL DEFAULT 0,
	data_uploaded_mb       DOUBLE PRECISION NOT NULL DEFAULT 0,
	usage_reset_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
	analysis_type TEXT NOT NULL,
	record_count  INTEGER NOT NULL,
	source        TEXT NOT NULL,
	result        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS analysis_runs_user_created_idx ON analysis_runs (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
	lead_type  TEXT NOT NULL,
	urgency    TEXT NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS leads_user_created_idx ON leads (user_id, created_at DESC);
`

const defaultLeadLimit = 100

var _ Store = (*PgStore)(nil)

// PgStore is the Postgres-backed Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// Connect opens a pool, verifies it and bootstraps the schema.
func Connect(ctx context.Context, databaseURL string) (*PgStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) Close() {
	s.pool.Close()
}

const profileColumns = `id, email, plan, subscription_status, stripe_customer_id, stripe_subscription_id,
	analysis_runs, leads_generated, data_uploaded_mb, usage_reset_at, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var p models.UserProfile
	var plan string
	err := row.Scan(
		&p.ID, &p.Email, &plan, &p.Subscription.Status,
		&p.Subscription.StripeCustomerID, &p.Subscription.StripeSubscriptionID,
		&p.Usage.AnalysisRuns, &p.Usage.LeadsGenerated, &p.Usage.DataUploadedMB,
		&p.UsageResetAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Subscription.Plan = models.PlanTier(plan)
	return &p, nil
}

func (s *PgStore) GetOrCreateProfile(ctx context.Context, userID, email string) (*models.UserProfile, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_profiles (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, userID, email)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return scanProfile(s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, userID))
}

func (s *PgStore) GetProfileBySubscription(ctx context.Context, subscriptionID string) (*models.UserProfile, error) {
	return scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE stripe_subscription_id = $1`, subscriptionID))
}

func (s *PgStore) UpdateSubscription(ctx context.Context, userID string, sub models.Subscription) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_profiles
		SET plan = $2,
		    subscription_status = $3,
		    stripe_customer_id = COALESCE($4, stripe_customer_id),
		    stripe_subscription_id = COALESCE($5, stripe_subscription_id),
		    updated_at = now()
		WHERE id = $1`,
		userID, string(sub.Plan), sub.Status, sub.StripeCustomerID, sub.StripeSubscriptionID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) IncrementUsage(ctx context.Context, userID string, delta models.Usage) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_profiles
		SET analysis_runs = analysis_runs + $2,
		    leads_generated = leads_generated + $3,
		    data_uploaded_mb = data_uploaded_mb + $4,
		    updated_at = now()
		WHERE id = $1`,
		userID, delta.AnalysisRuns, delta.LeadsGenerated, delta.DataUploadedMB)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) ResetUsage(ctx context.Context, userID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_profiles
		SET analysis_runs = 0, leads_generated = 0, data_uploaded_mb = 0,
		    usage_reset_at = $2, updated_at = $2
		WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("reset usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) ResetUnpaidUsage(ctx context.Context, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_profiles
		SET analysis_runs = 0, leads_generated = 0, data_uploaded_mb = 0,
		    usage_reset_at = $1, updated_at = $1
		WHERE NOT (plan <> $2 AND subscription_status = $3)`,
		at, string(models.PlanFree), models.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("reset unpaid usage: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) SaveAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_runs (id, user_id, analysis_type, record_count, source, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.UserID, string(run.Type), run.RecordCount, run.Source, string(run.Result), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("save analysis run: %w", err)
	}
	return nil
}

const runColumns = `id, user_id, analysis_type, record_count, source, result, created_at`

func scanRun(row pgx.Row) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	var typ string
	var result []byte
	err := row.Scan(&run.ID, &run.UserID, &typ, &run.RecordCount, &run.Source, &result, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Type = analytics.AnalysisType(typ)
	run.Result = json.RawMessage(result)
	return &run, nil
}

func (s *PgStore) GetAnalysisRun(ctx context.Context, userID, id string) (*models.AnalysisRun, error) {
	return scanRun(s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE id = $1 AND user_id = $2`, id, userID))
}

func (s *PgStore) ListAnalysisRuns(ctx context.Context, userID string, filter models.RunFilter) ([]models.AnalysisRun, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM analysis_runs
		WHERE user_id = $1 AND ($2 = '' OR analysis_type = $2)`,
		userID, string(filter.Type)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count analysis runs: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+` FROM analysis_runs
		WHERE user_id = $1 AND ($2 = '' OR analysis_type = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		userID, string(filter.Type), filter.PageSize, filter.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list analysis runs: %w", err)
	}
	defer rows.Close()

	runs := []models.AnalysisRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan analysis run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, total, rows.Err()
}

func (s *PgStore) SaveLeads(ctx context.Context, leads []models.StoredLead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, l := range leads {
		payload, err := json.Marshal(l.Lead)
		if err != nil {
			return fmt.Errorf("encode lead %s: %w", l.Lead.ID, err)
		}
		batch.Queue(`
			INSERT INTO leads (id, user_id, lead_type, urgency, score, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, l.UserID, string(l.Lead.Type), string(l.Lead.Urgency), l.Lead.Score, string(payload), l.CreatedAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range leads {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("save lead: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("save leads: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PgStore) ListLeads(ctx context.Context, userID string, filter models.LeadFilter) ([]models.StoredLead, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLeadLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, payload, created_at FROM leads
		WHERE user_id = $1
		  AND ($2 = '' OR lead_type = $2)
		  AND ($3 = '' OR urgency = $3)
		ORDER BY created_at DESC, score DESC
		LIMIT $4`,
		userID, string(filter.Type), string(filter.Urgency), limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := []models.StoredLead{}
	for rows.Next() {
		var l models.StoredLead
		var payload []byte
		if err := rows.Scan(&l.ID, &l.UserID, &payload, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		if err := json.Unmarshal(payload, &l.Lead); err != nil {
			return nil, fmt.Errorf("decode lead %s: %w", l.ID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
