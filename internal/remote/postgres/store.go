// Package postgres implements remote.Store on Postgres with pgx. Every row is
// tagged with the user identity carried by the request context.
package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hyperengineering/fastline/internal/remote"
	"github.com/hyperengineering/fastline/internal/types"
	"github.com/hyperengineering/fastline/migrations"
)

const (
	upsertFastingSQL = `INSERT INTO fasting_logs (id, user_id, start, end_time, status, target_hours, mood, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, now())
        ON CONFLICT (id) DO UPDATE SET
            start = EXCLUDED.start,
            end_time = EXCLUDED.end_time,
            status = EXCLUDED.status,
            target_hours = EXCLUDED.target_hours,
            mood = COALESCE(EXCLUDED.mood, fasting_logs.mood),
            updated_at = now()
        WHERE fasting_logs.user_id = EXCLUDED.user_id`

	upsertWaterSQL = `INSERT INTO water_logs (id, user_id, date, ml, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (id) DO UPDATE SET date = EXCLUDED.date, ml = EXCLUDED.ml, updated_at = now()
        WHERE water_logs.user_id = EXCLUDED.user_id`

	upsertWeightSQL = `INSERT INTO weight_logs (id, user_id, date, weight, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (id) DO UPDATE SET date = EXCLUDED.date, weight = EXCLUDED.weight, updated_at = now()
        WHERE weight_logs.user_id = EXCLUDED.user_id`

	updateMoodSQL = `UPDATE fasting_logs SET mood = $1, updated_at = now() WHERE id = $2 AND user_id = $3`

	savePushSQL = `INSERT INTO push_subscriptions (user_id, endpoint, subscription)
        VALUES ($1, $2, $3)
        ON CONFLICT (endpoint) DO UPDATE SET user_id = EXCLUDED.user_id, subscription = EXCLUDED.subscription`
)

// Store is the Postgres sync target.
type Store struct {
	pool        *pgxpool.Pool
	defaultUser string
}

var _ remote.Store = (*Store)(nil)

// NewStore wraps pool. defaultUser tags writes whose context carries no
// user, as in single-user direct mode; leave it empty to require one.
func NewStore(pool *pgxpool.Pool, defaultUser string) *Store {
	return &Store{pool: pool, defaultUser: defaultUser}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn, defaultUser string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStore(pool, defaultUser), nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies the embedded remote schema migrations with goose.
func (s *Store) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations.Remote, "remote")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// UpsertFasting writes every log in one implicit transaction.
func (s *Store) UpsertFasting(ctx context.Context, logs []types.FastingLog) error {
	user, err := s.user(ctx)
	if err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(upsertFastingSQL, l.ID, user, l.Start, l.End, string(l.Status), l.TargetHours, nullable(l.Mood))
	}
	return s.send(ctx, batch, "fasting")
}

// UpsertWater writes every log in one implicit transaction.
func (s *Store) UpsertWater(ctx context.Context, logs []types.WaterLog) error {
	user, err := s.user(ctx)
	if err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, l := range logs {
		day, err := l.Date.Time(time.UTC)
		if err != nil {
			return types.Invalid("date", "must be a calendar day")
		}
		batch.Queue(upsertWaterSQL, l.ID, user, day, l.ML)
	}
	return s.send(ctx, batch, "water")
}

// UpsertWeight writes every log in one implicit transaction.
func (s *Store) UpsertWeight(ctx context.Context, logs []types.WeightLog) error {
	user, err := s.user(ctx)
	if err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, l := range logs {
		day, err := l.Date.Time(time.UTC)
		if err != nil {
			return types.Invalid("date", "must be a calendar day")
		}
		batch.Queue(upsertWeightSQL, l.ID, user, day, l.Weight)
	}
	return s.send(ctx, batch, "weight")
}

// UpdateMood sets the mood of one of the user's fasting logs.
func (s *Store) UpdateMood(ctx context.Context, id, mood string) error {
	user, err := s.user(ctx)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, updateMoodSQL, mood, id, user)
	if err != nil {
		return fmt.Errorf("update mood: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fasting log %s: %w", id, remote.ErrNotFound)
	}
	return nil
}

// SavePushSubscription stores the descriptor, replacing any row with the same endpoint.
func (s *Store) SavePushSubscription(ctx context.Context, sub remote.PushSubscription) error {
	user := sub.UserID
	if user == "" {
		user, _ = remote.UserIDFrom(ctx)
	}
	_, err := s.pool.Exec(ctx, savePushSQL, nullable(user), nullable(sub.Endpoint()), []byte(sub.Subscription))
	if err != nil {
		return fmt.Errorf("save push subscription: %w", err)
	}
	return nil
}

func (s *Store) send(ctx context.Context, batch *pgx.Batch, family string) error {
	if batch.Len() == 0 {
		return nil
	}
	br := s.pool.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert %s: %w", family, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("upsert %s: %w", family, err)
	}
	return nil
}

func (s *Store) user(ctx context.Context) (string, error) {
	if id, ok := remote.UserIDFrom(ctx); ok {
		return id, nil
	}
	if s.defaultUser != "" {
		return s.defaultUser, nil
	}
	return "", remote.ErrNoUser
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
