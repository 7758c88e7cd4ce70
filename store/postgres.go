package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens and pings a pgx pool.
func Connect(ctx context.Context, databaseURL string, maxConns int) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresStore implements Store on the jobs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, job *Job) error {
	if err := prepareCreate(job); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, user_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.UserID, string(job.Status), job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	var j Job
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, status, COALESCE(public_url, ''), COALESCE(storage_path, ''),
		        COALESCE(error_message, ''), created_at, updated_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.UserID, &status, &j.PublicURL, &j.StoragePath, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	j.Status = Status(status)
	return &j, nil
}

func (s *PostgresStore) Finish(ctx context.Context, id string, result Result) error {
	if err := result.validate(); err != nil {
		return err
	}

	// The status guard makes the terminal write happen at most once.
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs
		 SET status = $2, public_url = NULLIF($3, ''), storage_path = NULLIF($4, ''),
		     error_message = NULLIF($5, ''), updated_at = $6
		 WHERE id = $1 AND status = $7`,
		id, string(result.Status), result.PublicURL, result.StoragePath, result.Error,
		time.Now().UTC(), string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyFinished
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
