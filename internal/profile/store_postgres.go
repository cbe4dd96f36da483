package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed profile Store over the profiles table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed profile store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, uid string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var p Profile
	var paid []byte
	err := s.pool.QueryRow(ctx,
		`SELECT uid, email, display_name, paid_classes, streams, role, signup_date
		 FROM profiles
		 WHERE uid = $1`,
		uid,
	).Scan(&p.UID, &p.Email, &p.DisplayName, &paid, &p.Streams, &p.Role, &p.SignupDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, uid)
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}

	if len(paid) > 0 {
		if err := json.Unmarshal(paid, &p.PaidClasses); err != nil {
			return Profile{}, fmt.Errorf("decode paid classes: %w", err)
		}
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p Profile) (bool, error) {
	if p.UID == "" {
		return false, fmt.Errorf("uid is required")
	}

	paid, err := json.Marshal(p.PaidClasses)
	if err != nil {
		return false, fmt.Errorf("marshal paid classes: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (uid, email, display_name, paid_classes, streams, role, signup_date)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)
		 ON CONFLICT (uid) DO NOTHING`,
		p.UID,
		p.Email,
		p.DisplayName,
		string(paid),
		p.Streams,
		p.Role,
		p.SignupDate,
	)
	if err != nil {
		return false, fmt.Errorf("create profile: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) SetRole(ctx context.Context, uid, role string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET role = $2 WHERE uid = $1`,
		uid,
		role,
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return nil
}
