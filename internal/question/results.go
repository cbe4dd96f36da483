package question

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ready4exam/worksheet/internal/quiz"
)

// MemoryResultStore keeps submitted results in memory.
type MemoryResultStore struct {
	mu      sync.Mutex
	results []quiz.Result
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{}
}

func (m *MemoryResultStore) SaveResult(_ context.Context, r quiz.Result) error {
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	m.mu.Lock()
	m.results = append(m.results, r)
	m.mu.Unlock()
	return nil
}

// Results returns a copy of the saved results.
func (m *MemoryResultStore) Results() []quiz.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]quiz.Result{}, m.results...)
}

// PostgresResultStore inserts submitted results into quiz_results.
type PostgresResultStore struct {
	pool *pgxpool.Pool
}

func NewPostgresResultStore(pool *pgxpool.Pool) *PostgresResultStore {
	return &PostgresResultStore{pool: pool}
}

func (s *PostgresResultStore) SaveResult(ctx context.Context, r quiz.Result) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("result store pool is nil")
	}
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	summary, err := json.Marshal(r.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	answers := r.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	answerData, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_results (session_id, user_id, class, subject, topic_id, difficulty,
		                           score, total, summary, answers, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11)`,
		r.SessionID,
		r.UserID,
		r.Descriptor.Class,
		r.Descriptor.Subject,
		r.Descriptor.Topic,
		r.Descriptor.Difficulty,
		r.Score,
		r.Total,
		string(summary),
		string(answerData),
		createdAt,
	); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	slog.Debug("result saved",
		"session_id", r.SessionID,
		"user_id", r.UserID,
		"score", r.Score,
		"total", r.Total,
	)
	return nil
}
