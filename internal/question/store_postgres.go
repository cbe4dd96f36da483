package question

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store and Writer over the questions
// table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed question store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) FetchRecords(ctx context.Context, topicID, difficulty string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, topic_id, difficulty, question_type, question_text, scenario_reason,
		        option_a, option_b, option_c, option_d, correct_answer
		 FROM questions
		 WHERE topic_id = $1 AND lower(difficulty) = lower($2)
		 ORDER BY position, id`,
		topicID,
		difficulty,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID,
			&r.TopicID,
			&r.Difficulty,
			&r.QuestionType,
			&r.QuestionText,
			&r.ScenarioReasonText,
			&r.OptionA,
			&r.OptionB,
			&r.OptionC,
			&r.OptionD,
			&r.CorrectAnswer,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return records, nil
}

// Upsert writes records in one transaction. Option text from the options map
// is flattened into the option columns.
func (s *PostgresStore) Upsert(ctx context.Context, records []Record) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := recordIDs(records)
	batch := &pgx.Batch{}
	for i, r := range records {
		if r.TopicID == "" {
			return 0, fmt.Errorf("record %d: topic_id is required", i+1)
		}
		batch.Queue(
			`INSERT INTO questions (id, topic_id, difficulty, position, question_type, question_text,
			                        scenario_reason, option_a, option_b, option_c, option_d, correct_answer)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (topic_id, difficulty, id) DO UPDATE SET
			   position = EXCLUDED.position,
			   question_type = EXCLUDED.question_type,
			   question_text = EXCLUDED.question_text,
			   scenario_reason = EXCLUDED.scenario_reason,
			   option_a = EXCLUDED.option_a,
			   option_b = EXCLUDED.option_b,
			   option_c = EXCLUDED.option_c,
			   option_d = EXCLUDED.option_d,
			   correct_answer = EXCLUDED.correct_answer,
			   updated_at = NOW()`,
			ids[i],
			r.TopicID,
			r.Difficulty,
			i,
			r.QuestionType,
			r.Body(),
			r.Scenario(),
			r.Option("A"),
			r.Option("B"),
			r.Option("C"),
			r.Option("D"),
			firstNonEmpty(r.CorrectAnswer, r.CorrectAnswerKey),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert questions: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(records), nil
}
