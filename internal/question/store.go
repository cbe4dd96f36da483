package question

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/ready4exam/worksheet/internal/quiz"
)

// Store reads raw question records for a topic and difficulty.
type Store interface {
	FetchRecords(ctx context.Context, topicID, difficulty string) ([]Record, error)
}

// Writer persists imported records. Records are keyed by topic, difficulty
// and id; existing rows are replaced.
type Writer interface {
	Upsert(ctx context.Context, records []Record) (int, error)
}

// Source adapts a Store to the quiz engine by normalizing fetched records.
type Source struct {
	store Store
}

// NewSource creates a question source backed by store.
func NewSource(store Store) *Source {
	return &Source{store: store}
}

// FetchQuestions fetches and normalizes the question set.
func (s *Source) FetchQuestions(ctx context.Context, topicID, difficulty string) ([]quiz.Question, error) {
	if topicID == "" {
		return nil, fmt.Errorf("no worksheet selected")
	}
	records, err := s.store.FetchRecords(ctx, topicID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return Normalize(records), nil
}

// MemoryStore is an in-memory Store and Writer. Sets are ordered like the
// Postgres store: by position in the latest import, then by id.
type MemoryStore struct {
	sets map[string][]storedRecord
	mu   sync.RWMutex
}

type storedRecord struct {
	Record
	position int
}

// NewMemoryStore creates an empty in-memory question store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets: make(map[string][]storedRecord),
	}
}

func (m *MemoryStore) FetchRecords(_ context.Context, topicID, difficulty string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.sets[setKey(topicID, difficulty)]
	records := make([]Record, len(set))
	for i, s := range set {
		records[i] = s.Record
	}
	return records, nil
}

func (m *MemoryStore) Upsert(_ context.Context, records []Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range records {
		if r.TopicID == "" {
			return 0, fmt.Errorf("record %d: topic_id is required", i+1)
		}
	}

	ids := recordIDs(records)
	for i, r := range records {
		r.ID = ids[i]
		key := setKey(r.TopicID, r.Difficulty)
		set := m.sets[key]
		idx := slices.IndexFunc(set, func(s storedRecord) bool { return s.ID == r.ID })
		if idx >= 0 {
			set[idx] = storedRecord{Record: r, position: i}
		} else {
			set = append(set, storedRecord{Record: r, position: i})
		}
		m.sets[key] = set
	}

	for key, set := range m.sets {
		sort.SliceStable(set, func(a, b int) bool {
			if set[a].position != set[b].position {
				return set[a].position < set[b].position
			}
			return set[a].ID < set[b].ID
		})
		m.sets[key] = set
	}
	return len(records), nil
}

func setKey(topicID, difficulty string) string {
	return topicID + "|" + strings.ToLower(difficulty)
}
