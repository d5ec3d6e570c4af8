package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	query := `SELECT id, transcript, state, created_at, updated_at FROM companion_sessions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	var s Snapshot
	var transcriptJSON, stateJSON []byte

	err := row.Scan(
		&s.ID,
		&transcriptJSON,
		&stateJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if len(transcriptJSON) > 0 {
		if err := json.Unmarshal(transcriptJSON, &s.Transcript); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
		}
	}
	if len(stateJSON) > 0 {
		if err := json.Unmarshal(stateJSON, &s.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state: %w", err)
		}
	}

	return &s, nil
}

func (r *postgresRepo) Save(ctx context.Context, s *Snapshot) error {
	transcriptJSON, err := json.Marshal(s.Transcript)
	if err != nil {
		return err
	}
	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return err
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()

	query := `
		INSERT INTO companion_sessions (id, transcript, state, phase, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			transcript = $2,
			state = $3,
			phase = $4,
			updated_at = $6
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, transcriptJSON, stateJSON, string(s.State.Phase), s.CreatedAt, s.UpdatedAt)
	return err
}

// memoryRepo keeps snapshots in process memory. Stored values are copies.
type memoryRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Snapshot
}

func NewMemoryRepository() Repository {
	return &memoryRepo{sessions: make(map[uuid.UUID]Snapshot)}
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := copySnapshot(s)
	return &c, nil
}

func (r *memoryRepo) Save(_ context.Context, s *Snapshot) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = copySnapshot(*s)
	return nil
}

func copySnapshot(s Snapshot) Snapshot {
	c := s
	c.Transcript = append([]Message{}, s.Transcript...)
	c.State = s.State.clone()
	return c
}
