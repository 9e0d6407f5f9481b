package journey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("JOURNEY_NOT_FOUND")

const schema = `
CREATE TABLE IF NOT EXISTS journeys (
	id            UUID PRIMARY KEY,
	user_id       TEXT NOT NULL,
	source        TEXT NOT NULL,
	from_location TEXT NOT NULL DEFAULT '',
	to_location   TEXT NOT NULL DEFAULT '',
	move_date     TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS journey_tasks (
	journey_id  UUID NOT NULL REFERENCES journeys(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	task_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL DEFAULT 'medium',
	timeframe   TEXT NOT NULL DEFAULT '',
	week        INTEGER NOT NULL DEFAULT 0,
	category    TEXT NOT NULL DEFAULT '',
	phase       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (journey_id, task_id)
);

CREATE INDEX IF NOT EXISTS idx_journeys_user_created ON journeys(user_id, created_at DESC);
`

// Repository stores journeys in Postgres.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// EnsureSchema creates the journey tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create journey schema: %w", err)
	}
	return nil
}

// Save inserts j and its tasks in one transaction, assigning an id and
// creation time when blank.
func (r *Repository) Save(ctx context.Context, j *Journey) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = r.now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journey tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journeys (id, user_id, source, from_location, to_location, move_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		j.ID, j.UserID, j.Source, j.FromLocation, j.ToLocation, j.MoveDate, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert journey: %w", err)
	}

	for i, t := range j.Tasks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO journey_tasks (journey_id, position, task_id, title, description, priority, timeframe, week, category, phase)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			j.ID, i, t.ID, t.Title, t.Description, string(t.Priority), t.Timeframe, t.Week, t.Category, t.Phase,
		)
		if err != nil {
			return fmt.Errorf("insert journey task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journey: %w", err)
	}
	return nil
}

// Latest returns the most recent journey for userID.
func (r *Repository) Latest(ctx context.Context, userID string) (*Journey, error) {
	var j Journey
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, source, from_location, to_location, move_date, created_at
		FROM journeys WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1`, userID,
	).Scan(&j.ID, &j.UserID, &j.Source, &j.FromLocation, &j.ToLocation, &j.MoveDate, &j.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query journey: %w", err)
	}

	if j.Tasks, err = r.tasks(ctx, j.ID); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repository) tasks(ctx context.Context, journeyID string) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT task_id, title, description, priority, timeframe, week, category, phase
		FROM journey_tasks WHERE journey_id = $1
		ORDER BY position`, journeyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query journey tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		var priority string
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &priority, &t.Timeframe, &t.Week, &t.Category, &t.Phase); err != nil {
			return nil, fmt.Errorf("scan journey task: %w", err)
		}
		t.Priority = ParsePriority(priority)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
