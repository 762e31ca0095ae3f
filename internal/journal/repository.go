package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout has fixed-width fractions so timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// DeviceEvent is one hardware thread lifecycle event.
type DeviceEvent struct {
	ID         int64     `json:"id"`
	Device     string    `json:"device"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LiveIntent records an effect scheduled from a live intent message.
type LiveIntent struct {
	ID         int64     `json:"id"`
	EffectID   string    `json:"effect_id"`
	Name       string    `json:"name"`
	Layer      int       `json:"layer"`
	Channels   int       `json:"channels"`
	ReceivedAt time.Time `json:"received_at"`
}

// Filter controls which device events to return.
type Filter struct {
	Device string // optional
	Kind   string // optional: started, stopped, fault, timeout
	Limit  int    // default 50, max 200
	Offset int
}

// ListResult contains a page of device events.
type ListResult struct {
	Events []DeviceEvent `json:"events"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Repository defines the journal operations.
type Repository interface {
	RecordDeviceEvent(ctx context.Context, ev *DeviceEvent) error
	ListDeviceEvents(ctx context.Context, filter Filter) (*ListResult, error)
	RecordLiveIntent(ctx context.Context, li *LiveIntent) error
	ListLiveIntents(ctx context.Context, limit int) ([]LiveIntent, error)
}

// SQLiteRepository stores the journal in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a journal repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordDeviceEvent inserts ev, filling ID and a zero OccurredAt.
func (r *SQLiteRepository) RecordDeviceEvent(ctx context.Context, ev *DeviceEvent) error {
	if ev.Device == "" || ev.Kind == "" {
		return ErrInvalidEvent
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO device_events (device, kind, message, occurred_at) VALUES (?, ?, ?, ?)`,
		ev.Device, ev.Kind, ev.Message, ev.OccurredAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting device event: %w", err)
	}
	if ev.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading device event id: %w", err)
	}
	return nil
}

// ListDeviceEvents returns events matching filter, most recent first.
func (r *SQLiteRepository) ListDeviceEvents(ctx context.Context, filter Filter) (*ListResult, error) {
	filter.Limit = clampLimit(filter.Limit)
	filter.Offset = max(filter.Offset, 0)

	var (
		conditions []string
		args       []any
	)
	if filter.Device != "" {
		conditions = append(conditions, "device = ?")
		args = append(args, filter.Device)
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM device_events " + where //nolint:gosec // WHERE built from parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting device events: %w", err)
	}

	query := "SELECT id, device, kind, message, occurred_at FROM device_events " + where + //nolint:gosec // WHERE built from parameterised conditions
		" ORDER BY occurred_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying device events: %w", err)
	}
	defer rows.Close()

	events := []DeviceEvent{}
	for rows.Next() {
		var (
			ev DeviceEvent
			at string
		)
		if err := rows.Scan(&ev.ID, &ev.Device, &ev.Kind, &ev.Message, &at); err != nil {
			return nil, fmt.Errorf("scanning device event: %w", err)
		}
		if ev.OccurredAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parsing device event timestamp %q: %w", at, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device events: %w", err)
	}

	return &ListResult{Events: events, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// RecordLiveIntent inserts li, filling ID and a zero ReceivedAt.
func (r *SQLiteRepository) RecordLiveIntent(ctx context.Context, li *LiveIntent) error {
	if li.EffectID == "" {
		return ErrInvalidEvent
	}
	if li.ReceivedAt.IsZero() {
		li.ReceivedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO live_intents (effect_id, name, layer, channels, received_at) VALUES (?, ?, ?, ?, ?)`,
		li.EffectID, li.Name, li.Layer, li.Channels, li.ReceivedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting live intent: %w", err)
	}
	if li.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading live intent id: %w", err)
	}
	return nil
}

// ListLiveIntents returns the most recent live intents, newest first.
func (r *SQLiteRepository) ListLiveIntents(ctx context.Context, limit int) ([]LiveIntent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, effect_id, name, layer, channels, received_at FROM live_intents
		 ORDER BY received_at DESC, id DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying live intents: %w", err)
	}
	defer rows.Close()

	intents := []LiveIntent{}
	for rows.Next() {
		var (
			li LiveIntent
			at string
		)
		if err := rows.Scan(&li.ID, &li.EffectID, &li.Name, &li.Layer, &li.Channels, &at); err != nil {
			return nil, fmt.Errorf("scanning live intent: %w", err)
		}
		if li.ReceivedAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parsing live intent timestamp %q: %w", at, err)
		}
		intents = append(intents, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating live intents: %w", err)
	}
	return intents, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}
