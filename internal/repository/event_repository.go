package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/kaksaab/club-event-ticketing/internal/model"
)

// EventRepo provides CRUD operations for events.  Seat counters
// (total_seats / available_seats) are written here only on creation; every
// later mutation of the counters goes through the ledger package so the
// seat invariant stays in one place.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// ClubRef is the slice of club information embedded in event responses.
type ClubRef struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

// EventDetail is an event row joined with its owning club, shaped for
// API responses.
type EventDetail struct {
	model.Event
	Club ClubRef `json:"club"`
}

const eventDetailColumns = `e.id, e.club_id, e.title, e.description, e.poster_url, e.venue,
           e.date, e.time, e.category, e.price_cents, e.total_seats, e.available_seats,
           e.status, e.created_at, e.updated_at, c.id, c.name, c.logo_url`

func scanEventDetail(row interface{ Scan(...any) error }) (*EventDetail, error) {
	var d EventDetail
	err := row.Scan(
		&d.ID, &d.ClubID, &d.Title, &d.Description, &d.PosterURL, &d.Venue,
		&d.Date, &d.Time, &d.Category, &d.PriceCents, &d.TotalSeats, &d.AvailableSeats,
		&d.Status, &d.CreatedAt, &d.UpdatedAt, &d.Club.ID, &d.Club.Name, &d.Club.LogoURL,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// NewEvent carries the fields required to publish an event.  The
// available counter always starts equal to the capacity.
type NewEvent struct {
	ClubID      uint64
	Title       string
	Description string
	PosterURL   string
	Venue       string
	Date        time.Time
	Time        string
	Category    string
	PriceCents  uint32
	TotalSeats  uint32
}

// Create inserts an event in ACTIVE status with a full seat counter and
// returns the stored row joined with its club.
func (r *EventRepo) Create(ctx context.Context, ev NewEvent) (*EventDetail, error) {
	const q = `INSERT INTO events
        (club_id, title, description, poster_url, venue, date, time, category,
         price_cents, total_seats, available_seats, status)
        VALUES (?,?,?,?,?,?,?,?,?,?,?, 'ACTIVE')`
	res, err := r.db.ExecContext(ctx, q,
		ev.ClubID, ev.Title, ev.Description, ev.PosterURL, ev.Venue,
		ev.Date, ev.Time, ev.Category, ev.PriceCents, ev.TotalSeats, ev.TotalSeats)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns a single event with its club.  ErrEventNotFound is
// returned when the id does not resolve to a row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*EventDetail, error) {
	q := `SELECT ` + eventDetailColumns + `
          FROM events e
          JOIN clubs c ON c.id = e.club_id
          WHERE e.id = ?`
	d, err := scanEventDetail(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// EventFilter holds the optional query filters of the public listing.
// Search matches title or description case-insensitively; DateFrom is a
// lower bound on the event date.
type EventFilter struct {
	Category string
	Search   string
	DateFrom *time.Time
}

// buildEventFilter translates an EventFilter into a WHERE fragment and
// its arguments.  Only ACTIVE events are ever listed publicly.
func buildEventFilter(f EventFilter) (string, []any) {
	where := []string{"e.status = 'ACTIVE'"}
	args := []any{}
	if f.Category != "" {
		where = append(where, "e.category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(e.title) LIKE ? OR LOWER(e.description) LIKE ?)")
		pat := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pat, pat)
	}
	if f.DateFrom != nil {
		where = append(where, "e.date >= ?")
		args = append(args, *f.DateFrom)
	}
	return strings.Join(where, " AND "), args
}

// List returns ACTIVE events matching the filter, soonest first.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]EventDetail, error) {
	cond, args := buildEventFilter(f)
	q := `SELECT ` + eventDetailColumns + `
          FROM events e
          JOIN clubs c ON c.id = e.club_id
          WHERE ` + cond + `
          ORDER BY e.date ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]EventDetail, 0)
	for rows.Next() {
		d, err := scanEventDetail(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ListByClub returns the ACTIVE events of one club, soonest first.  Used
// by the public club detail endpoint.
func (r *EventRepo) ListByClub(ctx context.Context, clubID uint64) ([]EventDetail, error) {
	q := `SELECT ` + eventDetailColumns + `
          FROM events e
          JOIN clubs c ON c.id = e.club_id
          WHERE e.club_id = ? AND e.status = 'ACTIVE'
          ORDER BY e.date ASC`
	rows, err := r.db.QueryContext(ctx, q, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]EventDetail, 0)
	for rows.Next() {
		d, err := scanEventDetail(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// EventPatch lists the optional descriptive fields of an event update.
// Nil pointers leave the column untouched.  Capacity changes are not part
// of the patch: they run through ledger.Resize inside the same
// transaction so the seat counters stay consistent.
type EventPatch struct {
	Title       *string
	Description *string
	PosterURL   *string
	Venue       *string
	Date        *time.Time
	Time        *string
	Category    *string
	PriceCents  *uint32
	Status      *string
}

// UpdateTx applies the non-nil fields of patch to the event within the
// given transaction.  Returns ErrEventNotFound when the event does not
// exist.  Calling it with an empty patch is a no-op.
func (r *EventRepo) UpdateTx(ctx context.Context, tx *sql.Tx, id uint64, patch EventPatch) error {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.PosterURL != nil {
		add("poster_url", *patch.PosterURL)
	}
	if patch.Venue != nil {
		add("venue", *patch.Venue)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.Time != nil {
		add("time", *patch.Time)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.PriceCents != nil {
		add("price_cents", *patch.PriceCents)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if len(set) == 0 {
		return nil
	}
	q := "UPDATE events SET " + strings.Join(set, ", ") + " WHERE id = ?"
	args = append(args, id)
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// RowsAffected is zero both for a missing row and for a no-change
	// update, so confirm existence before reporting not found.
	if n == 0 {
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ?", id).Scan(&one); err == sql.ErrNoRows {
			return ErrEventNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// ExistsTx reports whether the event exists, within a transaction.
func (r *EventRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes an event.  Bookings reference events with ON DELETE
// CASCADE, so dependent rows disappear with it.  Returns
// ErrEventNotFound when the id does not exist.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
