package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kaksaab/club-event-ticketing/internal/model"
)

// BookingRepo provides persistence for bookings.  Creation and
// cancellation only happen inside ledger transactions, which is why the
// mutating methods take a *sql.Tx; plain reads run on the pool handle.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a booking in CONFIRMED status within the scope of an
// existing transaction and populates the generated ID and timestamps on
// the provided record.  The caller must commit or rollback.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, event_id, seat_number, status) VALUES (?, ?, ?, 'CONFIRMED')`
	result, err := tx.ExecContext(ctx, q, b.UserID, b.EventID, b.SeatNumber)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT id, user_id, event_id, seat_number, status, booked_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.SeatNumber, &b.Status, &b.BookedAt, &b.UpdatedAt,
	)
}

// GetOwnedTx loads a booking by id and owner within the transaction.
// Filtering by both id and user_id in one query means a missing booking
// and a foreign booking are indistinguishable to the caller: both yield
// ErrBookingNotFound.  The read takes no row lock; the status-guarded
// UPDATE in MarkCancelledTx is what serializes concurrent cancels.
func (r *BookingRepo) GetOwnedTx(ctx context.Context, tx *sql.Tx, bookingID, userID uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, event_id, seat_number, status, booked_at, updated_at
               FROM bookings
               WHERE id = ? AND user_id = ?`
	var b model.Booking
	err := tx.QueryRowContext(ctx, q, bookingID, userID).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.SeatNumber, &b.Status, &b.BookedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// MarkCancelledTx flips a CONFIRMED booking to CANCELLED within the
// transaction.  The status predicate in the UPDATE makes the transition
// one-way at the store level: a second cancel affects zero rows and
// reports ErrConflict instead of incrementing the seat counter again.
func (r *BookingRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status='CANCELLED' WHERE id = ? AND status='CONFIRMED'", bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// CountConfirmed returns the number of CONFIRMED bookings for an event.
// Together with the event counters this expresses the ledger invariant
// total_seats - available_seats == confirmed count.
func (r *BookingRepo) CountConfirmed(ctx context.Context, eventID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status='CONFIRMED'", eventID).Scan(&n)
	return n, err
}

// UserBookingDetail is a booking joined with its event and club, shaped
// for the "my bookings" listing.
type UserBookingDetail struct {
	ID         uint64    `json:"id"`
	EventID    uint64    `json:"event_id"`
	SeatNumber string    `json:"seat_number"`
	Status     string    `json:"status"`
	BookedAt   time.Time `json:"booked_at"`
	EventTitle string    `json:"event_title"`
	EventDate  time.Time `json:"event_date"`
	EventTime  string    `json:"event_time"`
	Venue      string    `json:"venue"`
	ClubID     uint64    `json:"club_id"`
	ClubName   string    `json:"club_name"`
}

// ListByUser returns all bookings of one user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]UserBookingDetail, error) {
	const q = `SELECT b.id, b.event_id, b.seat_number, b.status, b.booked_at,
                      e.title, e.date, e.time, e.venue, c.id, c.name
               FROM bookings b
               JOIN events e ON e.id = b.event_id
               JOIN clubs c ON c.id = e.club_id
               WHERE b.user_id = ?
               ORDER BY b.booked_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]UserBookingDetail, 0)
	for rows.Next() {
		var d UserBookingDetail
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.SeatNumber, &d.Status, &d.BookedAt,
			&d.EventTitle, &d.EventDate, &d.EventTime, &d.Venue, &d.ClubID, &d.ClubName,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// EventBookingDetail is a booking joined with its user, shaped for the
// admin view of an event's attendee list.
type EventBookingDetail struct {
	ID         uint64    `json:"id"`
	SeatNumber string    `json:"seat_number"`
	Status     string    `json:"status"`
	BookedAt   time.Time `json:"booked_at"`
	UserID     uint64    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
}

// ListByEvent returns all bookings taken for an event, newest first.
// Returns ErrEventNotFound when the event does not exist so the handler
// can distinguish "no bookings" from "no event".
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]EventBookingDetail, error) {
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ?", eventID).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	const q = `SELECT b.id, b.seat_number, b.status, b.booked_at, u.id, u.name, u.email
               FROM bookings b
               JOIN users u ON u.id = b.user_id
               WHERE b.event_id = ?
               ORDER BY b.booked_at DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]EventBookingDetail, 0)
	for rows.Next() {
		var d EventBookingDetail
		if err := rows.Scan(&d.ID, &d.SeatNumber, &d.Status, &d.BookedAt, &d.UserID, &d.UserName, &d.UserEmail); err != nil {
			return nil, err
		}
		bookings = append(bookings, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
