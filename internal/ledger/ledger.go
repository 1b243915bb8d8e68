// Package ledger holds the seat-inventory logic: every mutation of an
// event's available_seats counter runs through here, inside a single
// database transaction, so the invariant
//
//	0 <= available_seats <= total_seats
//	total_seats - available_seats == count(CONFIRMED bookings)
//
// holds under concurrent requests and across service instances.  The
// serialization point for reservations is a conditional UPDATE on the
// event row; for cancellations it is the status-guarded UPDATE on the
// booking row, and resizes take a SELECT ... FOR UPDATE row lock.  Every
// path touches the event row before the booking rows so transactions
// cannot deadlock against each other.  An in-process counter would break
// the invariant as soon as a second instance of the server is started.
package ledger

import (
	"context"
	"database/sql"

	"github.com/kaksaab/club-event-ticketing/internal/model"
	"github.com/kaksaab/club-event-ticketing/internal/repository"
)

// Ledger coordinates seat counters and booking rows.  It owns the
// transactions for reserve/release; capacity resizes join the caller's
// transaction because they are part of the event update flow.
type Ledger struct {
	db       *sql.DB
	bookings *repository.BookingRepo
}

// New returns a Ledger bound to the given database and booking repo.
func New(db *sql.DB, bookings *repository.BookingRepo) *Ledger {
	if db == nil || bookings == nil {
		panic("nil dependency passed to ledger.New")
	}
	return &Ledger{db: db, bookings: bookings}
}

// Reserve books one seat of an event for a user as a single atomic unit:
// decrement the counter, then create the CONFIRMED booking row.  The
// conditional UPDATE only matches while the event is ACTIVE and has
// seats left, so when two requests race on the last seat exactly one of
// them affects a row; the loser sees zero rows and fails with
// repository.ErrNoSeats.  Any error rolls the whole unit back.
func (l *Ledger) Reserve(ctx context.Context, eventID, userID uint64, seatNumber string) (*model.Booking, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE events SET available_seats = available_seats - 1
         WHERE id = ? AND status = 'ACTIVE' AND available_seats > 0`, eventID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Either the event is missing or it has no bookable seat.
		// Look at the row inside the same transaction to tell the two
		// apart for the caller.
		var status string
		err := tx.QueryRowContext(ctx, "SELECT status FROM events WHERE id = ?", eventID).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, repository.ErrEventNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, repository.ErrNoSeats
	}

	booking := &model.Booking{
		UserID:     userID,
		EventID:    eventID,
		SeatNumber: seatNumber,
	}
	if err := l.bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return booking, nil
}

// Release cancels a CONFIRMED booking owned by userID and gives the seat
// back to the event, capped at total_seats.  A booking that does not
// exist and a booking owned by someone else both surface as
// repository.ErrBookingNotFound; cancelling an already cancelled booking
// is repository.ErrConflict and never touches the counter.  The
// cancelled booking is returned for event publishing.
//
// The event counter is incremented before the booking row is flipped so
// the lock order (event row, then booking row) matches Reserve's; a
// failed status flip rolls the increment back with the transaction.
func (l *Ledger) Release(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := l.bookings.GetOwnedTx(ctx, tx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	// The read above is unlocked, so this gate can act on a stale
	// CONFIRMED; MarkCancelledTx below settles the race authoritatively.
	if !booking.Status.CanTransition(model.BookingCancelled) {
		return nil, repository.ErrConflict
	}
	// LEAST caps the counter at capacity; after a resize-down there can
	// be more confirmed bookings than total seats, and releasing one of
	// them must not push available past the new ceiling.
	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET available_seats = LEAST(available_seats + 1, total_seats)
         WHERE id = ?`, booking.EventID); err != nil {
		return nil, err
	}
	if err := l.bookings.MarkCancelledTx(ctx, tx, booking.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	booking.Status = model.BookingCancelled
	return booking, nil
}

// ResizeTx changes an event's capacity within the caller's transaction.
// Booked seats are derived from the current counters under a row lock,
// then available_seats is recomputed as max(0, newTotal - booked).
// Existing bookings are never auto-cancelled: shrinking below the booked
// count simply leaves zero seats available, and the surplus is the
// admin's responsibility.  Returns repository.ErrEventNotFound when the
// event does not exist.
func (l *Ledger) ResizeTx(ctx context.Context, tx *sql.Tx, eventID uint64, newTotal uint32) error {
	var total, available uint32
	err := tx.QueryRowContext(ctx,
		"SELECT total_seats, available_seats FROM events WHERE id = ? FOR UPDATE",
		eventID).Scan(&total, &available)
	if err == sql.ErrNoRows {
		return repository.ErrEventNotFound
	}
	if err != nil {
		return err
	}
	newTotal, newAvailable := model.ResizeSeats(total, available, newTotal)
	_, err = tx.ExecContext(ctx,
		"UPDATE events SET total_seats = ?, available_seats = ? WHERE id = ?",
		newTotal, newAvailable, eventID)
	return err
}
