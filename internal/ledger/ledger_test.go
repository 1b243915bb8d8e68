package ledger

// Integration tests for the seat ledger. They need a real MySQL instance
// because the whole point of the ledger is store-level serialization;
// set TICKETING_TEST_MYSQL_DSN (e.g. "root@tcp(127.0.0.1:3306)/ticketing_test?parseTime=true&loc=UTC")
// to run them, otherwise they are skipped.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/kaksaab/club-event-ticketing/internal/model"
	"github.com/kaksaab/club-event-ticketing/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TICKETING_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TICKETING_TEST_MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range testSchema {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	for _, table := range []string{"bookings", "events", "clubs", "users"} {
		_, err := db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}
	return db
}

var testSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		role ENUM('USER','ADMIN') NOT NULL DEFAULT 'USER',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY users_email_unique (email)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS clubs (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		admin_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		logo_url VARCHAR(512) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		club_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		poster_url VARCHAR(512) NOT NULL DEFAULT '',
		venue VARCHAR(255) NOT NULL DEFAULT '',
		date DATETIME NOT NULL,
		time VARCHAR(32) NOT NULL DEFAULT '',
		category VARCHAR(64) NOT NULL DEFAULT '',
		price_cents INT UNSIGNED NOT NULL DEFAULT 0,
		total_seats INT UNSIGNED NOT NULL,
		available_seats INT UNSIGNED NOT NULL,
		status ENUM('ACTIVE','CANCELLED','COMPLETED') NOT NULL DEFAULT 'ACTIVE',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		event_id BIGINT UNSIGNED NOT NULL,
		seat_number VARCHAR(32) NOT NULL DEFAULT '',
		status ENUM('CONFIRMED','CANCELLED') NOT NULL DEFAULT 'CONFIRMED',
		booked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,
}

type fixture struct {
	db       *sql.DB
	ledger   *Ledger
	bookings *repository.BookingRepo
	clubID   uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	bookings := repository.NewBookingRepo(db)
	ctx := context.Background()

	res, err := db.ExecContext(ctx,
		"INSERT INTO users (name, email, role) VALUES ('Chess Club Admin', 'admin@test.local', 'ADMIN')")
	require.NoError(t, err)
	adminID, err := res.LastInsertId()
	require.NoError(t, err)

	res, err = db.ExecContext(ctx,
		"INSERT INTO clubs (admin_id, name, description) VALUES (?, 'Chess Club', 'we play chess')", adminID)
	require.NoError(t, err)
	clubID, err := res.LastInsertId()
	require.NoError(t, err)

	return &fixture{
		db:       db,
		ledger:   New(db, bookings),
		bookings: bookings,
		clubID:   uint64(clubID),
	}
}

func (f *fixture) newUser(t *testing.T, email string) uint64 {
	t.Helper()
	res, err := f.db.ExecContext(context.Background(),
		"INSERT INTO users (name, email) VALUES (?, ?)", email, email)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

func (f *fixture) newEvent(t *testing.T, totalSeats uint32, status string) uint64 {
	t.Helper()
	res, err := f.db.ExecContext(context.Background(),
		`INSERT INTO events (club_id, title, description, date, total_seats, available_seats, status)
		 VALUES (?, 'Test Event', '', NOW() + INTERVAL 7 DAY, ?, ?, ?)`,
		f.clubID, totalSeats, totalSeats, status)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

func (f *fixture) seats(t *testing.T, eventID uint64) (total, available uint32) {
	t.Helper()
	err := f.db.QueryRowContext(context.Background(),
		"SELECT total_seats, available_seats FROM events WHERE id=?", eventID).
		Scan(&total, &available)
	require.NoError(t, err)
	return total, available
}

// requireInvariant checks both ledger invariants for an event: counter
// bounds and conservation against the confirmed booking count.
func (f *fixture) requireInvariant(t *testing.T, eventID uint64) {
	t.Helper()
	total, available := f.seats(t, eventID)
	require.LessOrEqual(t, available, total)
	confirmed, err := f.bookings.CountConfirmed(context.Background(), eventID)
	require.NoError(t, err)
	require.Equal(t, int64(total-available), confirmed)
}

func TestReserveDecrementsAndConfirms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 2, "ACTIVE")
	userID := f.newUser(t, "u1@test.local")

	b, err := f.ledger.Reserve(ctx, eventID, userID, "A1")
	require.NoError(t, err)
	require.Equal(t, model.BookingConfirmed, b.Status)
	require.Equal(t, eventID, b.EventID)
	require.Equal(t, userID, b.UserID)
	require.Equal(t, "A1", b.SeatNumber)
	require.False(t, b.BookedAt.IsZero())

	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(1), available)
	f.requireInvariant(t, eventID)
}

func TestReserveMissingEvent(t *testing.T) {
	f := newFixture(t)
	userID := f.newUser(t, "u1@test.local")

	_, err := f.ledger.Reserve(context.Background(), 999999, userID, "A1")
	require.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestReserveInactiveEvent(t *testing.T) {
	f := newFixture(t)
	eventID := f.newEvent(t, 5, "CANCELLED")
	userID := f.newUser(t, "u1@test.local")

	_, err := f.ledger.Reserve(context.Background(), eventID, userID, "A1")
	require.ErrorIs(t, err, repository.ErrNoSeats)
	f.requireInvariant(t, eventID)
}

func TestReserveSoldOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 1, "ACTIVE")
	u1 := f.newUser(t, "u1@test.local")
	u2 := f.newUser(t, "u2@test.local")

	_, err := f.ledger.Reserve(ctx, eventID, u1, "A1")
	require.NoError(t, err)

	_, err = f.ledger.Reserve(ctx, eventID, u2, "A2")
	require.ErrorIs(t, err, repository.ErrNoSeats)

	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(0), available)
	f.requireInvariant(t, eventID)
}

// TestReserveRace fires N concurrent reservations at an event with a
// single remaining seat: exactly one must win, the rest must fail with
// ErrNoSeats, and the counter must land on zero.
func TestReserveRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 1, "ACTIVE")

	const attempts = 16
	userIDs := make([]uint64, attempts)
	for i := range userIDs {
		userIDs[i] = f.newUser(t, fmt.Sprintf("racer%d@test.local", i))
	}

	var wg sync.WaitGroup
	var successes, capacityFailures int64
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(userID uint64, seat string) {
			defer wg.Done()
			_, err := f.ledger.Reserve(ctx, eventID, userID, seat)
			switch {
			case err == nil:
				atomic.AddInt64(&successes, 1)
			case errors.Is(err, repository.ErrNoSeats):
				atomic.AddInt64(&capacityFailures, 1)
			default:
				t.Errorf("Reserve unexpected error: %v", err)
			}
		}(userIDs[i], fmt.Sprintf("R%d", i))
	}
	wg.Wait()

	require.Equal(t, int64(1), successes)
	require.Equal(t, int64(attempts-1), capacityFailures)
	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(0), available)
	f.requireInvariant(t, eventID)
}

// TestMixedReserveReleaseRace interleaves reservations and cancellations
// on one small event.  Both paths lock the event row before touching
// booking rows, so no transaction may abort with a deadlock; the only
// acceptable failure is ErrNoSeats, and the invariants must hold at the
// end.
func TestMixedReserveReleaseRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 2, "ACTIVE")

	const workers = 12
	userIDs := make([]uint64, workers)
	for i := range userIDs {
		userIDs[i] = f.newUser(t, fmt.Sprintf("mixed%d@test.local", i))
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(userID uint64, seat string) {
			defer wg.Done()
			for round := 0; round < 5; round++ {
				b, err := f.ledger.Reserve(ctx, eventID, userID, seat)
				if errors.Is(err, repository.ErrNoSeats) {
					continue
				}
				if err != nil {
					t.Errorf("Reserve unexpected error: %v", err)
					return
				}
				if _, err := f.ledger.Release(ctx, b.ID, userID); err != nil {
					t.Errorf("Release unexpected error: %v", err)
					return
				}
			}
		}(userIDs[i], fmt.Sprintf("M%d", i))
	}
	wg.Wait()

	// Every successful reserve was released again.
	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(2), available)
	f.requireInvariant(t, eventID)
}

// TestCancelThenRebook checks the idempotent round trip on the counter:
// reserve 5->4, release 4->5, reserve again 5->4.
func TestCancelThenRebook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 5, "ACTIVE")
	userID := f.newUser(t, "u1@test.local")

	b, err := f.ledger.Reserve(ctx, eventID, userID, "B2")
	require.NoError(t, err)
	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(4), available)

	released, err := f.ledger.Release(ctx, b.ID, userID)
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, released.Status)
	_, available = f.seats(t, eventID)
	require.Equal(t, uint32(5), available)

	_, err = f.ledger.Reserve(ctx, eventID, userID, "B2")
	require.NoError(t, err)
	_, available = f.seats(t, eventID)
	require.Equal(t, uint32(4), available)
	f.requireInvariant(t, eventID)
}

func TestReleaseOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 5, "ACTIVE")
	owner := f.newUser(t, "owner@test.local")
	other := f.newUser(t, "other@test.local")

	b, err := f.ledger.Reserve(ctx, eventID, owner, "A1")
	require.NoError(t, err)

	// Someone else's booking must look exactly like a missing booking.
	_, err = f.ledger.Release(ctx, b.ID, other)
	require.ErrorIs(t, err, repository.ErrBookingNotFound)

	// The failed attempt must not have touched anything.
	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(4), available)
	f.requireInvariant(t, eventID)
}

func TestReleaseMissingBooking(t *testing.T) {
	f := newFixture(t)
	userID := f.newUser(t, "u1@test.local")

	_, err := f.ledger.Release(context.Background(), 424242, userID)
	require.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestReleaseTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 3, "ACTIVE")
	userID := f.newUser(t, "u1@test.local")

	b, err := f.ledger.Reserve(ctx, eventID, userID, "A1")
	require.NoError(t, err)
	_, err = f.ledger.Release(ctx, b.ID, userID)
	require.NoError(t, err)

	_, err = f.ledger.Release(ctx, b.ID, userID)
	require.ErrorIs(t, err, repository.ErrConflict)

	// The second cancel must not increment the counter a second time.
	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(3), available)
	f.requireInvariant(t, eventID)
}

func TestResizeBelowBookedCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 10, "ACTIVE")
	for i := 0; i < 8; i++ {
		userID := f.newUser(t, fmt.Sprintf("u%d@test.local", i))
		_, err := f.ledger.Reserve(ctx, eventID, userID, fmt.Sprintf("S%d", i))
		require.NoError(t, err)
	}

	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, f.ledger.ResizeTx(ctx, tx, eventID, 5))
	require.NoError(t, tx.Commit())

	total, available := f.seats(t, eventID)
	require.Equal(t, uint32(5), total)
	require.Equal(t, uint32(0), available)
}

// TestReleaseAfterResizeDownIsCapped covers the interaction of the two
// clamps: with 8 confirmed bookings and capacity resized to 5, each
// release gives one seat back but the counter must never climb past the
// new ceiling, and must end exactly at it once everything is released.
func TestReleaseAfterResizeDownIsCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 10, "ACTIVE")

	type held struct {
		bookingID uint64
		userID    uint64
	}
	bookings := make([]held, 0, 8)
	for i := 0; i < 8; i++ {
		userID := f.newUser(t, fmt.Sprintf("u%d@test.local", i))
		b, err := f.ledger.Reserve(ctx, eventID, userID, fmt.Sprintf("S%d", i))
		require.NoError(t, err)
		bookings = append(bookings, held{bookingID: b.ID, userID: b.UserID})
	}

	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, f.ledger.ResizeTx(ctx, tx, eventID, 5))
	require.NoError(t, tx.Commit())

	for i, h := range bookings {
		_, err := f.ledger.Release(ctx, h.bookingID, h.userID)
		require.NoError(t, err)
		total, available := f.seats(t, eventID)
		require.Equal(t, uint32(5), total)
		released := uint32(i + 1)
		want := released
		if want > 5 {
			want = 5
		}
		require.Equal(t, want, available)
	}

	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(5), available)
}

func TestResizeMissingEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	err = f.ledger.ResizeTx(ctx, tx, 999999, 5)
	require.ErrorIs(t, err, repository.ErrEventNotFound)
}

// TestScenarioChain runs the end-to-end sequence: two seats, two
// reservations, a capacity failure, then a release freeing one seat.
func TestScenarioChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := f.newEvent(t, 2, "ACTIVE")
	u1 := f.newUser(t, "u1@test.local")
	u2 := f.newUser(t, "u2@test.local")
	u3 := f.newUser(t, "u3@test.local")

	b1, err := f.ledger.Reserve(ctx, eventID, u1, "A1")
	require.NoError(t, err)
	require.Equal(t, model.BookingConfirmed, b1.Status)
	_, available := f.seats(t, eventID)
	require.Equal(t, uint32(1), available)

	_, err = f.ledger.Reserve(ctx, eventID, u2, "A2")
	require.NoError(t, err)
	_, available = f.seats(t, eventID)
	require.Equal(t, uint32(0), available)

	_, err = f.ledger.Reserve(ctx, eventID, u3, "A3")
	require.ErrorIs(t, err, repository.ErrNoSeats)

	_, err = f.ledger.Release(ctx, b1.ID, u1)
	require.NoError(t, err)
	_, available = f.seats(t, eventID)
	require.Equal(t, uint32(1), available)
	f.requireInvariant(t, eventID)
}
