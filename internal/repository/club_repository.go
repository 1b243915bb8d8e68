package repository

import (
	"context"
	"database/sql"

	"github.com/kaksaab/club-event-ticketing/internal/model"
)

// ClubRepo provides persistence for clubs.  A club belongs to exactly one
// admin user; the my-club endpoint resolves the club through that
// ownership link.
type ClubRepo struct {
	db *sql.DB
}

// NewClubRepo returns a new ClubRepo bound to the given database.
func NewClubRepo(db *sql.DB) *ClubRepo { return &ClubRepo{db: db} }

// ClubSummary is returned by ListAll.  It augments the club row with the
// number of events the club has published, matching the public club
// directory response.
type ClubSummary struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
	EventCount  int64  `json:"event_count"`
}

// Create inserts a club for the given admin and returns the stored row.
func (r *ClubRepo) Create(ctx context.Context, adminID uint64, name, description, logoURL string) (*model.Club, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO clubs (admin_id, name, description, logo_url) VALUES (?,?,?,?)",
		adminID, name, description, logoURL)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single club.  Returns ErrClubNotFound when the id
// does not exist.
func (r *ClubRepo) GetByID(ctx context.Context, id uint64) (*model.Club, error) {
	var c model.Club
	err := r.db.QueryRowContext(ctx,
		"SELECT id, admin_id, name, description, logo_url, created_at, updated_at FROM clubs WHERE id=?",
		id).Scan(&c.ID, &c.AdminID, &c.Name, &c.Description, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClubNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByAdmin resolves the club managed by the given admin user.
// Returns ErrClubNotFound when the admin has not created a club yet.
func (r *ClubRepo) GetByAdmin(ctx context.Context, adminID uint64) (*model.Club, error) {
	var c model.Club
	err := r.db.QueryRowContext(ctx,
		"SELECT id, admin_id, name, description, logo_url, created_at, updated_at FROM clubs WHERE admin_id=? LIMIT 1",
		adminID).Scan(&c.ID, &c.AdminID, &c.Name, &c.Description, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClubNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListAll returns every club together with its event count, ordered by
// name for deterministic output.
func (r *ClubRepo) ListAll(ctx context.Context) ([]ClubSummary, error) {
	const q = `SELECT c.id, c.name, c.description, c.logo_url, COUNT(e.id)
               FROM clubs c
               LEFT JOIN events e ON e.club_id = c.id
               GROUP BY c.id, c.name, c.description, c.logo_url
               ORDER BY c.name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	clubs := make([]ClubSummary, 0)
	for rows.Next() {
		var c ClubSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.LogoURL, &c.EventCount); err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clubs, nil
}
