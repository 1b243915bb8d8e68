package model

import "time"

// Club is a student club that publishes events.  Every club is managed
// by exactly one admin user (clubs.admin_id).
type Club struct {
	ID          uint64    `json:"id"`
	AdminID     uint64    `json:"admin_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
