package models

import "time"

// SessionType describes a bookable kind of trainer time. Rows are soft
// deleted only; historical sessions keep a valid reference.
type SessionType struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Duration     int       `db:"duration" json:"duration"`
	BufferBefore int       `db:"buffer_before" json:"buffer_before"`
	BufferAfter  int       `db:"buffer_after" json:"buffer_after"`
	Color        string    `db:"color" json:"color"`
	Price        float64   `db:"price" json:"price"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
