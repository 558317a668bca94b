package models

import "time"

// ClientCredit is a client's balance of prepaid session credits. Decremented
// when an open slot is booked, restored exactly once on a waived cancellation.
type ClientCredit struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Balance   int       `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
