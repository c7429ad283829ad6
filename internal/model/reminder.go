package model

import "time"

// Reminder is a scheduled care task. Anchor is the first occurrence; its
// time-of-day is the canonical time for every generated occurrence.
//
// Completed is authoritative only when Frequency is ONCE. CompletedKeys is
// authoritative only for recurring frequencies; each element is an
// occurrence key ("YYYY-MM-DD" plus an optional "-HH:MM" instance suffix).
// The field not selected by Frequency must be ignored.
type Reminder struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	PetID         *int64     `json:"pet_id"`
	Title         string     `json:"title"`
	Notes         string     `json:"notes"`
	Anchor        time.Time  `json:"anchor"`
	Frequency     string     `json:"frequency"`
	EndDate       *time.Time `json:"end_date"`
	Completed     bool       `json:"completed"`
	CompletedKeys []string   `json:"completed_keys"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
