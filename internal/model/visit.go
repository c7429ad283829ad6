package model

import "time"

type Visit struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PetID     int64     `json:"pet_id"`
	VisitTime time.Time `json:"visit_time"`
	Reason    string    `json:"reason"`
	Clinic    string    `json:"clinic"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
