package model

import "time"

type Vaccine struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	PetID        int64      `json:"pet_id"`
	Name         string     `json:"name"`
	Administered time.Time  `json:"administered"`
	NextDue      *time.Time `json:"next_due"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Medication struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	PetID     int64      `json:"pet_id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Walk struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	PetID           int64     `json:"pet_id"`
	WalkedAt        time.Time `json:"walked_at"`
	DurationMinutes int       `json:"duration_minutes"`
	DistanceMeters  int       `json:"distance_meters"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type TrainingSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PetID     int64     `json:"pet_id"`
	HeldAt    time.Time `json:"held_at"`
	Skill     string    `json:"skill"`
	Progress  string    `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Incident struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	PetID       int64     `json:"pet_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
