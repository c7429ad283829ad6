package timeline

import "time"

type Kind string

const (
	KindReminder Kind = "reminder"
	KindVisit    Kind = "visit"
)

// Item is the unified view of either one reminder instance or one vet
// visit, sortable by Time. Completed is meaningful only when Completable.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	PetID       *int64    `json:"pet_id,omitempty"`
	Time        time.Time `json:"time"`
	Completable bool      `json:"completable"`
	Completed   bool      `json:"completed"`
}
