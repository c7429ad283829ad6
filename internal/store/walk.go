package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type WalkStore struct {
	db *sql.DB
}

func NewWalkStore(db *sql.DB) *WalkStore {
	return &WalkStore{db: db}
}

const walkCols = `id, user_id, pet_id, walked_at, duration_minutes, distance_meters, notes, created_at, updated_at`

func scanWalk(scanner interface{ Scan(...any) error }) (*model.Walk, error) {
	var w model.Walk
	err := scanner.Scan(
		&w.ID, &w.UserID, &w.PetID, &w.WalkedAt, &w.DurationMinutes,
		&w.DistanceMeters, &w.Notes, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WalkStore) Create(userID, petID int64, walkedAt time.Time, durationMinutes, distanceMeters int, notes string) (*model.Walk, error) {
	result, err := s.db.Exec(
		`INSERT INTO walks (user_id, pet_id, walked_at, duration_minutes, distance_meters, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, petID, walkedAt.UTC(), durationMinutes, distanceMeters, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert walk: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *WalkStore) GetByID(id int64) (*model.Walk, error) {
	row := s.db.QueryRow(`SELECT `+walkCols+` FROM walks WHERE id = ?`, id)
	w, err := scanWalk(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get walk: %w", err)
	}
	return w, nil
}

func (s *WalkStore) ListByPet(petID int64) ([]model.Walk, error) {
	rows, err := s.db.Query(`SELECT `+walkCols+` FROM walks WHERE pet_id = ? ORDER BY walked_at DESC`, petID)
	if err != nil {
		return nil, fmt.Errorf("list walks: %w", err)
	}
	defer rows.Close()

	var walks []model.Walk
	for rows.Next() {
		w, err := scanWalk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan walk: %w", err)
		}
		walks = append(walks, *w)
	}
	return walks, rows.Err()
}

func (s *WalkStore) Update(id int64, walkedAt time.Time, durationMinutes, distanceMeters int, notes string) (*model.Walk, error) {
	_, err := s.db.Exec(
		`UPDATE walks SET walked_at = ?, duration_minutes = ?, distance_meters = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		walkedAt.UTC(), durationMinutes, distanceMeters, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update walk: %w", err)
	}
	return s.GetByID(id)
}

func (s *WalkStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM walks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete walk: %w", err)
	}
	return nil
}
