package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type TrainingStore struct {
	db *sql.DB
}

func NewTrainingStore(db *sql.DB) *TrainingStore {
	return &TrainingStore{db: db}
}

const trainingCols = `id, user_id, pet_id, held_at, skill, progress, created_at, updated_at`

func scanTraining(scanner interface{ Scan(...any) error }) (*model.TrainingSession, error) {
	var ts model.TrainingSession
	err := scanner.Scan(
		&ts.ID, &ts.UserID, &ts.PetID, &ts.HeldAt, &ts.Skill,
		&ts.Progress, &ts.CreatedAt, &ts.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (s *TrainingStore) Create(userID, petID int64, heldAt time.Time, skill, progress string) (*model.TrainingSession, error) {
	result, err := s.db.Exec(
		`INSERT INTO training_sessions (user_id, pet_id, held_at, skill, progress) VALUES (?, ?, ?, ?, ?)`,
		userID, petID, heldAt.UTC(), skill, progress,
	)
	if err != nil {
		return nil, fmt.Errorf("insert training session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TrainingStore) GetByID(id int64) (*model.TrainingSession, error) {
	row := s.db.QueryRow(`SELECT `+trainingCols+` FROM training_sessions WHERE id = ?`, id)
	ts, err := scanTraining(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get training session: %w", err)
	}
	return ts, nil
}

func (s *TrainingStore) ListByPet(petID int64) ([]model.TrainingSession, error) {
	rows, err := s.db.Query(`SELECT `+trainingCols+` FROM training_sessions WHERE pet_id = ? ORDER BY held_at DESC`, petID)
	if err != nil {
		return nil, fmt.Errorf("list training sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.TrainingSession
	for rows.Next() {
		ts, err := scanTraining(rows)
		if err != nil {
			return nil, fmt.Errorf("scan training session: %w", err)
		}
		sessions = append(sessions, *ts)
	}
	return sessions, rows.Err()
}

func (s *TrainingStore) Update(id int64, heldAt time.Time, skill, progress string) (*model.TrainingSession, error) {
	_, err := s.db.Exec(
		`UPDATE training_sessions SET held_at = ?, skill = ?, progress = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		heldAt.UTC(), skill, progress, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update training session: %w", err)
	}
	return s.GetByID(id)
}

func (s *TrainingStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM training_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete training session: %w", err)
	}
	return nil
}
