package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type IncidentStore struct {
	db *sql.DB
}

func NewIncidentStore(db *sql.DB) *IncidentStore {
	return &IncidentStore{db: db}
}

const incidentCols = `id, user_id, pet_id, occurred_at, severity, description, created_at, updated_at`

func scanIncident(scanner interface{ Scan(...any) error }) (*model.Incident, error) {
	var in model.Incident
	err := scanner.Scan(
		&in.ID, &in.UserID, &in.PetID, &in.OccurredAt, &in.Severity,
		&in.Description, &in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *IncidentStore) Create(userID, petID int64, occurredAt time.Time, severity, description string) (*model.Incident, error) {
	result, err := s.db.Exec(
		`INSERT INTO incidents (user_id, pet_id, occurred_at, severity, description) VALUES (?, ?, ?, ?, ?)`,
		userID, petID, occurredAt.UTC(), severity, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert incident: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *IncidentStore) GetByID(id int64) (*model.Incident, error) {
	row := s.db.QueryRow(`SELECT `+incidentCols+` FROM incidents WHERE id = ?`, id)
	in, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return in, nil
}

func (s *IncidentStore) ListByPet(petID int64) ([]model.Incident, error) {
	rows, err := s.db.Query(`SELECT `+incidentCols+` FROM incidents WHERE pet_id = ? ORDER BY occurred_at DESC`, petID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		in, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, *in)
	}
	return incidents, rows.Err()
}

func (s *IncidentStore) Update(id int64, occurredAt time.Time, severity, description string) (*model.Incident, error) {
	_, err := s.db.Exec(
		`UPDATE incidents SET occurred_at = ?, severity = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		occurredAt.UTC(), severity, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}
	return s.GetByID(id)
}

func (s *IncidentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM incidents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	return nil
}
