package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type MedicationStore struct {
	db *sql.DB
}

func NewMedicationStore(db *sql.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

const medicationCols = `id, user_id, pet_id, name, dosage, start_date, end_date, notes, created_at, updated_at`

func scanMedication(scanner interface{ Scan(...any) error }) (*model.Medication, error) {
	var m model.Medication
	var endDate sql.NullTime
	err := scanner.Scan(
		&m.ID, &m.UserID, &m.PetID, &m.Name, &m.Dosage,
		&m.StartDate, &endDate, &m.Notes, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		t := endDate.Time
		m.EndDate = &t
	}
	return &m, nil
}

func (s *MedicationStore) Create(userID, petID int64, name, dosage string, startDate time.Time, endDate *time.Time, notes string) (*model.Medication, error) {
	result, err := s.db.Exec(
		`INSERT INTO medications (user_id, pet_id, name, dosage, start_date, end_date, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, petID, name, dosage, startDate.UTC(), nullTime(endDate), notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MedicationStore) GetByID(id int64) (*model.Medication, error) {
	row := s.db.QueryRow(`SELECT `+medicationCols+` FROM medications WHERE id = ?`, id)
	m, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

func (s *MedicationStore) ListByPet(petID int64) ([]model.Medication, error) {
	rows, err := s.db.Query(`SELECT `+medicationCols+` FROM medications WHERE pet_id = ? ORDER BY start_date DESC`, petID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var medications []model.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		medications = append(medications, *m)
	}
	return medications, rows.Err()
}

func (s *MedicationStore) Update(id int64, name, dosage string, startDate time.Time, endDate *time.Time, notes string) (*model.Medication, error) {
	_, err := s.db.Exec(
		`UPDATE medications SET name = ?, dosage = ?, start_date = ?, end_date = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, dosage, startDate.UTC(), nullTime(endDate), notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update medication: %w", err)
	}
	return s.GetByID(id)
}

func (s *MedicationStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM medications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	return nil
}
