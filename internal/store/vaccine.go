package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type VaccineStore struct {
	db *sql.DB
}

func NewVaccineStore(db *sql.DB) *VaccineStore {
	return &VaccineStore{db: db}
}

const vaccineCols = `id, user_id, pet_id, name, administered, next_due, notes, created_at, updated_at`

func scanVaccine(scanner interface{ Scan(...any) error }) (*model.Vaccine, error) {
	var v model.Vaccine
	var nextDue sql.NullTime
	err := scanner.Scan(
		&v.ID, &v.UserID, &v.PetID, &v.Name, &v.Administered,
		&nextDue, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if nextDue.Valid {
		t := nextDue.Time
		v.NextDue = &t
	}
	return &v, nil
}

func (s *VaccineStore) Create(userID, petID int64, name string, administered time.Time, nextDue *time.Time, notes string) (*model.Vaccine, error) {
	result, err := s.db.Exec(
		`INSERT INTO vaccines (user_id, pet_id, name, administered, next_due, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, petID, name, administered.UTC(), nullTime(nextDue), notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert vaccine: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *VaccineStore) GetByID(id int64) (*model.Vaccine, error) {
	row := s.db.QueryRow(`SELECT `+vaccineCols+` FROM vaccines WHERE id = ?`, id)
	v, err := scanVaccine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vaccine: %w", err)
	}
	return v, nil
}

func (s *VaccineStore) ListByPet(petID int64) ([]model.Vaccine, error) {
	rows, err := s.db.Query(`SELECT `+vaccineCols+` FROM vaccines WHERE pet_id = ? ORDER BY administered DESC`, petID)
	if err != nil {
		return nil, fmt.Errorf("list vaccines: %w", err)
	}
	defer rows.Close()

	var vaccines []model.Vaccine
	for rows.Next() {
		v, err := scanVaccine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vaccine: %w", err)
		}
		vaccines = append(vaccines, *v)
	}
	return vaccines, rows.Err()
}

func (s *VaccineStore) Update(id int64, name string, administered time.Time, nextDue *time.Time, notes string) (*model.Vaccine, error) {
	_, err := s.db.Exec(
		`UPDATE vaccines SET name = ?, administered = ?, next_due = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, administered.UTC(), nullTime(nextDue), notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update vaccine: %w", err)
	}
	return s.GetByID(id)
}

func (s *VaccineStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM vaccines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vaccine: %w", err)
	}
	return nil
}
