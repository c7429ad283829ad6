package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type PetStore struct {
	db *sql.DB
}

func NewPetStore(db *sql.DB) *PetStore {
	return &PetStore{db: db}
}

const petCols = `id, user_id, name, species, breed, birth_date, photo_url, notes, created_at, updated_at`

func scanPet(scanner interface{ Scan(...any) error }) (*model.Pet, error) {
	var p model.Pet
	var birthDate sql.NullTime

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Species, &p.Breed,
		&birthDate, &p.PhotoURL, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if birthDate.Valid {
		t := birthDate.Time
		p.BirthDate = &t
	}
	return &p, nil
}

func (s *PetStore) Create(userID int64, name, species, breed string, birthDate *time.Time, photoURL, notes string) (*model.Pet, error) {
	result, err := s.db.Exec(
		`INSERT INTO pets (user_id, name, species, breed, birth_date, photo_url, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, name, species, breed, nullTime(birthDate), photoURL, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pet: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PetStore) GetByID(id int64) (*model.Pet, error) {
	row := s.db.QueryRow(`SELECT `+petCols+` FROM pets WHERE id = ?`, id)
	p, err := scanPet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return p, nil
}

func (s *PetStore) ListByUser(userID int64) ([]model.Pet, error) {
	rows, err := s.db.Query(`SELECT `+petCols+` FROM pets WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	var pets []model.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, *p)
	}
	return pets, rows.Err()
}

func (s *PetStore) Update(id int64, name, species, breed string, birthDate *time.Time, photoURL, notes string) (*model.Pet, error) {
	_, err := s.db.Exec(
		`UPDATE pets SET name = ?, species = ?, breed = ?, birth_date = ?, photo_url = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, species, breed, nullTime(birthDate), photoURL, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update pet: %w", err)
	}
	return s.GetByID(id)
}

func (s *PetStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM pets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	return nil
}
