package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type VisitStore struct {
	db *sql.DB
}

func NewVisitStore(db *sql.DB) *VisitStore {
	return &VisitStore{db: db}
}

const visitCols = `id, user_id, pet_id, visit_time, reason, clinic, notes, created_at, updated_at`

func scanVisit(scanner interface{ Scan(...any) error }) (*model.Visit, error) {
	var v model.Visit
	err := scanner.Scan(
		&v.ID, &v.UserID, &v.PetID, &v.VisitTime, &v.Reason,
		&v.Clinic, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *VisitStore) Create(userID, petID int64, visitTime time.Time, reason, clinic, notes string) (*model.Visit, error) {
	result, err := s.db.Exec(
		`INSERT INTO visits (user_id, pet_id, visit_time, reason, clinic, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, petID, visitTime.UTC(), reason, clinic, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert visit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *VisitStore) GetByID(id int64) (*model.Visit, error) {
	row := s.db.QueryRow(`SELECT `+visitCols+` FROM visits WHERE id = ?`, id)
	v, err := scanVisit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get visit: %w", err)
	}
	return v, nil
}

func (s *VisitStore) ListByUser(userID int64) ([]model.Visit, error) {
	rows, err := s.db.Query(`SELECT `+visitCols+` FROM visits WHERE user_id = ? ORDER BY visit_time ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []model.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, *v)
	}
	return visits, rows.Err()
}

// ListUpcoming returns visits in [start, end) across all users, for the
// push scheduler.
func (s *VisitStore) ListUpcoming(start, end time.Time) ([]model.Visit, error) {
	rows, err := s.db.Query(
		`SELECT `+visitCols+` FROM visits WHERE visit_time >= ? AND visit_time < ? ORDER BY visit_time ASC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming visits: %w", err)
	}
	defer rows.Close()

	var visits []model.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, *v)
	}
	return visits, rows.Err()
}

func (s *VisitStore) Update(id int64, petID int64, visitTime time.Time, reason, clinic, notes string) (*model.Visit, error) {
	_, err := s.db.Exec(
		`UPDATE visits SET pet_id = ?, visit_time = ?, reason = ?, clinic = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		petID, visitTime.UTC(), reason, clinic, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update visit: %w", err)
	}
	return s.GetByID(id)
}

func (s *VisitStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM visits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	return nil
}
