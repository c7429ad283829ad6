package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

const reminderCols = `id, user_id, pet_id, title, notes, anchor, frequency, end_date, completed, completed_keys, created_at, updated_at`

func scanReminder(scanner interface{ Scan(...any) error }) (*model.Reminder, error) {
	var r model.Reminder
	var petID sql.NullInt64
	var endDate sql.NullTime
	var keys string

	err := scanner.Scan(
		&r.ID, &r.UserID, &petID, &r.Title, &r.Notes, &r.Anchor,
		&r.Frequency, &endDate, &r.Completed, &keys,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if petID.Valid {
		r.PetID = &petID.Int64
	}
	if endDate.Valid {
		t := endDate.Time
		r.EndDate = &t
	}
	if err := json.Unmarshal([]byte(keys), &r.CompletedKeys); err != nil {
		return nil, fmt.Errorf("decode completed keys: %w", err)
	}
	return &r, nil
}

func (s *ReminderStore) Create(userID int64, petID *int64, title, notes string, anchor time.Time, frequency string, endDate *time.Time) (*model.Reminder, error) {
	result, err := s.db.Exec(
		`INSERT INTO reminders (user_id, pet_id, title, notes, anchor, frequency, end_date) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, nullInt64(petID), title, notes, anchor.UTC(), frequency, nullTime(endDate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ReminderStore) GetByID(id int64) (*model.Reminder, error) {
	row := s.db.QueryRow(`SELECT `+reminderCols+` FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

func (s *ReminderStore) ListByUser(userID int64) ([]model.Reminder, error) {
	rows, err := s.db.Query(`SELECT `+reminderCols+` FROM reminders WHERE user_id = ? ORDER BY anchor ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

func (s *ReminderStore) Update(id int64, petID *int64, title, notes string, anchor time.Time, frequency string, endDate *time.Time) (*model.Reminder, error) {
	_, err := s.db.Exec(
		`UPDATE reminders SET pet_id = ?, title = ?, notes = ?, anchor = ?, frequency = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullInt64(petID), title, notes, anchor.UTC(), frequency, nullTime(endDate), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return s.GetByID(id)
}

func (s *ReminderStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// SetCompleted updates the scalar completed flag used by ONCE reminders.
func (s *ReminderStore) SetCompleted(id int64, completed bool) error {
	_, err := s.db.Exec(`UPDATE reminders SET completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, completed, id)
	if err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	return nil
}

// AddCompletedKey inserts one occurrence key into the reminder's completed
// set. The read-modify-write runs in a single transaction so concurrent
// toggles of different instances cannot clobber each other.
func (s *ReminderStore) AddCompletedKey(id int64, key string) error {
	return s.mutateKeys(id, func(keys []string) []string {
		if slices.Contains(keys, key) {
			return keys
		}
		return append(keys, key)
	})
}

// RemoveCompletedKey removes one occurrence key from the completed set.
func (s *ReminderStore) RemoveCompletedKey(id int64, key string) error {
	return s.mutateKeys(id, func(keys []string) []string {
		return slices.DeleteFunc(keys, func(k string) bool { return k == key })
	})
}

func (s *ReminderStore) mutateKeys(id int64, mutate func([]string) []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	if err := tx.QueryRow(`SELECT completed_keys FROM reminders WHERE id = ?`, id).Scan(&raw); err != nil {
		return fmt.Errorf("read completed keys: %w", err)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return fmt.Errorf("decode completed keys: %w", err)
	}

	keys = mutate(keys)
	if keys == nil {
		keys = []string{}
	}
	encoded, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode completed keys: %w", err)
	}

	if _, err := tx.Exec(`UPDATE reminders SET completed_keys = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(encoded), id); err != nil {
		return fmt.Errorf("write completed keys: %w", err)
	}
	return tx.Commit()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
