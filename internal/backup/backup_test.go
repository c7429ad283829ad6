package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hollyoak/pawtrail/internal/database"
	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func setupBackupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "app.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func testManager(t *testing.T, db *sql.DB, dbPath string, mock *mockS3Client) *Manager {
	t.Helper()
	m := NewManager(Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:     dbPath,
		Passphrase: "backup-passphrase",
	}, db, store.NewBackupStore(db), nil, nil)
	m.client = mock
	return m
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config the manager stays disabled.
	m := NewManager(Config{}, nil, nil, nil, nil)
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	// Without a passphrase encryption is impossible, so still disabled.
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, nil, nil)
	if m2.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m2.Status().State, StateDisabled)
	}

	m3 := NewManager(Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "pw",
	}, nil, nil, nil, nil)
	if m3.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m3.Status().State, StateIdle)
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var received []Status
	var mu sync.Mutex
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "pw",
	}, nil, nil, nil, cb)

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateRunning {
		t.Errorf("first callback state = %q, want %q", received[0].State, StateRunning)
	}
	if received[1].State != StateIdle {
		t.Errorf("second callback state = %q, want %q", received[1].State, StateIdle)
	}
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start disabled manager: %v", err)
	}

	// Stop should not block, and double stop should not panic.
	m.Stop()
	m.Stop()
}

func TestManagerStartStop(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	m := testManager(t, db, dbPath, newMockS3())

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Stop()
	m.Stop()
}

func TestManagerStartRejectsBadSchedule(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	m := NewManager(Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:     dbPath,
		Passphrase: "pw",
		Schedule:   "not a cron spec",
	}, db, store.NewBackupStore(db), nil, nil)

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	mock := newMockS3()
	m := testManager(t, db, dbPath, mock)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	record, err := store.NewBackupStore(db).GetByID(id)
	if err != nil || record == nil {
		t.Fatalf("get backup record: %v", err)
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want %q", record.Status, model.BackupStatusCompleted)
	}
	if record.SizeBytes == 0 {
		t.Error("expected non-zero size")
	}

	mock.mu.Lock()
	uploaded, ok := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("no object uploaded under key %q", record.S3Key)
	}

	// The uploaded object must decrypt back to a SQLite database.
	plain, err := Decrypt(uploaded, "backup-passphrase")
	if err != nil {
		t.Fatalf("decrypt uploaded object: %v", err)
	}
	if !bytes.HasPrefix(plain, []byte("SQLite format 3")) {
		t.Error("decrypted object is not a SQLite database")
	}

	if m.Status().State != StateIdle {
		t.Errorf("state after backup = %q, want %q", m.Status().State, StateIdle)
	}
	if m.Status().LastBackup == nil {
		t.Error("expected last backup timestamp")
	}
}

func TestRunNowUploadFailureMarksRecord(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	mock := newMockS3()
	mock.putErr = errors.New("bucket unavailable")
	m := testManager(t, db, dbPath, mock)

	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}

	backups, err := store.NewBackupStore(db).List(10)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("got %d backup records, want 1", len(backups))
	}
	if backups[0].Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want %q", backups[0].Status, model.BackupStatusFailed)
	}
	if backups[0].ErrorMessage == "" {
		t.Error("expected error message on failed record")
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q, want %q", m.Status().State, StateError)
	}
}

func TestDownloadRoundTrip(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	mock := newMockS3()
	m := testManager(t, db, dbPath, mock)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	body, size, err := m.Download(context.Background(), id)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if int64(len(data)) != size {
		t.Errorf("downloaded %d bytes, record says %d", len(data), size)
	}
}

func TestDownloadUnknownBackup(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	m := testManager(t, db, dbPath, newMockS3())

	if _, _, err := m.Download(context.Background(), 999); err == nil {
		t.Fatal("expected error for unknown backup")
	}
}

func TestCleanupPrunesOldBackups(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	mock := newMockS3()
	m := testManager(t, db, dbPath, mock)

	oldID, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	// Age the record past the retention window.
	if _, err := db.Exec(
		`UPDATE backups SET created_at = datetime('now', '-40 days'), filename = 'backup-old.db.enc', s3_key = 'backups/backup-old.db.enc' WHERE id = ?`,
		oldID,
	); err != nil {
		t.Fatalf("age record: %v", err)
	}
	mock.mu.Lock()
	for k, v := range mock.objects {
		delete(mock.objects, k)
		mock.objects["backups/backup-old.db.enc"] = v
	}
	mock.mu.Unlock()

	recentID, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run recent backup: %v", err)
	}

	if err := m.Cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	bs := store.NewBackupStore(db)
	if old, _ := bs.GetByID(oldID); old != nil {
		t.Error("old backup record should be deleted")
	}
	if recent, _ := bs.GetByID(recentID); recent == nil {
		t.Error("recent backup record should survive cleanup")
	}

	mock.mu.Lock()
	_, oldExists := mock.objects["backups/backup-old.db.enc"]
	n := len(mock.objects)
	mock.mu.Unlock()
	if oldExists {
		t.Error("old S3 object should be deleted")
	}
	if n != 1 {
		t.Errorf("got %d objects after cleanup, want 1", n)
	}
}

func TestCleanupKeepsRecordOnS3Failure(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	mock := newMockS3()
	m := testManager(t, db, dbPath, mock)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	if _, err := db.Exec(`UPDATE backups SET created_at = datetime('now', '-40 days') WHERE id = ?`, id); err != nil {
		t.Fatalf("age record: %v", err)
	}

	mock.delErr = errors.New("access denied")
	if err := m.Cleanup(context.Background()); err == nil {
		t.Fatal("expected cleanup error when S3 delete fails")
	}

	// The record survives so a later cleanup can retry the delete.
	if record, _ := store.NewBackupStore(db).GetByID(id); record == nil {
		t.Error("record should survive failed S3 delete")
	}
}

func TestRestoreReplacesDatabase(t *testing.T) {
	db, dbPath := setupBackupTestDB(t)
	mock := newMockS3()
	m := testManager(t, db, dbPath, mock)

	users := store.NewUserStore(db)
	if _, err := users.Create("holly@example.com", "Holly", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	// Restore into a fresh location to verify the snapshot contents.
	restorePath := filepath.Join(t.TempDir(), "restored.db")
	m.cfg.DBPath = restorePath
	if err := m.Restore(context.Background(), id); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := sql.Open("sqlite", restorePath)
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer restored.Close()

	var count int
	if err := restored.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("query restored db: %v", err)
	}
	if count != 1 {
		t.Errorf("restored user count = %d, want 1", count)
	}
}
