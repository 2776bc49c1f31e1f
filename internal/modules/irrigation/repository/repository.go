package repository

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/types"
)

//go:embed sql/insert-upload.sql
var insertUploadSQL string

//go:embed sql/get-upload.sql
var getUploadSQL string

//go:embed sql/get-upload-meta.sql
var getUploadMetaSQL string

//go:embed sql/get-session.sql
var getSessionSQL string

//go:embed sql/upsert-session-upload.sql
var upsertSessionUploadSQL string

//go:embed sql/update-session-date.sql
var updateSessionDateSQL string

//go:embed sql/delete-unreferenced-upload.sql
var deleteUnreferencedUploadSQL string

var ErrNotFound = errors.New("not found")

type UploadRepository interface {
	// SaveUpload stores body under upload.Key. Content that is already
	// stored keeps its original row.
	SaveUpload(upload types.Upload, body []byte) error
	GetUpload(key string) (types.Upload, []byte, error)
	GetSession(id string) (types.Session, error)
	// StoreSessionUpload saves the upload and points the session at it in
	// one transaction, clearing the selected date. It returns the stored
	// upload as seen by the session and the key the session referenced
	// before, if any.
	StoreSessionUpload(sessionID string, upload types.Upload, body []byte) (types.Upload, string, error)
	SetSelectedDate(sessionID string, date string) error
	DeleteUploadIfUnreferenced(key string) (bool, error)
}

type repositoryImpl struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func NewRepository(db *sql.DB) UploadRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) SaveUpload(upload types.Upload, body []byte) error {
	return insertUpload(r.db, upload, body)
}

func insertUpload(q querier, upload types.Upload, body []byte) error {
	if upload.Key == "" {
		return errors.New("upload key is empty")
	}
	_, err := q.Exec(insertUploadSQL, upload.Key, upload.Filename, upload.SizeBytes, upload.Rows, body)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetUpload(key string) (types.Upload, []byte, error) {
	var (
		u       types.Upload
		body    []byte
		created string
	)
	err := r.db.QueryRow(getUploadSQL, key).Scan(&u.Key, &u.Filename, &u.SizeBytes, &u.Rows, &body, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Upload{}, nil, fmt.Errorf("upload %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return types.Upload{}, nil, fmt.Errorf("get upload %q: %w", key, err)
	}
	if u.CreatedAt, err = parseTimestamp(created); err != nil {
		return types.Upload{}, nil, err
	}
	return u, body, nil
}

func (r *repositoryImpl) GetSession(id string) (types.Session, error) {
	var (
		s       types.Session
		updated string
	)
	err := r.db.QueryRow(getSessionSQL, id).Scan(&s.ID, &s.UploadKey, &s.Filename, &s.SelectedDate, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Session{}, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Session{}, fmt.Errorf("get session %q: %w", id, err)
	}
	if s.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return types.Session{}, err
	}
	return s, nil
}

func (r *repositoryImpl) StoreSessionUpload(sessionID string, upload types.Upload, body []byte) (types.Upload, string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return types.Upload{}, "", fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rollback session upload", "error", err)
		}
	}()

	// Insert before any read: the write lock is then held until commit, so
	// DeleteUploadIfUnreferenced for the same key waits for the session row.
	if err := insertUpload(tx, upload, body); err != nil {
		return types.Upload{}, "", err
	}

	var (
		stored  types.Upload
		created string
	)
	err = tx.QueryRow(getUploadMetaSQL, upload.Key).Scan(&stored.Key, &stored.Filename, &stored.SizeBytes, &stored.Rows, &created)
	if err != nil {
		return types.Upload{}, "", fmt.Errorf("get upload %q: %w", upload.Key, err)
	}
	if stored.CreatedAt, err = parseTimestamp(created); err != nil {
		return types.Upload{}, "", err
	}

	var id, previous, filename, date, updated string
	err = tx.QueryRow(getSessionSQL, sessionID).Scan(&id, &previous, &filename, &date, &updated)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return types.Upload{}, "", fmt.Errorf("get session %q: %w", sessionID, err)
	}

	if _, err := tx.Exec(upsertSessionUploadSQL, sessionID, upload.Key, upload.Filename); err != nil {
		return types.Upload{}, "", fmt.Errorf("upsert session %q: %w", sessionID, err)
	}
	if err := tx.Commit(); err != nil {
		return types.Upload{}, "", fmt.Errorf("commit: %w", err)
	}

	if upload.Filename != "" {
		stored.Filename = upload.Filename
	}
	return stored, previous, nil
}

func (r *repositoryImpl) SetSelectedDate(sessionID string, date string) error {
	var value interface{}
	if date != "" {
		value = date
	}
	res, err := r.db.Exec(updateSessionDateSQL, value, sessionID)
	if err != nil {
		return fmt.Errorf("update session date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session date: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	return nil
}

func (r *repositoryImpl) DeleteUploadIfUnreferenced(key string) (bool, error) {
	res, err := r.db.Exec(deleteUnreferencedUploadSQL, key)
	if err != nil {
		return false, fmt.Errorf("delete upload %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete upload %q: %w", key, err)
	}
	return n > 0, nil
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, ts)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
		}
	}
	return t, nil
}
