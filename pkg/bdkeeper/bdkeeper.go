// Package bdkeeper persists the client's local call data in sqlite:
// outgoing call records, per-call confirmation/sync marks, the cached
// pending batch and the login session.
package bdkeeper

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tracklog/tracklog-client/pkg/models"
)

// ErrNoSession is returned by LoadSession when nobody is logged in.
var ErrNoSession = errors.New("no stored session")

const pendingBatchKey = "pending_batch"

type Keeper struct {
	db *sql.DB
}

// New opens (or creates) the sqlite database at path and prepares the schema.
func New(path string) (*Keeper, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	k := &Keeper{db: db}
	if err := k.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}
	return k, nil
}

func (k *Keeper) initTables() error {
	_, err := k.db.Exec(`
		CREATE TABLE IF NOT EXISTS call_records (
			id           INTEGER PRIMARY KEY,
			phone_number TEXT NOT NULL,
			date_time    TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS call_marks (
			local_id  TEXT PRIMARY KEY,
			confirmed INTEGER NOT NULL DEFAULT 0,
			synced    INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS kvstore (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sessions (
			user_id      INTEGER NOT NULL,
			name         TEXT NOT NULL,
			password_enc TEXT NOT NULL,
			company_id   INTEGER NOT NULL,
			saved_at     TEXT NOT NULL
		);
	`)
	return err
}

func (k *Keeper) Close() error {
	return k.db.Close()
}

// AddCallRecord persists an outgoing call attempt, assigning the next id
// (max existing + 1, or 1 for an empty store). The client runs a single
// writer, so the max+1 read and the insert share one transaction.
func (k *Keeper) AddCallRecord(ctx context.Context, phoneNumber, dateTime string) (models.CallRecord, error) {
	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CallRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var nextID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM call_records`).Scan(&nextID); err != nil {
		return models.CallRecord{}, fmt.Errorf("next call record id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO call_records (id, phone_number, date_time) VALUES (?, ?, ?)`,
		nextID, phoneNumber, dateTime); err != nil {
		return models.CallRecord{}, fmt.Errorf("insert call record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.CallRecord{}, fmt.Errorf("commit call record: %w", err)
	}

	return models.CallRecord{ID: nextID, PhoneNumber: phoneNumber, DateTime: dateTime}, nil
}

// ListCallRecords returns every stored outgoing call record.
func (k *Keeper) ListCallRecords(ctx context.Context) ([]models.CallRecord, error) {
	rows, err := k.db.QueryContext(ctx,
		`SELECT id, phone_number, date_time FROM call_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query call records: %w", err)
	}
	defer rows.Close()

	var records []models.CallRecord
	for rows.Next() {
		var r models.CallRecord
		if err := rows.Scan(&r.ID, &r.PhoneNumber, &r.DateTime); err != nil {
			return nil, fmt.Errorf("scan call record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate call records: %w", err)
	}
	return records, nil
}

// ClearCallRecords removes all outgoing call records after a confirmed sync.
func (k *Keeper) ClearCallRecords(ctx context.Context) error {
	if _, err := k.db.ExecContext(ctx, `DELETE FROM call_records`); err != nil {
		return fmt.Errorf("clear call records: %w", err)
	}
	return nil
}

// ConfirmCall marks a device log entry as user-confirmed for sync. The
// transition is one-way and idempotent: confirming twice is a no-op.
func (k *Keeper) ConfirmCall(ctx context.Context, localID string) error {
	_, err := k.db.ExecContext(ctx, `
		INSERT INTO call_marks (local_id, confirmed) VALUES (?, 1)
		ON CONFLICT(local_id) DO UPDATE SET confirmed = 1`, localID)
	if err != nil {
		return fmt.Errorf("confirm call %s: %w", localID, err)
	}
	return nil
}

// MarkSynced records that an entry was uploaded successfully. Like
// confirmation, the mark is never taken back.
func (k *Keeper) MarkSynced(ctx context.Context, localID string) error {
	_, err := k.db.ExecContext(ctx, `
		INSERT INTO call_marks (local_id, synced) VALUES (?, 1)
		ON CONFLICT(local_id) DO UPDATE SET synced = 1`, localID)
	if err != nil {
		return fmt.Errorf("mark call %s synced: %w", localID, err)
	}
	return nil
}

// CallMarks returns the confirmed and synced entry-id sets.
func (k *Keeper) CallMarks(ctx context.Context) (confirmed, synced map[string]bool, err error) {
	rows, err := k.db.QueryContext(ctx, `SELECT local_id, confirmed, synced FROM call_marks`)
	if err != nil {
		return nil, nil, fmt.Errorf("query call marks: %w", err)
	}
	defer rows.Close()

	confirmed = make(map[string]bool)
	synced = make(map[string]bool)
	for rows.Next() {
		var id string
		var c, s bool
		if err := rows.Scan(&id, &c, &s); err != nil {
			return nil, nil, fmt.Errorf("scan call mark: %w", err)
		}
		if c {
			confirmed[id] = true
		}
		if s {
			synced[id] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate call marks: %w", err)
	}
	return confirmed, synced, nil
}

// SavePendingBatch caches the current unsynced batch so it survives restarts.
func (k *Keeper) SavePendingBatch(ctx context.Context, batch []models.SyncBatchItem) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal pending batch: %w", err)
	}
	if _, err := k.db.ExecContext(ctx, `
		INSERT INTO kvstore (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		pendingBatchKey, data); err != nil {
		return fmt.Errorf("save pending batch: %w", err)
	}
	return nil
}

// LoadPendingBatch returns the cached unsynced batch, or nil when empty.
func (k *Keeper) LoadPendingBatch(ctx context.Context) ([]models.SyncBatchItem, error) {
	var data []byte
	err := k.db.QueryRowContext(ctx,
		`SELECT value FROM kvstore WHERE key = ?`, pendingBatchKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pending batch: %w", err)
	}

	var batch []models.SyncBatchItem
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("unmarshal pending batch: %w", err)
	}
	return batch, nil
}

// ClearPendingBatch drops the cached batch after a fully successful sync.
func (k *Keeper) ClearPendingBatch(ctx context.Context) error {
	if _, err := k.db.ExecContext(ctx,
		`DELETE FROM kvstore WHERE key = ?`, pendingBatchKey); err != nil {
		return fmt.Errorf("clear pending batch: %w", err)
	}
	return nil
}

// SaveSession stores the logged-in identity, replacing any previous one.
// The password must already be encrypted by the caller.
func (k *Keeper) SaveSession(ctx context.Context, s models.Session) error {
	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (user_id, name, password_enc, company_id, saved_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.UserID, s.Name, s.Password, s.CompanyID,
		time.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return tx.Commit()
}

// LoadSession returns the stored identity or ErrNoSession.
func (k *Keeper) LoadSession(ctx context.Context) (models.Session, error) {
	var s models.Session
	err := k.db.QueryRowContext(ctx,
		`SELECT user_id, name, password_enc, company_id FROM sessions`).
		Scan(&s.UserID, &s.Name, &s.Password, &s.CompanyID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// DeleteSession logs the user out locally.
func (k *Keeper) DeleteSession(ctx context.Context) error {
	if _, err := k.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
