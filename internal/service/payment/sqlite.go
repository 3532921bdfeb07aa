package payment

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aegatekeeper/backend/internal/model/payment"
)

// SQLiteStore is the durable Store option: verified payments survive process
// restarts, so a replayed hash stays deduplicated across deploys.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the store at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL for concurrent verify requests.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS verified_payments (
		tx_hash     TEXT PRIMARY KEY,
		payer       TEXT NOT NULL,
		amount_ae   REAL NOT NULL,
		verified_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get retrieves a verified payment by transaction hash.
func (s *SQLiteStore) Get(txHash string) (payment.VerifiedPayment, bool, error) {
	row := s.db.QueryRow(
		`SELECT tx_hash, payer, amount_ae, verified_at FROM verified_payments WHERE tx_hash = ?`,
		txHash,
	)

	var rec payment.VerifiedPayment
	var verifiedAt int64
	err := row.Scan(&rec.TxHash, &rec.Payer, &rec.AmountAE, &verifiedAt)
	if err == sql.ErrNoRows {
		return payment.VerifiedPayment{}, false, nil
	}
	if err != nil {
		return payment.VerifiedPayment{}, false, fmt.Errorf("scan payment row: %w", err)
	}

	rec.VerifiedAt = time.Unix(verifiedAt, 0).UTC()
	return rec, true, nil
}

// PutIfAbsent inserts the record unless the hash already exists. INSERT OR
// IGNORE plus a read-back gives the atomic check-and-insert the verifier
// relies on.
func (s *SQLiteStore) PutIfAbsent(rec payment.VerifiedPayment) (payment.VerifiedPayment, bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO verified_payments (tx_hash, payer, amount_ae, verified_at) VALUES (?, ?, ?, ?)`,
		rec.TxHash, rec.Payer, rec.AmountAE, rec.VerifiedAt.Unix(),
	)
	if err != nil {
		return payment.VerifiedPayment{}, false, fmt.Errorf("insert payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return payment.VerifiedPayment{}, false, fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return rec, true, nil
	}

	existing, ok, err := s.Get(rec.TxHash)
	if err != nil {
		return payment.VerifiedPayment{}, false, err
	}
	if !ok {
		return payment.VerifiedPayment{}, false, fmt.Errorf("payment %s vanished after conflicting insert", rec.TxHash)
	}
	return existing, false, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
