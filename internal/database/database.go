package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"coworking/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the sqlite-backed reservation store.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

var (
	ErrNotFound           = errors.New("reservation not found")
	ErrInvalidReservation = errors.New("invalid reservation")
)

// NewDB opens the database and creates tables if they don't exist.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{
		DB:     db,
		path:   path,
		logger: logger,
	}

	if err := instance.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			resource_type TEXT NOT NULL,
			instance_id INTEGER NOT NULL DEFAULT 0,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			duration_unit TEXT NOT NULL,
			duration_value INTEGER NOT NULL CHECK (duration_value > 0),
			user_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'accepted',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_type ON reservations(resource_type, start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_dates ON reservations(start_date, end_date)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Close() error {
	return db.DB.Close()
}

const reservationColumns = `id, resource_type, instance_id, start_date, duration_unit,
	duration_value, user_id, status, created_at`

// CreateReservation inserts the record and assigns its id.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if r == nil || r.ResourceType == "" || r.DurationValue <= 0 || !r.Window().Valid() {
		return ErrInvalidReservation
	}
	if r.Status == "" {
		r.Status = models.StatusAccepted
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.StartDate = models.DateOf(r.StartDate)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (resource_type, instance_id, start_date, end_date,
			duration_unit, duration_value, user_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ResourceType, r.InstanceID,
		models.FormatDate(r.StartDate), models.FormatDate(r.EndDate()),
		string(r.DurationUnit), r.DurationValue, r.UserID, r.Status,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.ID = id
	return nil
}

// GetReservation returns one reservation by id.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	row := db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (db *DB) GetReservationsByType(ctx context.Context, typeKey string) ([]*models.Reservation, error) {
	return db.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE resource_type = ? ORDER BY start_date, id`, typeKey)
}

func (db *DB) GetReservationsByUser(ctx context.Context, userID string) ([]*models.Reservation, error) {
	return db.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE user_id = ? ORDER BY start_date, id`, userID)
}

// GetReservationsByDateRange returns reservations whose occupied window
// intersects [start, end]. Dates are stored as YYYY-MM-DD so text
// comparison orders them correctly.
func (db *DB) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	return db.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE start_date <= ? AND end_date >= ? ORDER BY start_date, id`,
		models.FormatDate(end), models.FormatDate(start))
}

func (db *DB) CountReservations(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&count)
	return count, err
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...interface{}) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*models.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		r         models.Reservation
		startDate string
		unit      string
		createdAt string
	)
	if err := row.Scan(
		&r.ID, &r.ResourceType, &r.InstanceID, &startDate, &unit,
		&r.DurationValue, &r.UserID, &r.Status, &createdAt,
	); err != nil {
		return nil, err
	}

	start, err := models.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: bad start_date %q: %w", r.ID, startDate, err)
	}
	r.StartDate = start
	r.DurationUnit = models.DurationUnit(unit)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		r.CreatedAt = t
	}
	return &r, nil
}
