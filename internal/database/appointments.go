package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"apptbook/internal/models"
)

const appointmentColumns = `id, owner_id, name, email, date, time, label, duration_minutes, created_at, updated_at`

// InsertAppointment persists a new appointment. The store assigns the id.
// A UNIQUE(date, time) violation comes back as ErrSlotTaken.
func (db *DB) InsertAppointment(ctx context.Context, a *models.Appointment) error {
	query := `INSERT INTO appointments (
				owner_id, name, email, date, time, label, duration_minutes,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.db.ExecContext(ctx, query,
		a.OwnerID,
		a.Name,
		a.Email,
		a.DateKey(),
		a.Time,
		a.Label,
		a.DurationMinutes,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now

	return nil
}

// GetAppointment returns a single appointment by id.
func (db *DB) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	a, err := scanAppointment(db.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// AppointmentsByDate returns every appointment on the canonical date,
// regardless of owner, ordered by time.
func (db *DB) AppointmentsByDate(ctx context.Context, dateKey string) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
              FROM appointments WHERE date = ? ORDER BY date ASC, time ASC`
	return db.queryAppointments(ctx, query, dateKey)
}

// AppointmentsByOwner returns the actor's own appointments from today
// forward, ordered by (date, time).
func (db *DB) AppointmentsByOwner(ctx context.Context, ownerID int64) ([]*models.Appointment, error) {
	today := time.Now().Format("2006-01-02")
	query := `SELECT ` + appointmentColumns + `
              FROM appointments WHERE owner_id = ? AND date >= ? ORDER BY date ASC, time ASC`
	return db.queryAppointments(ctx, query, ownerID, today)
}

// AppointmentsByRange returns all appointments between the two canonical
// dates inclusive, ordered by (date, time). Used by dashboards and export.
func (db *DB) AppointmentsByRange(ctx context.Context, startKey, endKey string) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
              FROM appointments WHERE date >= ? AND date <= ? ORDER BY date ASC, time ASC`
	return db.queryAppointments(ctx, query, startKey, endKey)
}

// DeleteAppointmentOwned removes an appointment scoped by both id and owner,
// so an actor can never cancel someone else's booking through this path.
// Returns the number of rows removed; zero rows is not an error here.
func (db *DB) DeleteAppointmentOwned(ctx context.Context, id, ownerID int64) (int64, error) {
	result, err := db.db.ExecContext(ctx,
		`DELETE FROM appointments WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return rows, nil
}

// DeleteAppointment removes an appointment by id alone. Privileged path for
// employees and admins.
func (db *DB) DeleteAppointment(ctx context.Context, id int64) (int64, error) {
	result, err := db.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return rows, nil
}

// DailyAppointments groups a date range by canonical date key.
func (db *DB) DailyAppointments(ctx context.Context, startKey, endKey string) (map[string][]*models.Appointment, error) {
	appts, err := db.AppointmentsByRange(ctx, startKey, endKey)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]*models.Appointment)
	for _, a := range appts {
		daily[a.DateKey()] = append(daily[a.DateKey()], a)
	}
	return daily, nil
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return appts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	a := &models.Appointment{}
	var dateStr string
	var label sql.NullString
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &a.Email, &dateStr, &a.Time,
		&label, &a.DurationMinutes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Label = label.String

	a.Date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse appointment date %s: %w", dateStr, err)
	}
	return a, nil
}
