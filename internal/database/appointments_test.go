package database

import (
	"context"
	"os"
	"testing"
	"time"

	"apptbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testAppointment(ownerID int64, date, timeOfDay string) *models.Appointment {
	d, _ := time.Parse("2006-01-02", date)
	return &models.Appointment{
		OwnerID:         ownerID,
		Name:            "Test User",
		Email:           "test@example.com",
		Date:            d,
		Time:            timeOfDay,
		DurationMinutes: 30,
	}
}

func TestInsertAppointmentAssignsID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := testAppointment(1, "2025-11-04", "10:00")
	require.NoError(t, db.InsertAppointment(ctx, a))
	assert.NotZero(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := db.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-04", got.DateKey())
	assert.Equal(t, "10:00", got.Time)
	assert.Equal(t, int64(1), got.OwnerID)
}

func TestInsertAppointmentSlotConflict(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertAppointment(ctx, testAppointment(1, "2025-11-04", "10:00")))

	err := db.InsertAppointment(ctx, testAppointment(2, "2025-11-04", "10:00"))
	require.ErrorIs(t, err, ErrSlotTaken)

	// No duplicate row exists after the conflict.
	appts, err := db.AppointmentsByDate(ctx, "2025-11-04")
	require.NoError(t, err)
	assert.Len(t, appts, 1)
	assert.Equal(t, int64(1), appts[0].OwnerID)

	// Same time on a different date is fine.
	require.NoError(t, db.InsertAppointment(ctx, testAppointment(2, "2025-11-06", "10:00")))
}

func TestAppointmentsByDateOrdering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, tm := range []string{"15:30", "09:00", "11:00"} {
		require.NoError(t, db.InsertAppointment(ctx, testAppointment(1, "2025-11-04", tm)))
	}
	require.NoError(t, db.InsertAppointment(ctx, testAppointment(1, "2025-11-06", "08:00")))

	appts, err := db.AppointmentsByDate(ctx, "2025-11-04")
	require.NoError(t, err)
	require.Len(t, appts, 3)
	assert.Equal(t, "09:00", appts[0].Time)
	assert.Equal(t, "11:00", appts[1].Time)
	assert.Equal(t, "15:30", appts[2].Time)
}

func TestDeleteAppointmentOwnedScoping(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := testAppointment(1, "2025-11-04", "10:00")
	require.NoError(t, db.InsertAppointment(ctx, a))

	// Another actor cannot delete through the owner-scoped path.
	rows, err := db.DeleteAppointmentOwned(ctx, a.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, rows)

	got, err := db.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	// The owner can.
	rows, err = db.DeleteAppointmentOwned(ctx, a.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Deleting again reports zero rows, not an error.
	rows, err = db.DeleteAppointmentOwned(ctx, a.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, rows)

	_, err = db.GetAppointment(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAppointmentUnscoped(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := testAppointment(7, "2025-11-04", "10:00")
	require.NoError(t, db.InsertAppointment(ctx, a))

	rows, err := db.DeleteAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestDailyAppointments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertAppointment(ctx, testAppointment(1, "2025-11-04", "10:00")))
	require.NoError(t, db.InsertAppointment(ctx, testAppointment(1, "2025-11-04", "11:00")))
	require.NoError(t, db.InsertAppointment(ctx, testAppointment(2, "2025-11-06", "10:00")))

	daily, err := db.DailyAppointments(ctx, "2025-11-01", "2025-11-30")
	require.NoError(t, err)
	assert.Len(t, daily["2025-11-04"], 2)
	assert.Len(t, daily["2025-11-06"], 1)
}
