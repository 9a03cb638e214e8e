package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []notifications.Event
}

func (r *recordingPublisher) Publish(e notifications.Event) {
	r.events = append(r.events, e)
}

func checkInRequest() models.CheckInRequest {
	return models.CheckInRequest{
		QueueID:  "abcde12345-1700000000000",
		Category: "Walk-in",
		Name:     "Maria Santos",
	}
}

func expectQueueLookup(mock sqlmock.Sqlmock, expiration string) {
	mock.ExpectQuery("SELECT address, expiration, date_time FROM queues").
		WillReturnRows(sqlmock.NewRows([]string{"address", "expiration", "date_time"}).
			AddRow("12 Main St", expiration, time.Now().Format(time.RFC3339)))
}

func TestCheckInLocksCategoryAndInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	publisher := &recordingPublisher{}
	svc := NewRegistrationService(db, publisher)

	expectQueueLookup(mock, time.Now().Add(time.Hour).Format(time.RFC3339))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM categories WHERE queue_id = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "limit"}).
			AddRow("abcde12345-1700000000000-walk-in", "10"))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(7))
	mock.ExpectExec("INSERT INTO registrations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg, err := svc.CheckIn(context.Background(), checkInRequest(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 7, reg.Index1)
	assert.Equal(t, "abcde12345-1700000000000-walk-in", reg.CategoryID)
	assert.Equal(t, "pending", reg.Status)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "Maria Santos", publisher.events[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInFullCategoryRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	publisher := &recordingPublisher{}
	svc := NewRegistrationService(db, publisher)

	expectQueueLookup(mock, time.Now().Add(time.Hour).Format(time.RFC3339))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM categories WHERE queue_id = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "limit"}).
			AddRow("abcde12345-1700000000000-walk-in", "2"))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err = svc.CheckIn(context.Background(), checkInRequest(), "u1")

	assert.ErrorIs(t, err, ErrCategoryFull)
	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet(), "a full category must never reach the insert")
}

func TestCheckInExpiredQueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewRegistrationService(db, &recordingPublisher{})

	expectQueueLookup(mock, time.Now().Add(-time.Hour).Format(time.RFC3339))

	_, err = svc.CheckIn(context.Background(), checkInRequest(), "")

	assert.ErrorIs(t, err, ErrQueueExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInUnknownCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewRegistrationService(db, &recordingPublisher{})

	expectQueueLookup(mock, time.Now().Add(time.Hour).Format(time.RFC3339))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM categories WHERE queue_id = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "limit"}))
	mock.ExpectRollback()

	_, err = svc.CheckIn(context.Background(), checkInRequest(), "")

	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
