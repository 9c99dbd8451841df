package event

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/database/dbtest"
)

func TestRepositoryDeleteLiveCascades(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	for _, table := range []string{"registrations", "favorites", "reviews"} {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ` + table + ` WHERE event_id = $1`)).
			WithArgs(8).
			WillReturnResult(sqlmock.NewResult(0, 2))
	}
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET related_event_id = NULL WHERE related_event_id = $1`)).
		WithArgs(8).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "pending_events" WHERE target_event_id = $1`)).
		WithArgs(8).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "events" WHERE "events"."id" = $1`)).
		WithArgs(8).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteLive(context.Background(), 8))
}

func TestRepositoryApproveNewLosesRace(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "pending_events" WHERE "pending_events"."id" = $1`)).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApproveNew(context.Background(), 4, &Event{ID: 4})
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestRepositoryDeleteRejectedMissing(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "rejected_events" WHERE "rejected_events"."id" = $1`)).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.DeleteRejected(context.Background(), 3)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
