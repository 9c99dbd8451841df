package registration

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

func TestRepositoryCreateRollsBackWhenFull(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "registrations"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "events" SET "attendees"=attendees + $1 WHERE id = $2 AND attendees < capacity`)).
		WithArgs(1, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &Registration{UserID: 3, EventID: 9, TicketCode: "t-1"})
	assert.ErrorIs(t, err, ErrEventFull)
}

func TestRepositoryCreateTakesSeat(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "registrations"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "events" SET "attendees"=attendees + $1`)).
		WithArgs(1, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg := &Registration{UserID: 3, EventID: 9, TicketCode: "t-1"}
	require.NoError(t, repo.Create(context.Background(), reg))
	assert.Equal(t, uint(5), reg.ID)
}

func TestRepositoryDeleteMissing(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "registrations" WHERE user_id = $1 AND event_id = $2`)).
		WithArgs(3, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 3, 9)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
