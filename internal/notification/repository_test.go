package notification

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

func TestRepositoryMarkAllAsReadReturnsModifiedCount(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "notifications" SET "is_read"=$1,"updated_at"=$2 WHERE user_id = $3 AND is_read = $4`)).
		WithArgs(true, sqlmock.AnyArg(), 7, false).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := repo.MarkAllAsRead(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestRepositoryDeleteForeignRowIsNotFound(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notifications" WHERE id = $1 AND user_id = $2`)).
		WithArgs(5, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 5, 9)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryEventAudience(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "user_id" FROM "registrations" WHERE event_id = $1 ORDER BY user_id`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "user_id" FROM "favorites" WHERE event_id = $1 ORDER BY user_id`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(2).AddRow(5))

	a, err := repo.EventAudience(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, a.Registered)
	assert.Equal(t, []uint{2, 5}, a.Favorited)
}
