package reminder

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sharath018/campus-events-backend/database/dbtest"
)

func TestRepositoryMarkRegistrationSentIsConditional(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "registrations" SET "reminder_sent"=$1 WHERE id = $2 AND reminder_sent = $3`)).
		WithArgs(true, 12, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.MarkRegistrationSent(context.Background(), 12))
}
