package persistence

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/testutil"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "record not found", in: gorm.ErrRecordNotFound, want: shared.ErrNotFound},
		{name: "wrapped not found", in: fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), want: shared.ErrNotFound},
		{name: "duplicated key", in: gorm.ErrDuplicatedKey, want: shared.ErrAlreadyExists},
		{name: "postgres unique violation", in: &pgconn.PgError{Code: "23505"}, want: shared.ErrAlreadyExists},
		{name: "postgres foreign key violation", in: &pgconn.PgError{Code: "23503"}, want: shared.ErrNotFound},
		{name: "other postgres error", in: &pgconn.PgError{Code: "40001"}, want: nil},
		{name: "passthrough", in: other, want: other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.in)
			switch {
			case tt.in == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.Equal(t, tt.in, got)
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}

func TestDatabase_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	mock.ExpectPing()
	db := &Database{DB: gdb}
	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_FindByID_SQL(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()
	repo := NewGormUserRepository(mdb.DB)

	rows := sqlmock.NewRows([]string{"id", "email", "first_name", "role"}).
		AddRow("user_1", "ada@example.com", "Ada", "admin")
	mdb.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WithArgs("user_1", 1).
		WillReturnRows(rows)

	u, err := repo.FindByID(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FirstName)
	mdb.ExpectationsWereMet(t)
}

func TestGormNotificationRepository_Delete_SQL(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()
	repo := NewGormNotificationRepository(mdb.DB)

	mdb.Mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notifications" WHERE id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), testutil.NewTestUUID("n1"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
	mdb.ExpectationsWereMet(t)
}
