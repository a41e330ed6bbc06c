package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var userColumns = []string{"id", "email", "display_name", "pwd_hash", "salt_auth", "created_at"}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{
		ID:          uuid.Must(uuid.NewV4()),
		Email:       "ann@example.com",
		DisplayName: "Ann",
		PwdHash:     []byte("h"),
		SaltAuth:    []byte("s"),
	}

	mock.ExpectExec(`INSERT INTO users \(id, email, display_name, pwd_hash, salt_auth\)`).
		WithArgs(u.ID, u.Email, u.DisplayName, u.PwdHash, u.SaltAuth).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, u))

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Email, u.DisplayName, u.PwdHash, u.SaltAuth).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, u), errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, email, display_name, pwd_hash, salt_auth, created_at FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(id, "ann@example.com", "Ann", []byte("h"), []byte("s"), created))
	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "Ann", u.DisplayName)
	require.Equal(t, created, u.CreatedAt)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_GetByEmail_CaseInsensitive(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM users WHERE lower\(email\)=lower\(\$1\)`).
		WithArgs("Ann@Example.com").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(id, "ann@example.com", "", []byte("h"), []byte("s"), time.Now()))
	u, err := r.GetByEmail(ctx, "Ann@Example.com")
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", u.Email)

	mock.ExpectQuery(`FROM users WHERE lower\(email\)`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_SetDisplayName(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE users SET display_name=\$2 WHERE id=\$1`).
		WithArgs(id, "Bob").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetDisplayName(ctx, id, "Bob"))

	mock.ExpectExec(`UPDATE users SET display_name`).
		WithArgs(id, "Bob").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetDisplayName(ctx, id, "Bob"), errs.ErrNotFound)
}

func TestUserRepo_SetPassword(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE users SET pwd_hash=\$2, salt_auth=\$3 WHERE id=\$1`).
		WithArgs(id, []byte("nh"), []byte("ns")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetPassword(ctx, id, []byte("nh"), []byte("ns")))
	require.NoError(t, mock.ExpectationsWereMet())
}
