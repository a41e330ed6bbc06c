package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/model"
	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var planColumns = []string{"id", "owner_id", "subject", "topic", "description",
	"start_time", "end_time", "reminder_minutes", "created_at"}

func TestPlanRepo_List_OrdersAndScans(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPlanRepo(db)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	p1, p2 := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM plans WHERE owner_id=\$1\s+ORDER BY start_time`).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows(planColumns).
			AddRow(p1, owner, "Math", "Algebra", "", start, start.Add(time.Hour), model.Minutes(15), start.Add(-time.Hour)).
			AddRow(p2, owner, "History", "", "", start.Add(2*time.Hour), start.Add(3*time.Hour), model.Minutes(0), start))

	plans, err := r.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, "Math", plans[0].Subject)
	require.Equal(t, "Algebra", plans[0].Topic)
	require.Equal(t, 15, *plans[0].ReminderMinutes)
	require.Equal(t, p2, plans[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepo_List_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPlanRepo(db)
	owner := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM plans`).WithArgs(owner).WillReturnRows(pgxmock.NewRows(planColumns))
	plans, err := r.List(context.Background(), owner)
	require.NoError(t, err)
	require.NotNil(t, plans)
	require.Empty(t, plans)
}

func TestPlanRepo_List_QueryError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPlanRepo(db)
	owner := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM plans`).WithArgs(owner).WillReturnError(errors.New("boom"))
	_, err := r.List(context.Background(), owner)
	require.Error(t, err)
}

func TestPlanRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPlanRepo(db)
	now := time.Now().UTC()
	p := &model.Plan{
		ID: uuid.Must(uuid.NewV4()), OwnerID: uuid.Must(uuid.NewV4()),
		Subject: "Math", Start: now, End: now.Add(time.Hour), CreatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO plans`).
		WithArgs(p.ID, p.OwnerID, "Math", (*string)(nil), (*string)(nil), p.Start, p.End, (*int)(nil), p.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepo_Replace_NotFoundForForeignOwner(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPlanRepo(db)
	now := time.Now().UTC()
	p := &model.Plan{
		ID: uuid.Must(uuid.NewV4()), OwnerID: uuid.Must(uuid.NewV4()),
		Subject: "Math", Topic: "Sets", Start: now, End: now.Add(time.Hour), ReminderMinutes: model.Minutes(5),
	}

	mock.ExpectExec(`UPDATE plans\s+SET subject=\$3`).
		WithArgs(p.ID, p.OwnerID, "Math", pgxmock.AnyArg(), (*string)(nil), p.Start, p.End, p.ReminderMinutes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Replace(context.Background(), p))

	mock.ExpectExec(`UPDATE plans`).
		WithArgs(p.ID, p.OwnerID, "Math", pgxmock.AnyArg(), (*string)(nil), p.Start, p.End, p.ReminderMinutes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Replace(context.Background(), p), errs.ErrNotFound)
}

func TestPlanRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewPlanRepo(db)
	owner, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM plans WHERE id=\$1 AND owner_id=\$2`).
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(context.Background(), owner, id))

	mock.ExpectExec(`DELETE FROM plans`).
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(context.Background(), owner, id), errs.ErrNotFound)
}
