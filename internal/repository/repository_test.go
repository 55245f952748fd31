package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/festival-booking/internal/model"
)

func TestIncrementOccupancyIfBelowLimit(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    q := regexp.QuoteMeta(`UPDATE programs SET booked_units = booked_units + ? WHERE id = ? AND booked_units + ? <= ?`)
    mock.ExpectBegin()
    mock.ExpectExec(q).WithArgs(uint32(2), uint64(9), uint32(2), uint32(10)).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(q).WithArgs(uint32(1), uint64(9), uint32(1), uint32(10)).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    repo := NewProgramRepo(db)
    tx, err := db.Begin()
    require.NoError(t, err)

    ok, err := repo.IncrementOccupancyIfBelowLimitTx(context.Background(), tx, 9, 2, 10)
    require.NoError(t, err)
    assert.True(t, ok)

    ok, err = repo.IncrementOccupancyIfBelowLimitTx(context.Background(), tx, 9, 1, 10)
    require.NoError(t, err)
    assert.False(t, ok)

    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingDuplicate(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO bookings").
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-9' for key 'uq_bookings_student_program'"})
    mock.ExpectRollback()

    tx, err := db.Begin()
    require.NoError(t, err)
    b := &model.Booking{StudentID: 7, ProgramID: 9, PaymentStatus: model.PaymentPaid}
    err = NewBookingRepo(db).CreateTx(context.Background(), tx, b)
    assert.ErrorIs(t, err, ErrDuplicate)
    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingFillsIDAndTimestamp(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT created_at FROM bookings WHERE id = ?`)).
        WithArgs(uint64(42)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
    mock.ExpectCommit()

    tx, err := db.Begin()
    require.NoError(t, err)
    b := &model.Booking{StudentID: 7, ProgramID: 9, PaymentStatus: model.PaymentPaid}
    require.NoError(t, NewBookingRepo(db).CreateTx(context.Background(), tx, b))
    require.NoError(t, tx.Commit())

    assert.Equal(t, uint64(42), b.ID)
    assert.Equal(t, created, b.CreatedAt)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMembersBulk(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    members := []model.GroupMember{{Name: "a", Email: "a@x.test"}, {Name: "b", Phone: "555"}}
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO group_members (booking_id, name, email, phone) VALUES (?, ?, ?, ?),(?, ?, ?, ?)`)).
        WithArgs(uint64(5), "a", "a@x.test", "", uint64(5), "b", "", "555").
        WillReturnResult(sqlmock.NewResult(1, 2))
    mock.ExpectExec("INSERT INTO group_members").WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectRollback()

    repo := NewBookingRepo(db)
    tx, err := db.Begin()
    require.NoError(t, err)
    require.NoError(t, repo.CreateMembersBulkTx(context.Background(), tx, 5, members))
    assert.NoError(t, repo.CreateMembersBulkTx(context.Background(), tx, 5, nil))
    // a short write is reported so the admission rolls back
    assert.ErrorIs(t, repo.CreateMembersBulkTx(context.Background(), tx, 5, members), ErrConflict)
    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsForStudentAndProgram(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    q := regexp.QuoteMeta(`SELECT 1 FROM bookings WHERE student_id = ? AND program_id = ? LIMIT 1`)
    mock.ExpectQuery(q).WithArgs(uint64(7), uint64(9)).WillReturnRows(sqlmock.NewRows([]string{"1"}))
    mock.ExpectQuery(q).WithArgs(uint64(7), uint64(9)).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

    repo := NewBookingRepo(db)
    ok, err := repo.ExistsForStudentAndProgram(context.Background(), 7, 9)
    require.NoError(t, err)
    assert.False(t, ok)
    ok, err = repo.ExistsForStudentAndProgram(context.Background(), 7, 9)
    require.NoError(t, err)
    assert.True(t, ok)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    q := regexp.QuoteMeta(`UPDATE festivals SET approval_status = ?, is_public = ? WHERE id = ? AND approval_status = ?`)
    mock.ExpectExec(q).WithArgs("APPROVED", true, uint64(3), "PENDING").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(q).WithArgs("REJECTED", false, uint64(3), "PENDING").WillReturnResult(sqlmock.NewResult(0, 0))

    repo := NewFestivalRepo(db)
    ok, err := repo.TransitionStatus(context.Background(), 3, model.ApprovalPending, model.ApprovalApproved)
    require.NoError(t, err)
    assert.True(t, ok)
    ok, err = repo.TransitionStatus(context.Background(), 3, model.ApprovalPending, model.ApprovalRejected)
    require.NoError(t, err)
    assert.False(t, ok)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionTxRollsBackOnMemberFailure(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec("UPDATE programs SET booked_units").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(8, 1))
    mock.ExpectQuery("SELECT created_at FROM bookings").
        WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
    mock.ExpectExec("INSERT INTO group_members").WillReturnError(errors.New("lock wait timeout"))
    mock.ExpectRollback()

    ctx := context.Background()
    tx, err := NewAdmissionStore(db).Begin(ctx)
    require.NoError(t, err)
    ok, err := tx.IncrementOccupancyIfBelowLimit(ctx, 9, 1, 4)
    require.NoError(t, err)
    require.True(t, ok)
    b := &model.Booking{StudentID: 7, ProgramID: 9, IsGroup: true, GroupSize: 2}
    require.NoError(t, tx.InsertBooking(ctx, b))
    err = tx.InsertGroupMembers(ctx, b.ID, []model.GroupMember{{Name: "a"}, {Name: "b"}})
    require.Error(t, err)
    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKey(t *testing.T) {
    assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062}))
    assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1452}))
    assert.False(t, isDuplicateKey(errors.New("1062")))
}
