package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/festival-booking/internal/model"
)

// AdmissionStore bundles the repositories booking admission reads and
// writes through.  Writes happen on an AdmissionTx obtained from Begin.
type AdmissionStore struct {
    Programs *ProgramRepo
    Users    *UserRepo
    Bookings *BookingRepo
}

// NewAdmissionStore returns an AdmissionStore over db.
func NewAdmissionStore(db *sql.DB) *AdmissionStore {
    return &AdmissionStore{
        Programs: NewProgramRepo(db),
        Users:    NewUserRepo(db),
        Bookings: NewBookingRepo(db),
    }
}

func (s *AdmissionStore) FindProgram(ctx context.Context, programID uint64) (*model.ProgramDetail, error) {
    return s.Programs.GetDetail(ctx, programID)
}

func (s *AdmissionStore) FindStudent(ctx context.Context, studentID uint64) (*model.Student, error) {
    return s.Users.GetStudent(ctx, studentID)
}

func (s *AdmissionStore) ExistsBooking(ctx context.Context, studentID, programID uint64) (bool, error) {
    return s.Bookings.ExistsForStudentAndProgram(ctx, studentID, programID)
}

func (s *AdmissionStore) FindBookingsByProgram(ctx context.Context, programID uint64) ([]model.Booking, error) {
    return s.Bookings.ListByProgram(ctx, programID)
}

func (s *AdmissionStore) FindBookingsByStudent(ctx context.Context, studentID uint64) ([]model.Booking, error) {
    return s.Bookings.ListByStudent(ctx, studentID)
}

func (s *AdmissionStore) FindBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    return s.Bookings.GetByID(ctx, bookingID)
}

func (s *AdmissionStore) FindMembers(ctx context.Context, bookingID uint64) ([]model.GroupMember, error) {
    return s.Bookings.ListMembers(ctx, bookingID)
}

// Begin opens the transaction one admission runs in.
func (s *AdmissionStore) Begin(ctx context.Context) (*AdmissionTx, error) {
    tx, err := s.Programs.DB().BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    return &AdmissionTx{tx: tx, store: s}, nil
}

// AdmissionTx is a single admission transaction.
type AdmissionTx struct {
    tx    *sql.Tx
    store *AdmissionStore
}

func (t *AdmissionTx) IncrementOccupancyIfBelowLimit(ctx context.Context, programID uint64, units, limit uint32) (bool, error) {
    return t.store.Programs.IncrementOccupancyIfBelowLimitTx(ctx, t.tx, programID, units, limit)
}

func (t *AdmissionTx) InsertBooking(ctx context.Context, b *model.Booking) error {
    return t.store.Bookings.CreateTx(ctx, t.tx, b)
}

func (t *AdmissionTx) InsertGroupMembers(ctx context.Context, bookingID uint64, members []model.GroupMember) error {
    return t.store.Bookings.CreateMembersBulkTx(ctx, t.tx, bookingID, members)
}

func (t *AdmissionTx) Commit() error   { return t.tx.Commit() }
func (t *AdmissionTx) Rollback() error { return t.tx.Rollback() }
