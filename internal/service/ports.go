package service

import (
    "context"

    "github.com/iliyamo/festival-booking/internal/model"
)

// AdmissionStore is the persistence needed to admit and read bookings.
// Lookups report a missing row with repository.ErrNotFound.
type AdmissionStore interface {
    FindProgram(ctx context.Context, programID uint64) (*model.ProgramDetail, error)
    FindStudent(ctx context.Context, studentID uint64) (*model.Student, error)
    ExistsBooking(ctx context.Context, studentID, programID uint64) (bool, error)
    Begin(ctx context.Context) (AdmissionTx, error)
    FindBookingsByProgram(ctx context.Context, programID uint64) ([]model.Booking, error)
    FindBookingsByStudent(ctx context.Context, studentID uint64) ([]model.Booking, error)
    FindBooking(ctx context.Context, bookingID uint64) (*model.Booking, error)
    FindMembers(ctx context.Context, bookingID uint64) ([]model.GroupMember, error)
}

// AdmissionTx is one all-or-nothing admission.  Nothing written through
// it is visible until Commit.
type AdmissionTx interface {
    // IncrementOccupancyIfBelowLimit adds units to the program counter
    // only if the result stays within limit.  It reports whether the
    // increment applied.
    IncrementOccupancyIfBelowLimit(ctx context.Context, programID uint64, units, limit uint32) (bool, error)
    // InsertBooking stores b and fills in its ID and CreatedAt.  A second
    // booking for the same student and program fails with
    // repository.ErrDuplicate.
    InsertBooking(ctx context.Context, b *model.Booking) error
    InsertGroupMembers(ctx context.Context, bookingID uint64, members []model.GroupMember) error
    Commit() error
    Rollback() error
}

// PaymentGateway creates orders with the external payment provider.
type PaymentGateway interface {
    CreateOrder(ctx context.Context, amountMinorUnits uint32, receipt string) (string, error)
}

// Notifier delivers booking and approval notifications.  Callers treat
// it as best effort.
type Notifier interface {
    NotifyBookingConfirmed(ctx context.Context, booking model.Booking, members []model.GroupMember) error
    NotifyFestivalDecision(ctx context.Context, college model.College, festival model.Festival, approved bool) error
}

// FestivalStore is the persistence used by the approval workflow.
type FestivalStore interface {
    GetByID(ctx context.Context, festivalID uint64) (*model.Festival, error)
    // TransitionStatus moves a festival from `from` to `to` and sets
    // is_public to to.Visible() in the same statement.  It reports
    // false when the festival was no longer in `from`.
    TransitionStatus(ctx context.Context, festivalID uint64, from, to model.ApprovalStatus) (bool, error)
}

// CollegeFinder resolves the college that owns a festival.
type CollegeFinder interface {
    GetCollege(ctx context.Context, collegeID uint64) (*model.College, error)
}
