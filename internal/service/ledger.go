package service

import (
    "context"
    "fmt"

    "github.com/iliyamo/festival-booking/internal/model"
)

// MemberReader reads group members back for display.
type MemberReader interface {
    FindMembers(ctx context.Context, bookingID uint64) ([]model.GroupMember, error)
}

// Ledger owns the association between a booking and its members.  The
// member count of a group booking always equals its GroupSize.
type Ledger struct {
    Members MemberReader
}

// NewLedger returns a Ledger reading through r.
func NewLedger(r MemberReader) *Ledger { return &Ledger{Members: r} }

// AttachMembers writes members for booking inside tx.  A solo booking
// must come with no members; a group booking with exactly GroupSize of
// them.  Any write failure is a PartialWriteError and the caller must
// roll tx back.
func (l *Ledger) AttachMembers(ctx context.Context, tx AdmissionTx, booking *model.Booking, members []model.GroupMember) error {
    if !booking.IsGroup {
        if len(members) > 0 {
            return ValidationError{Reason: ReasonInvalidGroupSize, Msg: "solo booking cannot carry group members"}
        }
        return nil
    }
    if uint32(len(members)) != booking.GroupSize {
        return ValidationError{
            Reason: ReasonInvalidGroupSize,
            Msg:    fmt.Sprintf("group of %d needs %d members, got %d", booking.GroupSize, booking.GroupSize, len(members)),
        }
    }
    rows := make([]model.GroupMember, len(members))
    for i, m := range members {
        m.BookingID = booking.ID
        rows[i] = m
    }
    if err := tx.InsertGroupMembers(ctx, booking.ID, rows); err != nil {
        return PartialWriteError{Written: 0, Wanted: len(rows), Err: err}
    }
    return nil
}

// MembersOf returns the members of a booking in insertion order.
func (l *Ledger) MembersOf(ctx context.Context, bookingID uint64) ([]model.GroupMember, error) {
    return l.Members.FindMembers(ctx, bookingID)
}
