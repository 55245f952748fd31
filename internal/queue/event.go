// Package queue carries notification events over RabbitMQ.  Publisher
// puts them on durable queues, Consumer takes them off and hands them to
// an EventHandler (the mailer).
package queue

import (
    "time"

    "github.com/iliyamo/festival-booking/internal/model"
)

const (
    BookingConfirmedQueue = "booking.confirmed"
    FestivalDecidedQueue  = "festival.decided"
)

// Member is a group member as it appears in a confirmation mail.
type Member struct {
    Name  string `json:"name"`
    Email string `json:"email,omitempty"`
}

// BookingConfirmedEvent is published after a booking commits.  It holds
// everything the confirmation mail needs so the consumer never reads the
// database.
type BookingConfirmedEvent struct {
    BookingID        uint64   `json:"booking_id"`
    StudentID        uint64   `json:"student_id"`
    StudentName      string   `json:"student_name"`
    StudentEmail     string   `json:"student_email"`
    ProgramID        uint64   `json:"program_id"`
    ProgramName      string   `json:"program_name"`
    ProgramType      string   `json:"program_type"`
    FestivalName     string   `json:"festival_name"`
    CollegeName      string   `json:"college_name"`
    ProgramDate      string   `json:"program_date"`
    ProgramTime      string   `json:"program_time"`
    Venue            string   `json:"venue"`
    IsGroup          bool     `json:"is_group"`
    GroupSize        uint32   `json:"group_size"`
    Members          []Member `json:"members,omitempty"`
    PaymentStatus    string   `json:"payment_status"`
    TransactionID    string   `json:"transaction_id,omitempty"`
    TotalAmountCents uint32   `json:"total_amount_cents"`
    ConfirmedAt      string   `json:"confirmed_at"`
}

// FestivalDecidedEvent is published when an admin approves or rejects a
// festival.
type FestivalDecidedEvent struct {
    FestivalID    uint64 `json:"festival_id"`
    FestivalTitle string `json:"festival_title"`
    CollegeName   string `json:"college_name"`
    CollegeEmail  string `json:"college_email"`
    Approved      bool   `json:"approved"`
    Status        string `json:"status"`
    DecidedAt     string `json:"decided_at"`
}

func NewBookingConfirmedEvent(b model.Booking, members []model.GroupMember) BookingConfirmedEvent {
    ev := BookingConfirmedEvent{
        BookingID:        b.ID,
        StudentID:        b.StudentID,
        StudentName:      b.Snapshot.StudentName,
        StudentEmail:     b.Snapshot.StudentEmail,
        ProgramID:        b.ProgramID,
        ProgramName:      b.Snapshot.ProgramName,
        ProgramType:      string(b.Snapshot.ProgramType),
        FestivalName:     b.Snapshot.FestivalName,
        CollegeName:      b.Snapshot.CollegeName,
        ProgramDate:      b.Snapshot.ProgramDate.Format("2006-01-02"),
        ProgramTime:      b.Snapshot.ProgramTime,
        Venue:            b.Snapshot.Venue,
        IsGroup:          b.IsGroup,
        GroupSize:        b.GroupSize,
        PaymentStatus:    string(b.PaymentStatus),
        TotalAmountCents: b.TotalAmountCents,
        ConfirmedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
    }
    if b.PaymentRef != nil {
        ev.TransactionID = *b.PaymentRef
    }
    for _, m := range members {
        ev.Members = append(ev.Members, Member{Name: m.Name, Email: m.Email})
    }
    return ev
}

func NewFestivalDecidedEvent(c model.College, f model.Festival, approved bool) FestivalDecidedEvent {
    return FestivalDecidedEvent{
        FestivalID:    f.ID,
        FestivalTitle: f.Title,
        CollegeName:   c.Name,
        CollegeEmail:  c.Email,
        Approved:      approved,
        Status:        string(f.ApprovalStatus),
        DecidedAt:     time.Now().UTC().Format(time.RFC3339),
    }
}
