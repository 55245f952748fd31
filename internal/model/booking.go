package model

import "time"

// PaymentStatus records whether a booking has been paid for.  Free
// programs are settled at admission time.
type PaymentStatus string

const (
    PaymentPending PaymentStatus = "PENDING"
    PaymentPaid    PaymentStatus = "PAID"
)

// Snapshot freezes the display attributes of a booking at admission
// time.  It is written once alongside the booking and never
// re-synchronized with the student, program, festival or college it
// was copied from.
type Snapshot struct {
    StudentName      string    `json:"student_name"`
    StudentEmail     string    `json:"student_email"`
    ProgramName      string    `json:"program_name"`
    ProgramType      string    `json:"program_type"`
    FestivalName     string    `json:"festival_name"`
    CollegeName      string    `json:"college_name"`
    ProgramDate      time.Time `json:"program_date"`
    ProgramTime      string    `json:"program_time"`
    Venue            string    `json:"venue"`
    TicketPriceCents uint32    `json:"ticket_price_cents"`
}

// Booking is one student's (or one team's) reservation of a single
// occupancy unit in a program.
//
// Fields:
//  ID               – primary key identifier.
//  StudentID        – booking owner; unique together with ProgramID.
//  ProgramID        – booked program.
//  IsGroup          – true for a team booking.
//  GroupSize        – declared members; 1 for a solo booking.
//  Units            – occupancy consumed on the program counter.
//  PaymentStatus    – PAID or PENDING.
//  PaymentRef       – gateway payment id; nil for free programs.
//  OrderID          – gateway order id; nil for free programs.
//  TotalAmountCents – amount charged in minor units.
//  Snapshot         – frozen display fields.
//  CreatedAt        – admission timestamp.
//  Members          – team members; set only on the result of admission.
type Booking struct {
    ID               uint64        `json:"id"`
    StudentID        uint64        `json:"student_id"`
    ProgramID        uint64        `json:"program_id"`
    IsGroup          bool          `json:"is_group"`
    GroupSize        uint32        `json:"group_size"`
    Units            uint32        `json:"units"`
    PaymentStatus    PaymentStatus `json:"payment_status"`
    PaymentRef       *string       `json:"payment_ref,omitempty"`
    OrderID          *string       `json:"order_id,omitempty"`
    TotalAmountCents uint32        `json:"total_amount_cents"`
    Snapshot         Snapshot      `json:"snapshot"`
    CreatedAt        time.Time     `json:"created_at"`

    Members []GroupMember `json:"members,omitempty"`
}

// GroupMember is a named participant attached to a group booking.  Rows
// cascade with their booking.
type GroupMember struct {
    ID        uint64 `json:"id"`
    BookingID uint64 `json:"booking_id"`
    Name      string `json:"name"`
    Email     string `json:"email"`
    Phone     string `json:"phone"`
}
