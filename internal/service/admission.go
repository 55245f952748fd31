package service

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "sync"
    "time"
    "unicode/utf8"

    "github.com/google/uuid"
    "github.com/rs/zerolog"

    "github.com/iliyamo/festival-booking/internal/model"
    "github.com/iliyamo/festival-booking/internal/repository"
)

// MaxGroupSize is the largest team a single booking may register.
const MaxGroupSize = 4

const defaultNotifyTimeout = 10 * time.Second

// Column widths, in characters, of the free-text booking fields.
const (
    maxPaymentRefLen  = 100
    maxOrderIDLen     = 100
    maxMemberNameLen  = 120
    maxMemberEmailLen = 255
    maxMemberPhoneLen = 40
)

// AdmissionRequest is a student's request to book a program.
type AdmissionRequest struct {
    StudentID  uint64
    ProgramID  uint64
    IsGroup    bool
    GroupSize  uint32
    Members    []model.GroupMember
    PaymentRef string
    OrderID    string
}

// AdmissionService turns booking requests into persisted bookings.  It
// is the only code path that creates bookings.
type AdmissionService struct {
    Store         AdmissionStore
    Ledger        *Ledger
    Gateway       PaymentGateway
    Notifier      Notifier
    Log           zerolog.Logger
    NotifyTimeout time.Duration

    inflight sync.WaitGroup
}

// NewAdmissionService wires an AdmissionService.  gateway and notifier
// may be nil; a nil gateway fails every paid booking that arrives
// without an order id.
func NewAdmissionService(store AdmissionStore, gateway PaymentGateway, notifier Notifier, log zerolog.Logger) *AdmissionService {
    if store == nil {
        panic("nil store passed to NewAdmissionService")
    }
    return &AdmissionService{
        Store:         store,
        Ledger:        NewLedger(store),
        Gateway:       gateway,
        Notifier:      notifier,
        Log:           log,
        NotifyTimeout: defaultNotifyTimeout,
    }
}

// Admit validates req and persists the booking and its members as one
// unit.  Every precondition is checked before the first write.  The
// returned booking carries the stored members of a group booking.  The
// confirmation is sent after commit and its outcome never affects the
// result.
func (s *AdmissionService) Admit(ctx context.Context, req AdmissionRequest) (*model.Booking, error) {
    exists, err := s.Store.ExistsBooking(ctx, req.StudentID, req.ProgramID)
    if err != nil {
        return nil, fmt.Errorf("check existing booking: %w", err)
    }
    if exists {
        return nil, ConflictError{Reason: ReasonDuplicateBooking, Msg: "you have already booked this program"}
    }

    detail, err := s.Store.FindProgram(ctx, req.ProgramID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Reason: ReasonProgramNotFound, Resource: "program", Err: err}
        }
        return nil, fmt.Errorf("load program: %w", err)
    }
    student, err := s.Store.FindStudent(ctx, req.StudentID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Reason: ReasonStudentNotFound, Resource: "student", Err: err}
        }
        return nil, fmt.Errorf("load student: %w", err)
    }

    if !detail.Festival.Bookable() {
        return nil, ConflictError{Reason: ReasonFestivalUnavailable, Msg: "festival is not open for booking"}
    }

    groupSize, members, err := normalizeGroup(req)
    if err != nil {
        return nil, err
    }

    program := detail.Program
    limit := program.Limit()
    decision := EvaluateCapacity(program.Mode, limit, program.BookedUnits, UnitsFor(program.Mode, groupSize))
    if !decision.Admit {
        return nil, ConflictError{Reason: decision.Reason, Msg: capacityMessage(decision.Reason)}
    }

    booking := &model.Booking{
        StudentID:        student.ID,
        ProgramID:        program.ID,
        IsGroup:          req.IsGroup,
        GroupSize:        groupSize,
        Units:            decision.Delta,
        TotalAmountCents: program.TicketPriceCents,
        Snapshot:         snapshotOf(student, detail),
    }
    if err := s.settlePayment(ctx, booking, req); err != nil {
        return nil, err
    }

    if err := s.persist(ctx, booking, members, *limit, program.Mode); err != nil {
        return nil, err
    }

    s.Log.Info().
        Uint64("booking_id", booking.ID).
        Uint64("program_id", booking.ProgramID).
        Uint64("student_id", booking.StudentID).
        Uint32("units", booking.Units).
        Msg("booking admitted")

    booking.Members = members
    s.dispatchConfirmation(*booking, members)
    return booking, nil
}

// persist runs the conditional increment, the booking insert and the
// member inserts in one transaction.
func (s *AdmissionService) persist(ctx context.Context, booking *model.Booking, members []model.GroupMember, limit uint32, mode model.BookingMode) error {
    tx, err := s.Store.Begin(ctx)
    if err != nil {
        return fmt.Errorf("begin admission: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ok, err := tx.IncrementOccupancyIfBelowLimit(ctx, booking.ProgramID, booking.Units, limit)
    if err != nil {
        return fmt.Errorf("increment occupancy: %w", err)
    }
    if !ok {
        reason := exhaustedReason(mode)
        return ConflictError{Reason: reason, Msg: capacityMessage(reason)}
    }
    if err := tx.InsertBooking(ctx, booking); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return ConflictError{Reason: ReasonDuplicateBooking, Msg: "you have already booked this program", Err: err}
        }
        return fmt.Errorf("insert booking: %w", err)
    }
    if err := s.Ledger.AttachMembers(ctx, tx, booking, members); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit admission: %w", err)
    }
    committed = true
    for i := range members {
        members[i].BookingID = booking.ID
    }
    return nil
}

// settlePayment fills in the payment fields of booking.  Free programs
// are paid on the spot.  Paid programs need the client's payment id and
// a gateway order, created here when the client did not bring one.
func (s *AdmissionService) settlePayment(ctx context.Context, booking *model.Booking, req AdmissionRequest) error {
    if booking.TotalAmountCents == 0 {
        booking.PaymentStatus = model.PaymentPaid
        return nil
    }
    ref := strings.TrimSpace(req.PaymentRef)
    if ref == "" {
        return PaymentRequiredError{AmountCents: booking.TotalAmountCents}
    }
    if tooLong(ref, maxPaymentRefLen) {
        return ValidationError{Reason: ReasonInvalidPaymentRef, Msg: fmt.Sprintf("payment_ref exceeds %d characters", maxPaymentRefLen)}
    }
    orderID := strings.TrimSpace(req.OrderID)
    if tooLong(orderID, maxOrderIDLen) {
        return ValidationError{Reason: ReasonInvalidPaymentRef, Msg: fmt.Sprintf("order_id exceeds %d characters", maxOrderIDLen)}
    }
    if orderID == "" {
        var err error
        orderID, err = s.createOrder(ctx, booking.ProgramID, booking.TotalAmountCents)
        if err != nil {
            return err
        }
    }
    booking.PaymentRef = &ref
    booking.OrderID = &orderID
    booking.PaymentStatus = model.PaymentPaid
    return nil
}

// CreateOrder opens a gateway order for a paid program so the client
// can collect the payment before calling Admit.
func (s *AdmissionService) CreateOrder(ctx context.Context, programID uint64) (string, uint32, error) {
    detail, err := s.Store.FindProgram(ctx, programID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return "", 0, NotFoundError{Reason: ReasonProgramNotFound, Resource: "program", Err: err}
        }
        return "", 0, fmt.Errorf("load program: %w", err)
    }
    if !detail.Festival.Bookable() {
        return "", 0, ConflictError{Reason: ReasonFestivalUnavailable, Msg: "festival is not open for booking"}
    }
    if detail.Program.Free() {
        return "", 0, ValidationError{Reason: ReasonNoPaymentRequired, Msg: "free program, no payment required"}
    }
    orderID, err := s.createOrder(ctx, programID, detail.Program.TicketPriceCents)
    if err != nil {
        return "", 0, err
    }
    return orderID, detail.Program.TicketPriceCents, nil
}

func (s *AdmissionService) createOrder(ctx context.Context, programID uint64, amount uint32) (string, error) {
    if s.Gateway == nil {
        return "", ExternalServiceError{Reason: ReasonPaymentGatewayError, Service: "payment gateway"}
    }
    orderID, err := s.Gateway.CreateOrder(ctx, amount, receiptFor(programID))
    if err != nil {
        return "", ExternalServiceError{Reason: ReasonPaymentGatewayError, Service: "payment gateway", Err: err}
    }
    return orderID, nil
}

// receiptFor builds a gateway receipt reference.  The gateway caps
// receipts at 40 characters.
func receiptFor(programID uint64) string {
    r := fmt.Sprintf("rcpt_%d_%s", programID, strings.ReplaceAll(uuid.NewString(), "-", ""))
    if len(r) > 40 {
        r = r[:40]
    }
    return r
}

// dispatchConfirmation notifies on its own goroutine with a fresh
// context.  Failures are logged only.
func (s *AdmissionService) dispatchConfirmation(booking model.Booking, members []model.GroupMember) {
    if s.Notifier == nil {
        return
    }
    timeout := s.NotifyTimeout
    if timeout <= 0 {
        timeout = defaultNotifyTimeout
    }
    s.inflight.Add(1)
    go func() {
        defer s.inflight.Done()
        ctx, cancel := context.WithTimeout(context.Background(), timeout)
        defer cancel()
        if err := s.Notifier.NotifyBookingConfirmed(ctx, booking, members); err != nil {
            s.Log.Warn().Err(err).
                Uint64("booking_id", booking.ID).
                Msg("booking confirmation not sent")
        }
    }()
}

// Wait blocks until every confirmation started so far has finished.
func (s *AdmissionService) Wait() { s.inflight.Wait() }

// BookingsByStudent lists a student's bookings, newest first.
func (s *AdmissionService) BookingsByStudent(ctx context.Context, studentID uint64) ([]model.Booking, error) {
    return s.Store.FindBookingsByStudent(ctx, studentID)
}

// BookingsByProgram lists a program's bookings, oldest first.
func (s *AdmissionService) BookingsByProgram(ctx context.Context, programID uint64) ([]model.Booking, error) {
    return s.Store.FindBookingsByProgram(ctx, programID)
}

// BookingFor returns a booking owned by studentID.  Someone else's
// booking is reported as not found.
func (s *AdmissionService) BookingFor(ctx context.Context, bookingID, studentID uint64) (*model.Booking, error) {
    b, err := s.Store.FindBooking(ctx, bookingID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Reason: ReasonBookingNotFound, Resource: "booking", Err: err}
        }
        return nil, err
    }
    if b.StudentID != studentID {
        return nil, NotFoundError{Reason: ReasonBookingNotFound, Resource: "booking"}
    }
    return b, nil
}

func normalizeGroup(req AdmissionRequest) (uint32, []model.GroupMember, error) {
    if !req.IsGroup {
        return 1, nil, nil
    }
    if req.GroupSize < 1 || req.GroupSize > MaxGroupSize {
        return 0, nil, ValidationError{
            Reason: ReasonInvalidGroupSize,
            Msg:    fmt.Sprintf("group size must be between 1 and %d", MaxGroupSize),
        }
    }
    if uint32(len(req.Members)) != req.GroupSize {
        return 0, nil, ValidationError{
            Reason: ReasonInvalidGroupSize,
            Msg:    fmt.Sprintf("expected %d members, got %d", req.GroupSize, len(req.Members)),
        }
    }
    members := make([]model.GroupMember, len(req.Members))
    for i, m := range req.Members {
        m.Name = strings.TrimSpace(m.Name)
        m.Email = strings.ToLower(strings.TrimSpace(m.Email))
        m.Phone = strings.TrimSpace(m.Phone)
        if m.Name == "" {
            return 0, nil, ValidationError{Reason: ReasonInvalidMember, Msg: fmt.Sprintf("member %d has no name", i+1)}
        }
        if err := checkMemberWidths(i+1, m); err != nil {
            return 0, nil, err
        }
        members[i] = m
    }
    return req.GroupSize, members, nil
}

func checkMemberWidths(n int, m model.GroupMember) error {
    for _, f := range []struct {
        field string
        value string
        max   int
    }{
        {"name", m.Name, maxMemberNameLen},
        {"email", m.Email, maxMemberEmailLen},
        {"phone", m.Phone, maxMemberPhoneLen},
    } {
        if tooLong(f.value, f.max) {
            return ValidationError{Reason: ReasonInvalidMember, Msg: fmt.Sprintf("member %d %s exceeds %d characters", n, f.field, f.max)}
        }
    }
    return nil
}

// tooLong counts characters, not bytes; the columns are utf8mb4.
func tooLong(s string, max int) bool { return utf8.RuneCountInString(s) > max }

func snapshotOf(student *model.Student, d *model.ProgramDetail) model.Snapshot {
    return model.Snapshot{
        StudentName:      student.Username,
        StudentEmail:     student.Email,
        ProgramName:      d.Program.Title,
        ProgramType:      string(d.Program.Type),
        FestivalName:     d.Festival.Title,
        CollegeName:      d.Festival.CollegeName,
        ProgramDate:      d.Program.Date,
        ProgramTime:      d.Program.Time,
        Venue:            d.Program.Venue,
        TicketPriceCents: d.Program.TicketPriceCents,
    }
}

func capacityMessage(r Reason) string {
    if r == ReasonTeamsExhausted {
        return "no team slots left for this program"
    }
    return "not enough seats left for this program"
}
