package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/festival-booking/internal/model"
)

// BookingRepo provides persistence for bookings and their group
// members.  Bookings carry a frozen snapshot of the program, festival
// and student they were made for; reads return the snapshot as stored
// and never join back to the source tables for display fields.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingCols = `b.id, b.student_id, b.program_id, b.is_group, b.group_size, b.units, b.payment_status,
                     b.payment_ref, b.order_id, b.total_amount_cents, b.student_name, b.student_email,
                     b.program_name, b.program_type, b.festival_name, b.college_name, b.program_date,
                     b.program_time, b.venue, b.ticket_price_cents, b.created_at`

func scanBooking(s rowScanner) (*model.Booking, error) {
    var b model.Booking
    var status string
    var ref, order sql.NullString
    err := s.Scan(&b.ID, &b.StudentID, &b.ProgramID, &b.IsGroup, &b.GroupSize, &b.Units, &status,
        &ref, &order, &b.TotalAmountCents, &b.Snapshot.StudentName, &b.Snapshot.StudentEmail,
        &b.Snapshot.ProgramName, &b.Snapshot.ProgramType, &b.Snapshot.FestivalName, &b.Snapshot.CollegeName,
        &b.Snapshot.ProgramDate, &b.Snapshot.ProgramTime, &b.Snapshot.Venue, &b.Snapshot.TicketPriceCents,
        &b.CreatedAt)
    if err != nil {
        return nil, err
    }
    b.PaymentStatus = model.PaymentStatus(status)
    if ref.Valid {
        v := ref.String
        b.PaymentRef = &v
    }
    if order.Valid {
        v := order.String
        b.OrderID = &v
    }
    return &b, nil
}

// ExistsForStudentAndProgram reports whether a student already booked
// the program.
func (r *BookingRepo) ExistsForStudentAndProgram(ctx context.Context, studentID, programID uint64) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM bookings WHERE student_id = ? AND program_id = ? LIMIT 1`, studentID, programID,
    ).Scan(&one)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// CreateTx inserts a booking within the scope of an existing
// transaction and populates its ID and created_at.  A second booking
// for the same (student, program) yields ErrDuplicate.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (student_id, program_id, is_group, group_size, units, payment_status,
                                     payment_ref, order_id, total_amount_cents, student_name, student_email,
                                     program_name, program_type, festival_name, college_name, program_date,
                                     program_time, venue, ticket_price_cents)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    s := b.Snapshot
    res, err := tx.ExecContext(ctx, q, b.StudentID, b.ProgramID, b.IsGroup, b.GroupSize, b.Units,
        string(b.PaymentStatus), b.PaymentRef, b.OrderID, b.TotalAmountCents, s.StudentName, s.StudentEmail,
        s.ProgramName, s.ProgramType, s.FestivalName, s.CollegeName, s.ProgramDate,
        s.ProgramTime, s.Venue, s.TicketPriceCents)
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt)
}

// CreateMembersBulkTx inserts all members of a booking in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreateMembersBulkTx(ctx context.Context, tx *sql.Tx, bookingID uint64, members []model.GroupMember) error {
    if len(members) == 0 {
        return nil
    }
    var sb strings.Builder
    sb.WriteString(`INSERT INTO group_members (booking_id, name, email, phone) VALUES `)
    args := make([]any, 0, len(members)*4)
    for i, m := range members {
        if i > 0 {
            sb.WriteString(",")
        }
        sb.WriteString("(?, ?, ?, ?)")
        args = append(args, bookingID, m.Name, m.Email, m.Phone)
    }
    res, err := tx.ExecContext(ctx, sb.String(), args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if int(n) != len(members) {
        return ErrConflict
    }
    return nil
}

// GetByID returns a booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings b WHERE b.id = ?`, id))
    if err != nil {
        return nil, notFound(err)
    }
    return b, nil
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Booking{}
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    return out, rows.Err()
}

// ListByStudent returns a student's bookings, newest first.
func (r *BookingRepo) ListByStudent(ctx context.Context, studentID uint64) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingCols+` FROM bookings b WHERE b.student_id = ? ORDER BY b.created_at DESC, b.id DESC`, studentID)
}

// ListByProgram returns a program's bookings in admission order.
func (r *BookingRepo) ListByProgram(ctx context.Context, programID uint64) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingCols+` FROM bookings b WHERE b.program_id = ? ORDER BY b.id ASC`, programID)
}

// ListByCollege returns every booking of every program owned by a
// college, grouped by program.
func (r *BookingRepo) ListByCollege(ctx context.Context, collegeID uint64) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingCols+` FROM bookings b
                        JOIN programs p ON p.id = b.program_id
                        JOIN festivals f ON f.id = p.festival_id
                        WHERE f.college_id = ?
                        ORDER BY b.program_id ASC, b.id ASC`, collegeID)
}

// ListMembers returns the members of one booking in insertion order.
func (r *BookingRepo) ListMembers(ctx context.Context, bookingID uint64) ([]model.GroupMember, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, booking_id, name, COALESCE(email, ''), COALESCE(phone, '') FROM group_members WHERE booking_id = ? ORDER BY id ASC`,
        bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.GroupMember{}
    for rows.Next() {
        var m model.GroupMember
        if err := rows.Scan(&m.ID, &m.BookingID, &m.Name, &m.Email, &m.Phone); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// ListMembersByCollege returns the members of every booking of a
// college keyed by booking ID.
func (r *BookingRepo) ListMembersByCollege(ctx context.Context, collegeID uint64) (map[uint64][]model.GroupMember, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT gm.id, gm.booking_id, gm.name, COALESCE(gm.email, ''), COALESCE(gm.phone, '')
         FROM group_members gm
         JOIN bookings b ON b.id = gm.booking_id
         JOIN programs p ON p.id = b.program_id
         JOIN festivals f ON f.id = p.festival_id
         WHERE f.college_id = ?
         ORDER BY gm.booking_id ASC, gm.id ASC`, collegeID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := map[uint64][]model.GroupMember{}
    for rows.Next() {
        var m model.GroupMember
        if err := rows.Scan(&m.ID, &m.BookingID, &m.Name, &m.Email, &m.Phone); err != nil {
            return nil, err
        }
        out[m.BookingID] = append(out[m.BookingID], m)
    }
    return out, rows.Err()
}
