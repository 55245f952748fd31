package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/festival-booking/internal/model"
)

// ProgramRepo manages programs and their occupancy counter.
// booked_units is only ever changed by IncrementOccupancyIfBelowLimitTx.
type ProgramRepo struct {
    db *sql.DB
}

// NewProgramRepo returns a new ProgramRepo bound to the given database.
func NewProgramRepo(db *sql.DB) *ProgramRepo { return &ProgramRepo{db: db} }

// DB exposes the underlying sql.DB so callers can open transactions
// spanning several repositories.
func (r *ProgramRepo) DB() *sql.DB { return r.db }

const programCols = `p.id, p.festival_id, p.title, p.description, p.type, p.program_date, p.program_time,
                     p.venue, p.booking_mode, p.seat_limit, p.team_limit, p.max_group_members,
                     p.ticket_price_cents, p.booked_units, p.created_at`

func scanProgram(s rowScanner, extra ...any) (*model.Program, error) {
    var p model.Program
    var typ, mode string
    var teamLimit, maxMembers sql.NullInt64
    dest := []any{&p.ID, &p.FestivalID, &p.Title, &p.Description, &typ, &p.Date, &p.Time,
        &p.Venue, &mode, &p.SeatLimit, &teamLimit, &maxMembers,
        &p.TicketPriceCents, &p.BookedUnits, &p.CreatedAt}
    if err := s.Scan(append(dest, extra...)...); err != nil {
        return nil, err
    }
    p.Type = model.ProgramType(typ)
    p.Mode = model.BookingMode(mode)
    if teamLimit.Valid {
        v := uint32(teamLimit.Int64)
        p.TeamLimit = &v
    }
    if maxMembers.Valid {
        v := uint32(maxMembers.Int64)
        p.MaxGroupMembers = &v
    }
    return &p, nil
}

// Create inserts a program under an existing festival and fills in its
// ID.  Occupancy always starts at zero.
func (r *ProgramRepo) Create(ctx context.Context, p *model.Program) error {
    const q = `INSERT INTO programs (festival_id, title, description, type, program_date, program_time, venue,
                                     booking_mode, seat_limit, team_limit, max_group_members, ticket_price_cents)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, p.FestivalID, p.Title, p.Description, string(p.Type), p.Date, p.Time,
        p.Venue, string(p.Mode), p.SeatLimit, p.TeamLimit, p.MaxGroupMembers, p.TicketPriceCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    p.BookedUnits = 0
    return r.db.QueryRowContext(ctx, `SELECT created_at FROM programs WHERE id = ?`, p.ID).Scan(&p.CreatedAt)
}

// GetDetail loads a program together with its festival and the
// festival's college name.
func (r *ProgramRepo) GetDetail(ctx context.Context, id uint64) (*model.ProgramDetail, error) {
    q := `SELECT ` + programCols + `,
                 f.id, f.college_id, COALESCE(c.name, u.username), f.title, f.description,
                 f.start_date, f.end_date, COALESCE(f.image_url, ''), f.approval_status, f.is_public, f.created_at
          FROM programs p
          JOIN festivals f ON f.id = p.festival_id
          JOIN users u ON u.id = f.college_id
          LEFT JOIN colleges c ON c.user_id = f.college_id
          WHERE p.id = ?`
    var f model.Festival
    var status string
    p, err := scanProgram(r.db.QueryRowContext(ctx, q, id),
        &f.ID, &f.CollegeID, &f.CollegeName, &f.Title, &f.Description,
        &f.StartDate, &f.EndDate, &f.ImageURL, &status, &f.IsPublic, &f.CreatedAt)
    if err != nil {
        return nil, notFound(err)
    }
    st, err := model.ParseApprovalStatus(status)
    if err != nil {
        return nil, err
    }
    f.ApprovalStatus = st
    return &model.ProgramDetail{Program: *p, Festival: f}, nil
}

func (r *ProgramRepo) list(ctx context.Context, q string, args ...any) ([]model.Program, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Program{}
    for rows.Next() {
        p, err := scanProgram(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    return out, rows.Err()
}

// ListByFestival returns the programs of one festival ordered by date.
func (r *ProgramRepo) ListByFestival(ctx context.Context, festivalID uint64) ([]model.Program, error) {
    return r.list(ctx, `SELECT `+programCols+` FROM programs p WHERE p.festival_id = ?
                        ORDER BY p.program_date ASC, p.id ASC`, festivalID)
}

// ListByCollege returns every program under festivals owned by a college.
func (r *ProgramRepo) ListByCollege(ctx context.Context, collegeID uint64) ([]model.Program, error) {
    return r.list(ctx, `SELECT `+programCols+` FROM programs p
                        JOIN festivals f ON f.id = p.festival_id
                        WHERE f.college_id = ?
                        ORDER BY p.program_date ASC, p.id ASC`, collegeID)
}

// ProgramSearchQuery defines filters & pagination for public search.
type ProgramSearchQuery struct {
    Title    string
    Type     string
    Page     int
    PageSize int
}

// Search returns programs of approved public festivals whose title
// contains Title and whose type equals Type (when set).
func (r *ProgramRepo) Search(ctx context.Context, q ProgramSearchQuery) ([]model.Program, int64, error) {
    where := []string{"f.approval_status = 'APPROVED'", "f.is_public = TRUE"}
    args := []any{}
    if t := strings.TrimSpace(q.Title); t != "" {
        where = append(where, "LOWER(p.title) LIKE ?")
        args = append(args, "%"+strings.ToLower(t)+"%")
    }
    if t := strings.TrimSpace(q.Type); t != "" {
        where = append(where, "p.type = ?")
        args = append(args, strings.ToUpper(t))
    }
    cond := strings.Join(where, " AND ")

    var total int64
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM programs p JOIN festivals f ON f.id = p.festival_id WHERE `+cond, args...,
    ).Scan(&total); err != nil {
        return nil, 0, err
    }
    if q.PageSize <= 0 {
        q.PageSize = 20
    }
    if q.Page <= 0 {
        q.Page = 1
    }
    dataArgs := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
    out, err := r.list(ctx, `SELECT `+programCols+` FROM programs p
                             JOIN festivals f ON f.id = p.festival_id
                             WHERE `+cond+`
                             ORDER BY p.program_date ASC, p.id ASC
                             LIMIT ? OFFSET ?`, dataArgs...)
    if err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// IncrementOccupancyIfBelowLimitTx adds units to booked_units only if
// the result stays within limit.  The guard lives in the WHERE clause,
// so two concurrent admissions cannot both take the last unit.
func (r *ProgramRepo) IncrementOccupancyIfBelowLimitTx(ctx context.Context, tx *sql.Tx, programID uint64, units, limit uint32) (bool, error) {
    const q = `UPDATE programs SET booked_units = booked_units + ? WHERE id = ? AND booked_units + ? <= ?`
    res, err := tx.ExecContext(ctx, q, units, programID, units, limit)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// DeleteByIDAndOwner removes a program if its festival belongs to the
// given college and it has no bookings.
func (r *ProgramRepo) DeleteByIDAndOwner(ctx context.Context, id, collegeID uint64) (err error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback()
        } else {
            err = tx.Commit()
        }
    }()
    var owner uint64
    var booked uint32
    err = tx.QueryRowContext(ctx,
        `SELECT f.college_id, p.booked_units FROM programs p JOIN festivals f ON f.id = p.festival_id
         WHERE p.id = ? FOR UPDATE`, id,
    ).Scan(&owner, &booked)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            err = ErrNotFound
        }
        return err
    }
    if owner != collegeID {
        err = ErrForbidden
        return err
    }
    if booked > 0 {
        err = ErrConflict
        return err
    }
    _, err = tx.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id)
    return err
}
