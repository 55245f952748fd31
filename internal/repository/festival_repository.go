package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/festival-booking/internal/model"
)

// FestivalRepo provides persistence for festivals.  Listing queries
// join the owning college so responses can show its name.
type FestivalRepo struct {
    db *sql.DB
}

// NewFestivalRepo returns a new FestivalRepo bound to the given database.
func NewFestivalRepo(db *sql.DB) *FestivalRepo { return &FestivalRepo{db: db} }

// DB exposes the underlying sql.DB.
func (r *FestivalRepo) DB() *sql.DB { return r.db }

const festivalSelect = `SELECT f.id, f.college_id, COALESCE(c.name, u.username), f.title, f.description,
                               f.start_date, f.end_date, COALESCE(f.image_url, ''), f.approval_status,
                               f.is_public, f.created_at
                        FROM festivals f
                        JOIN users u ON u.id = f.college_id
                        LEFT JOIN colleges c ON c.user_id = f.college_id`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanFestival(s rowScanner) (*model.Festival, error) {
    var f model.Festival
    var status string
    if err := s.Scan(&f.ID, &f.CollegeID, &f.CollegeName, &f.Title, &f.Description,
        &f.StartDate, &f.EndDate, &f.ImageURL, &status, &f.IsPublic, &f.CreatedAt); err != nil {
        return nil, err
    }
    st, err := model.ParseApprovalStatus(status)
    if err != nil {
        return nil, err
    }
    f.ApprovalStatus = st
    return &f, nil
}

// Create inserts a festival.  The status and visibility on f are
// written as given; the ID and CreatedAt are filled in on success.
func (r *FestivalRepo) Create(ctx context.Context, f *model.Festival) error {
    const q = `INSERT INTO festivals (college_id, title, description, start_date, end_date, image_url, approval_status, is_public)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, f.CollegeID, f.Title, f.Description,
        f.StartDate, f.EndDate, f.ImageURL, string(f.ApprovalStatus), f.IsPublic)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    f.ID = uint64(id)
    return r.db.QueryRowContext(ctx, `SELECT created_at FROM festivals WHERE id = ?`, f.ID).Scan(&f.CreatedAt)
}

// GetByID returns a festival or ErrNotFound.
func (r *FestivalRepo) GetByID(ctx context.Context, id uint64) (*model.Festival, error) {
    f, err := scanFestival(r.db.QueryRowContext(ctx, festivalSelect+` WHERE f.id = ?`, id))
    if err != nil {
        return nil, notFound(err)
    }
    return f, nil
}

// TransitionStatus is the compare-and-set behind festival approval.
// Status and visibility are written by one statement guarded by the
// expected current status.
func (r *FestivalRepo) TransitionStatus(ctx context.Context, id uint64, from, to model.ApprovalStatus) (bool, error) {
    const q = `UPDATE festivals SET approval_status = ?, is_public = ? WHERE id = ? AND approval_status = ?`
    res, err := r.db.ExecContext(ctx, q, string(to), to.Visible(), id, string(from))
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

func (r *FestivalRepo) list(ctx context.Context, where string, args ...any) ([]model.Festival, error) {
    rows, err := r.db.QueryContext(ctx, festivalSelect+` WHERE `+where+` ORDER BY f.start_date ASC, f.id ASC`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Festival{}
    for rows.Next() {
        f, err := scanFestival(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *f)
    }
    return out, rows.Err()
}

// ListPublic returns approved festivals visible to everyone.
func (r *FestivalRepo) ListPublic(ctx context.Context) ([]model.Festival, error) {
    return r.list(ctx, `f.approval_status = 'APPROVED' AND f.is_public = TRUE`)
}

// ListByStatus returns festivals in the given approval status.
func (r *FestivalRepo) ListByStatus(ctx context.Context, st model.ApprovalStatus) ([]model.Festival, error) {
    return r.list(ctx, `f.approval_status = ?`, string(st))
}

// ListByCollege returns every festival owned by a college.
func (r *FestivalRepo) ListByCollege(ctx context.Context, collegeID uint64) ([]model.Festival, error) {
    return r.list(ctx, `f.college_id = ?`, collegeID)
}

// DeleteByIDAndOwner removes a festival and its programs provided it
// belongs to the given college and none of its programs has bookings.
// It returns ErrNotFound, ErrForbidden or ErrConflict accordingly.
func (r *FestivalRepo) DeleteByIDAndOwner(ctx context.Context, id, collegeID uint64) (err error) {
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
    if err = tx.QueryRowContext(ctx, `SELECT college_id FROM festivals WHERE id = ? FOR UPDATE`, id).Scan(&owner); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            err = ErrNotFound
        }
        return err
    }
    if owner != collegeID {
        err = ErrForbidden
        return err
    }
    var n int
    if err = tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bookings b JOIN programs p ON p.id = b.program_id WHERE p.festival_id = ?`, id,
    ).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        err = ErrConflict
        return err
    }
    if _, err = tx.ExecContext(ctx, `DELETE FROM programs WHERE festival_id = ?`, id); err != nil {
        return err
    }
    _, err = tx.ExecContext(ctx, `DELETE FROM festivals WHERE id = ?`, id)
    return err
}
