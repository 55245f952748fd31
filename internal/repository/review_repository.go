package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/festival-booking/internal/model"
)

// ReviewRepo stores program reviews.  (program_id, student_id) is
// unique.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review; a second review by the same student for the
// same program yields ErrDuplicate.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO reviews (program_id, student_id, rating, comment) VALUES (?, ?, ?, ?)`,
        rv.ProgramID, rv.StudentID, rv.Rating, rv.Comment)
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
    rv.ID = uint64(id)
    return r.db.QueryRowContext(ctx, `SELECT created_at FROM reviews WHERE id = ?`, rv.ID).Scan(&rv.CreatedAt)
}

// ListByProgram returns a program's reviews, newest first.
func (r *ReviewRepo) ListByProgram(ctx context.Context, programID uint64) ([]model.Review, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT rv.id, rv.program_id, rv.student_id, u.username, rv.rating, COALESCE(rv.comment, ''), rv.created_at
         FROM reviews rv
         JOIN users u ON u.id = rv.student_id
         WHERE rv.program_id = ?
         ORDER BY rv.created_at DESC, rv.id DESC`, programID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Review{}
    for rows.Next() {
        var rv model.Review
        if err := rows.Scan(&rv.ID, &rv.ProgramID, &rv.StudentID, &rv.StudentName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, rv)
    }
    return out, rows.Err()
}
