package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/festival-booking/internal/model"
)

// UserRepo manages the users table and the per-role profile tables
// students and colleges.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// DB exposes the underlying handle for callers that need a transaction.
func (r *UserRepo) DB() *sql.DB { return r.db }

// StudentProfile holds the students row written at registration.
type StudentProfile struct {
    CollegeName string
    Course      string
    Year        int
}

// CollegeProfile holds the colleges row written at registration.
type CollegeProfile struct {
    Name          string
    Address       string
    ContactNumber string
}

// CreateTx inserts a user inside tx and returns its ID.  The email is
// normalized; a taken email yields ErrEmailExists.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, email, username, passwordHash string, role model.Role) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    res, err := tx.ExecContext(ctx,
        "INSERT INTO users (email, username, password_hash, role) VALUES (?,?,?,?)",
        email, strings.TrimSpace(username), passwordHash, string(role))
    if err != nil {
        if isDuplicateKey(err) {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// CreateStudentTx writes the students row for userID.
func (r *UserRepo) CreateStudentTx(ctx context.Context, tx *sql.Tx, userID uint64, p StudentProfile) error {
    _, err := tx.ExecContext(ctx,
        "INSERT INTO students (user_id, college_name, course, year) VALUES (?,?,?,?)",
        userID, p.CollegeName, p.Course, p.Year)
    return err
}

// CreateCollegeTx writes the colleges row for userID.
func (r *UserRepo) CreateCollegeTx(ctx context.Context, tx *sql.Tx, userID uint64, p CollegeProfile) error {
    _, err := tx.ExecContext(ctx,
        "INSERT INTO colleges (user_id, name, address, contact_number) VALUES (?,?,?,?)",
        userID, p.Name, p.Address, p.ContactNumber)
    return err
}

// CountByRoleTx counts users with role, locking the matching rows so
// two concurrent registrations cannot both pass a cap check.
func (r *UserRepo) CountByRoleTx(ctx context.Context, tx *sql.Tx, role model.Role) (int, error) {
    var n int
    err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ? FOR UPDATE", string(role)).Scan(&n)
    return n, err
}

const userCols = "id, email, username, password_hash, role, created_at"

func scanUser(row *sql.Row) (*model.User, error) {
    var u model.User
    var role string
    if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
        return nil, notFound(err)
    }
    u.Role = model.Role(role)
    return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return scanUser(r.db.QueryRowContext(ctx,
        "SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    return scanUser(r.db.QueryRowContext(ctx,
        "SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// GetStudent loads a student account with its profile.  Users that are
// not students are reported as ErrNotFound.
func (r *UserRepo) GetStudent(ctx context.Context, id uint64) (*model.Student, error) {
    const q = `SELECT u.id, u.email, u.username, u.role, u.created_at,
                      COALESCE(s.college_name, ''), COALESCE(s.course, ''), COALESCE(s.year, 0)
               FROM users u
               LEFT JOIN students s ON s.user_id = u.id
               WHERE u.id = ? AND u.role = 'STUDENT'`
    var st model.Student
    var role string
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &st.ID, &st.Email, &st.Username, &role, &st.CreatedAt,
        &st.CollegeName, &st.Course, &st.Year,
    )
    if err != nil {
        return nil, notFound(err)
    }
    st.Role = model.Role(role)
    return &st, nil
}

// GetCollege loads a college account with its profile.
func (r *UserRepo) GetCollege(ctx context.Context, id uint64) (*model.College, error) {
    const q = `SELECT u.id, u.email, u.username, u.role, u.created_at,
                      COALESCE(c.name, u.username), COALESCE(c.address, ''), COALESCE(c.contact_number, '')
               FROM users u
               LEFT JOIN colleges c ON c.user_id = u.id
               WHERE u.id = ? AND u.role = 'COLLEGE'`
    var col model.College
    var role string
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &col.ID, &col.Email, &col.Username, &role, &col.CreatedAt,
        &col.Name, &col.Address, &col.ContactNumber,
    )
    if err != nil {
        return nil, notFound(err)
    }
    col.Role = model.Role(role)
    return &col, nil
}
