package model

import (
    "fmt"
    "strings"
    "time"
)

// Role is the closed set of account kinds.  It is stored verbatim in
// users.role and carried in the JWT "role" claim.
type Role string

const (
    RoleStudent Role = "STUDENT"
    RoleCollege Role = "COLLEGE"
    RoleAdmin   Role = "ADMIN"
)

// ParseRole normalizes s and rejects anything outside the three roles.
func ParseRole(s string) (Role, error) {
    switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
    case RoleStudent, RoleCollege, RoleAdmin:
        return r, nil
    }
    return "", fmt.Errorf("unknown role %q", s)
}

// User represents an application user record as stored in the
// `users` table.  Students, colleges and admins share this table and
// are told apart by Role; role specific attributes live in the
// `students` and `colleges` tables keyed by user_id.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  Username     – display name used on bookings and emails.
//  PasswordHash – bcrypt hashed password.
//  Role         – STUDENT, COLLEGE or ADMIN.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    CreatedAt    time.Time // users.created_at
}

// Student extends a user with academic details.
type Student struct {
    User
    CollegeName string // students.college_name
    Course      string // students.course
    Year        int    // students.year
}

// College is the organizer account that owns festivals.
type College struct {
    User
    Name          string // colleges.name
    Address       string // colleges.address
    ContactNumber string // colleges.contact_number
}
