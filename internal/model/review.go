package model

import "time"

// Review is a student's rating of a program they booked.  A student
// may review a program at most once.
type Review struct {
    ID          uint64    `json:"id"`
    ProgramID   uint64    `json:"program_id"`
    StudentID   uint64    `json:"student_id"`
    StudentName string    `json:"student_name,omitempty"`
    Rating      uint8     `json:"rating"`
    Comment     string    `json:"comment"`
    CreatedAt   time.Time `json:"created_at"`
}
