package model

import (
    "fmt"
    "strings"
    "time"
)

// ApprovalStatus is the festival lifecycle.  Only three values exist;
// anything else read from a request or a row is rejected by
// ParseApprovalStatus.
type ApprovalStatus string

const (
    ApprovalPending  ApprovalStatus = "PENDING"
    ApprovalApproved ApprovalStatus = "APPROVED"
    ApprovalRejected ApprovalStatus = "REJECTED"
)

// ParseApprovalStatus converts s into an ApprovalStatus.  Matching is
// case-insensitive.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
    switch st := ApprovalStatus(strings.ToUpper(strings.TrimSpace(s))); st {
    case ApprovalPending, ApprovalApproved, ApprovalRejected:
        return st, nil
    }
    return "", fmt.Errorf("unknown approval status %q", s)
}

// CanTransition reports whether an administrator may move a festival
// from s to next.  APPROVED and REJECTED are terminal.
func (s ApprovalStatus) CanTransition(next ApprovalStatus) bool {
    return s == ApprovalPending && (next == ApprovalApproved || next == ApprovalRejected)
}

// Visible is the derived is_public flag.  It is written together with
// the status and never set on its own.
func (s ApprovalStatus) Visible() bool { return s == ApprovalApproved }

// Festival is a container of programs owned by one college.
//
// Fields:
//  ID             – primary key identifier.
//  CollegeID      – owning college (users.id of the college account).
//  CollegeName    – denormalized for listings; not stored on festivals.
//  Title          – festival name.
//  Description    – free text.
//  StartDate      – first day (date only, UTC).
//  EndDate        – last day (date only, UTC).
//  ImageURL       – optional banner.
//  ApprovalStatus – PENDING, APPROVED or REJECTED.
//  IsPublic       – true iff ApprovalStatus is APPROVED.
//  CreatedAt      – creation timestamp.
type Festival struct {
    ID             uint64         `json:"id"`
    CollegeID      uint64         `json:"college_id"`
    CollegeName    string         `json:"college_name,omitempty"`
    Title          string         `json:"title"`
    Description    string         `json:"description"`
    StartDate      time.Time      `json:"start_date"`
    EndDate        time.Time      `json:"end_date"`
    ImageURL       string         `json:"image_url,omitempty"`
    ApprovalStatus ApprovalStatus `json:"approval_status"`
    IsPublic       bool           `json:"is_public"`
    CreatedAt      time.Time      `json:"created_at"`
}

// Bookable reports whether programs under f may accept bookings.
func (f Festival) Bookable() bool {
    return f.ApprovalStatus == ApprovalApproved && f.IsPublic
}
