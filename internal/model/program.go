package model

import (
    "fmt"
    "strings"
    "time"
)

// BookingMode decides how a program's capacity is counted.
type BookingMode string

const (
    // ModeSolo counts seats against SeatLimit.
    ModeSolo BookingMode = "solo"
    // ModeGroup counts teams against TeamLimit.
    ModeGroup BookingMode = "group"
)

// ParseBookingMode accepts "solo" or "group" in any case.  An empty
// string defaults to solo, matching the column default.
func ParseBookingMode(s string) (BookingMode, error) {
    switch m := BookingMode(strings.ToLower(strings.TrimSpace(s))); m {
    case "":
        return ModeSolo, nil
    case ModeSolo, ModeGroup:
        return m, nil
    }
    return "", fmt.Errorf("unknown booking mode %q", s)
}

// ProgramType classifies a program for search and reporting.
type ProgramType string

const (
    ProgramHackathon   ProgramType = "HACKATHON"
    ProgramWorkshop    ProgramType = "WORKSHOP"
    ProgramCompetition ProgramType = "COMPETITION"
    ProgramCultural    ProgramType = "CULTURAL"
    ProgramSeminar     ProgramType = "SEMINAR"
    ProgramOther       ProgramType = "OTHER"
)

// ParseProgramType upper-cases s and falls back to OTHER when empty.
func ParseProgramType(s string) (ProgramType, error) {
    switch t := ProgramType(strings.ToUpper(strings.TrimSpace(s))); t {
    case "":
        return ProgramOther, nil
    case ProgramHackathon, ProgramWorkshop, ProgramCompetition, ProgramCultural, ProgramSeminar, ProgramOther:
        return t, nil
    }
    return "", fmt.Errorf("unknown program type %q", s)
}

// Program is an offering within a festival.
//
// Fields:
//  ID               – primary key identifier.
//  FestivalID       – owning festival.
//  Title            – program name.
//  Description      – free text.
//  Type             – HACKATHON, WORKSHOP, ...
//  Date             – day of the program (date only).
//  Time             – free-form start time as entered by the college.
//  Venue            – location.
//  Mode             – solo or group.
//  SeatLimit        – capacity in seats for solo mode.
//  TeamLimit        – capacity in teams for group mode; nil means zero.
//  MaxGroupMembers  – advisory upper bound shown to students.
//  TicketPriceCents – price in minor units; 0 means free.
//  BookedUnits      – occupancy counter maintained by admission.
//  CreatedAt        – creation timestamp.
type Program struct {
    ID               uint64      `json:"id"`
    FestivalID       uint64      `json:"festival_id"`
    Title            string      `json:"title"`
    Description      string      `json:"description"`
    Type             ProgramType `json:"type"`
    Date             time.Time   `json:"date"`
    Time             string      `json:"time"`
    Venue            string      `json:"venue"`
    Mode             BookingMode `json:"booking_mode"`
    SeatLimit        uint32      `json:"seat_limit"`
    TeamLimit        *uint32     `json:"team_limit,omitempty"`
    MaxGroupMembers  *uint32     `json:"max_group_members,omitempty"`
    TicketPriceCents uint32      `json:"ticket_price_cents"`
    BookedUnits      uint32      `json:"booked_units"`
    CreatedAt        time.Time   `json:"created_at"`
}

// Limit returns the capacity applicable to the program's mode.  The
// result is nil when a group program has no team limit configured.
func (p Program) Limit() *uint32 {
    if p.Mode == ModeGroup {
        return p.TeamLimit
    }
    limit := p.SeatLimit
    return &limit
}

// Free reports whether the program needs no payment.
func (p Program) Free() bool { return p.TicketPriceCents == 0 }

// ProgramDetail joins a program with its festival and the festival's
// college.  Admission reads it once and copies what it needs into the
// booking snapshot.
type ProgramDetail struct {
    Program  Program
    Festival Festival
}
