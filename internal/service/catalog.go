package service

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/festival-booking/internal/model"
    "github.com/iliyamo/festival-booking/internal/repository"
)

const dateLayout = "2006-01-02"

// CatalogService manages the festivals and programs a college
// publishes.
type CatalogService struct {
    Festivals *repository.FestivalRepo
    Programs  *repository.ProgramRepo
    Now       func() time.Time
}

func NewCatalogService(festivals *repository.FestivalRepo, programs *repository.ProgramRepo) *CatalogService {
    return &CatalogService{Festivals: festivals, Programs: programs, Now: time.Now}
}

// FestivalInput is the college supplied part of a festival.
type FestivalInput struct {
    Title       string `json:"title"`
    Description string `json:"description"`
    StartDate   string `json:"start_date"`
    EndDate     string `json:"end_date"`
    ImageURL    string `json:"image_url"`
}

// ProgramInput is the college supplied part of a program.
type ProgramInput struct {
    Title            string  `json:"title"`
    Description      string  `json:"description"`
    Type             string  `json:"type"`
    Date             string  `json:"date"`
    Time             string  `json:"time"`
    Venue            string  `json:"venue"`
    BookingMode      string  `json:"booking_mode"`
    SeatLimit        uint32  `json:"seat_limit"`
    TeamLimit        *uint32 `json:"team_limit"`
    MaxGroupMembers  *uint32 `json:"max_group_members"`
    TicketPriceCents uint32  `json:"ticket_price_cents"`
}

func invalid(msg string) error {
    return ValidationError{Reason: ReasonInvalidInput, Msg: msg}
}

func parseDay(field, s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, invalid(field + " is required")
    }
    d, err := time.ParseInLocation(dateLayout, s, time.UTC)
    if err != nil {
        return time.Time{}, invalid(field + " must be YYYY-MM-DD")
    }
    return d, nil
}

// ValidateFestival checks a festival draft.  Festivals cannot start in
// the past and cannot end before they start.
func (s *CatalogService) ValidateFestival(in FestivalInput) (start, end time.Time, err error) {
    if strings.TrimSpace(in.Title) == "" {
        return start, end, invalid("title is required")
    }
    if start, err = parseDay("start_date", in.StartDate); err != nil {
        return
    }
    if end, err = parseDay("end_date", in.EndDate); err != nil {
        return
    }
    if start.After(end) {
        return start, end, invalid("start_date must not be after end_date")
    }
    now := s.Now().UTC()
    today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
    if start.Before(today) {
        return start, end, invalid("start_date cannot be in the past")
    }
    return start, end, nil
}

// CreateFestival stores a new festival for collegeID.  New festivals
// start PENDING and hidden until an administrator approves them.
func (s *CatalogService) CreateFestival(ctx context.Context, collegeID uint64, in FestivalInput) (*model.Festival, error) {
    start, end, err := s.ValidateFestival(in)
    if err != nil {
        return nil, err
    }
    f := &model.Festival{
        CollegeID:      collegeID,
        Title:          strings.TrimSpace(in.Title),
        Description:    strings.TrimSpace(in.Description),
        StartDate:      start,
        EndDate:        end,
        ImageURL:       strings.TrimSpace(in.ImageURL),
        ApprovalStatus: model.ApprovalPending,
        IsPublic:       model.ApprovalPending.Visible(),
    }
    if err := s.Festivals.Create(ctx, f); err != nil {
        return nil, fmt.Errorf("create festival: %w", err)
    }
    return f, nil
}

// BuildProgram validates in and returns the program it describes.
func BuildProgram(festivalID uint64, in ProgramInput) (*model.Program, error) {
    if strings.TrimSpace(in.Title) == "" {
        return nil, invalid("title is required")
    }
    mode, err := model.ParseBookingMode(in.BookingMode)
    if err != nil {
        return nil, invalid("booking_mode must be solo or group")
    }
    typ, err := model.ParseProgramType(in.Type)
    if err != nil {
        return nil, invalid("unknown program type")
    }
    date, err := parseDay("date", in.Date)
    if err != nil {
        return nil, err
    }
    p := &model.Program{
        FestivalID:       festivalID,
        Title:            strings.TrimSpace(in.Title),
        Description:      strings.TrimSpace(in.Description),
        Type:             typ,
        Date:             date,
        Time:             strings.TrimSpace(in.Time),
        Venue:            strings.TrimSpace(in.Venue),
        Mode:             mode,
        SeatLimit:        in.SeatLimit,
        TicketPriceCents: in.TicketPriceCents,
    }
    switch mode {
    case model.ModeSolo:
        if in.SeatLimit == 0 {
            return nil, invalid("seat_limit must be positive for solo programs")
        }
    case model.ModeGroup:
        if in.TeamLimit == nil || *in.TeamLimit == 0 {
            return nil, invalid("team_limit must be positive for group programs")
        }
        if in.MaxGroupMembers != nil && (*in.MaxGroupMembers == 0 || *in.MaxGroupMembers > MaxGroupSize) {
            return nil, invalid(fmt.Sprintf("max_group_members must be between 1 and %d", MaxGroupSize))
        }
        p.TeamLimit = in.TeamLimit
        p.MaxGroupMembers = in.MaxGroupMembers
    }
    return p, nil
}

// AddProgram creates a program under a festival owned by collegeID.
// Rejected festivals take no new programs.
func (s *CatalogService) AddProgram(ctx context.Context, collegeID, festivalID uint64, in ProgramInput) (*model.Program, error) {
    p, err := BuildProgram(festivalID, in)
    if err != nil {
        return nil, err
    }
    f, err := s.Festivals.GetByID(ctx, festivalID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Reason: ReasonFestivalNotFound, Resource: "festival", Err: err}
        }
        return nil, fmt.Errorf("load festival: %w", err)
    }
    if f.CollegeID != collegeID {
        return nil, ForbiddenError{Reason: ReasonNotOwner, Msg: "festival belongs to another college"}
    }
    if f.ApprovalStatus == model.ApprovalRejected {
        return nil, ConflictError{Reason: ReasonFestivalUnavailable, Msg: "festival was rejected"}
    }
    if err := s.Programs.Create(ctx, p); err != nil {
        return nil, fmt.Errorf("create program: %w", err)
    }
    return p, nil
}

// DeleteFestival removes a festival owned by collegeID that has no
// bookings.
func (s *CatalogService) DeleteFestival(ctx context.Context, collegeID, festivalID uint64) error {
    return ownedDeleteError("festival", ReasonFestivalNotFound,
        s.Festivals.DeleteByIDAndOwner(ctx, festivalID, collegeID))
}

// DeleteProgram removes a program owned by collegeID that has no
// bookings.
func (s *CatalogService) DeleteProgram(ctx context.Context, collegeID, programID uint64) error {
    return ownedDeleteError("program", ReasonProgramNotFound,
        s.Programs.DeleteByIDAndOwner(ctx, programID, collegeID))
}

// ProgramOwnedBy loads a program and checks that collegeID owns its
// festival.
func (s *CatalogService) ProgramOwnedBy(ctx context.Context, collegeID, programID uint64) (*model.ProgramDetail, error) {
    d, err := s.Programs.GetDetail(ctx, programID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Reason: ReasonProgramNotFound, Resource: "program", Err: err}
        }
        return nil, err
    }
    if d.Festival.CollegeID != collegeID {
        return nil, ForbiddenError{Reason: ReasonNotOwner, Msg: "program belongs to another college"}
    }
    return d, nil
}

func ownedDeleteError(resource string, nf Reason, err error) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, repository.ErrNotFound):
        return NotFoundError{Reason: nf, Resource: resource, Err: err}
    case errors.Is(err, repository.ErrForbidden):
        return ForbiddenError{Reason: ReasonNotOwner, Msg: resource + " belongs to another college"}
    case errors.Is(err, repository.ErrConflict):
        return ConflictError{Reason: ReasonHasBookings, Msg: resource + " already has bookings", Err: err}
    }
    return fmt.Errorf("delete %s: %w", resource, err)
}

// FestivalDetail is a festival with its programs.
type FestivalDetail struct {
    model.Festival
    Programs []model.Program `json:"programs"`
}

// PublicFestivals lists approved festivals.
func (s *CatalogService) PublicFestivals(ctx context.Context) ([]model.Festival, error) {
    return s.Festivals.ListPublic(ctx)
}

// PublicFestival returns an approved festival with its programs.
// Pending and rejected festivals are reported as not found.
func (s *CatalogService) PublicFestival(ctx context.Context, id uint64) (*FestivalDetail, error) {
    f, err := s.Festivals.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Reason: ReasonFestivalNotFound, Resource: "festival", Err: err}
        }
        return nil, err
    }
    if !f.Bookable() {
        return nil, NotFoundError{Reason: ReasonFestivalNotFound, Resource: "festival"}
    }
    programs, err := s.Programs.ListByFestival(ctx, id)
    if err != nil {
        return nil, fmt.Errorf("list programs: %w", err)
    }
    return &FestivalDetail{Festival: *f, Programs: programs}, nil
}

// SearchPrograms finds programs of approved festivals.
func (s *CatalogService) SearchPrograms(ctx context.Context, q repository.ProgramSearchQuery) ([]model.Program, int64, error) {
    if q.Type != "" {
        t, err := model.ParseProgramType(q.Type)
        if err != nil {
            return nil, 0, invalid(err.Error())
        }
        q.Type = string(t)
    }
    return s.Programs.Search(ctx, q)
}

// CollegeFestivals lists every festival of a college, whatever its status.
func (s *CatalogService) CollegeFestivals(ctx context.Context, collegeID uint64) ([]model.Festival, error) {
    return s.Festivals.ListByCollege(ctx, collegeID)
}

// CollegePrograms lists the programs of all festivals of a college.
func (s *CatalogService) CollegePrograms(ctx context.Context, collegeID uint64) ([]model.Program, error) {
    return s.Programs.ListByCollege(ctx, collegeID)
}

// FestivalsByStatus is the admin review queue.
func (s *CatalogService) FestivalsByStatus(ctx context.Context, status string) ([]model.Festival, error) {
    st := model.ApprovalPending
    if status != "" {
        var err error
        if st, err = model.ParseApprovalStatus(status); err != nil {
            return nil, invalid(err.Error())
        }
    }
    return s.Festivals.ListByStatus(ctx, st)
}
