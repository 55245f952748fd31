package service

import (
    "context"
    "fmt"
    "io"

    "github.com/iliyamo/festival-booking/internal/model"
    "github.com/iliyamo/festival-booking/internal/report"
    "github.com/iliyamo/festival-booking/internal/repository"
)

// ReportService gathers a college's bookings for the xlsx export.
type ReportService struct {
    Festivals *repository.FestivalRepo
    Programs  *repository.ProgramRepo
    Bookings  *repository.BookingRepo
}

func NewReportService(f *repository.FestivalRepo, p *repository.ProgramRepo, b *repository.BookingRepo) *ReportService {
    return &ReportService{Festivals: f, Programs: p, Bookings: b}
}

// CollegeBookings returns one entry per program the college runs, with
// bookings and group members filled in.
func (s *ReportService) CollegeBookings(ctx context.Context, collegeID uint64) ([]report.ProgramBookings, error) {
    festivals, err := s.Festivals.ListByCollege(ctx, collegeID)
    if err != nil {
        return nil, fmt.Errorf("list festivals: %w", err)
    }
    titles := make(map[uint64]string, len(festivals))
    for _, f := range festivals {
        titles[f.ID] = f.Title
    }
    programs, err := s.Programs.ListByCollege(ctx, collegeID)
    if err != nil {
        return nil, fmt.Errorf("list programs: %w", err)
    }
    bookings, err := s.Bookings.ListByCollege(ctx, collegeID)
    if err != nil {
        return nil, fmt.Errorf("list bookings: %w", err)
    }
    members, err := s.Bookings.ListMembersByCollege(ctx, collegeID)
    if err != nil {
        return nil, fmt.Errorf("list members: %w", err)
    }
    return GroupByProgram(programs, titles, bookings, members), nil
}

// WriteCollegeReport renders the workbook for collegeID into w.
func (s *ReportService) WriteCollegeReport(ctx context.Context, collegeID uint64, w io.Writer) error {
    data, err := s.CollegeBookings(ctx, collegeID)
    if err != nil {
        return err
    }
    return report.WriteCollegeWorkbook(w, data)
}

// GroupByProgram attaches bookings and members to their programs.
// Programs keep their input order.
func GroupByProgram(programs []model.Program, festivalTitles map[uint64]string, bookings []model.Booking, members map[uint64][]model.GroupMember) []report.ProgramBookings {
    out := make([]report.ProgramBookings, len(programs))
    idx := make(map[uint64]int, len(programs))
    for i, p := range programs {
        out[i] = report.ProgramBookings{Program: p, FestivalName: festivalTitles[p.FestivalID], Members: map[uint64][]model.GroupMember{}}
        idx[p.ID] = i
    }
    for _, b := range bookings {
        i, ok := idx[b.ProgramID]
        if !ok {
            continue
        }
        out[i].Bookings = append(out[i].Bookings, b)
        if ms := members[b.ID]; len(ms) > 0 {
            out[i].Members[b.ID] = ms
        }
    }
    return out
}
