// Package report renders college booking workbooks and printable
// booking passes.
package report

import (
    "fmt"
    "io"
    "regexp"
    "strconv"
    "strings"
    "unicode/utf8"

    "github.com/xuri/excelize/v2"

    "github.com/iliyamo/festival-booking/internal/model"
)

const (
    summarySheet  = "Summary"
    maxSheetName  = 31
    dateLayout    = "2006-01-02"
    noProgramsMsg = "No programs found for this college."
)

var (
    summaryHeaders = []string{"Program Name", "Festival", "Date", "Time", "Venue",
        "Total Bookings", "Solo Bookings", "Group Bookings", "Total Revenue"}
    programHeaders = []string{"Student Name", "Email", "Booking Type", "Group Size",
        "Members", "Payment Status", "Transaction ID", "Amount"}
    unsafeSheetChars = regexp.MustCompile(`[^a-zA-Z0-9 ]+`)
)

// ProgramBookings is one program with the bookings made against it.
// Members is keyed by booking id.
type ProgramBookings struct {
    Program      model.Program
    FestivalName string
    Bookings     []model.Booking
    Members      map[uint64][]model.GroupMember
}

// CollegeWorkbook builds the Summary sheet and one sheet per program.
// The caller owns the returned file and must Close it.
func CollegeWorkbook(programs []ProgramBookings) (*excelize.File, error) {
    f := excelize.NewFile()
    if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
        _ = f.Close()
        return nil, err
    }
    st, err := newStyles(f)
    if err != nil {
        _ = f.Close()
        return nil, err
    }
    if err := writeSummary(f, st, programs); err != nil {
        _ = f.Close()
        return nil, fmt.Errorf("summary sheet: %w", err)
    }
    used := map[string]bool{strings.ToLower(summarySheet): true}
    for _, pb := range programs {
        name := SheetName(pb.Program.Title, pb.Program.ID, used)
        if err := writeProgramSheet(f, st, name, pb); err != nil {
            _ = f.Close()
            return nil, fmt.Errorf("program %d sheet: %w", pb.Program.ID, err)
        }
    }
    f.SetActiveSheet(0)
    return f, nil
}

// WriteCollegeWorkbook streams the workbook as xlsx to w.
func WriteCollegeWorkbook(w io.Writer, programs []ProgramBookings) error {
    f, err := CollegeWorkbook(programs)
    if err != nil {
        return err
    }
    defer f.Close()
    return f.Write(w)
}

// SheetName derives a unique sheet name of at most 31 characters from a
// program title.  Names already in used (lower-cased) are skipped; the
// chosen name is added to used.
func SheetName(title string, id uint64, used map[string]bool) string {
    base := strings.TrimSpace(unsafeSheetChars.ReplaceAllString(title, ""))
    suffix := "_" + strconv.FormatUint(id, 10)
    name := fit(base, suffix)
    for n := 1; used[strings.ToLower(name)]; n++ {
        name = fit(base, suffix+"_"+strconv.Itoa(n))
    }
    used[strings.ToLower(name)] = true
    return name
}

// fit truncates base so base+suffix stays within the sheet name limit.
func fit(base, suffix string) string {
    room := maxSheetName - utf8.RuneCountInString(suffix)
    if room < 0 {
        return suffix[:maxSheetName]
    }
    if utf8.RuneCountInString(base) > room {
        base = string([]rune(base)[:room])
    }
    return base + suffix
}

type styles struct {
    title, header, data int
}

func newStyles(f *excelize.File) (styles, error) {
    var s styles
    var err error
    if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
        return s, err
    }
    if s.header, err = f.NewStyle(&excelize.Style{
        Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
        Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F81BD"}},
        Border: thinBorder(),
    }); err != nil {
        return s, err
    }
    s.data, err = f.NewStyle(&excelize.Style{Border: thinBorder()})
    return s, err
}

func thinBorder() []excelize.Border {
    out := make([]excelize.Border, 0, 4)
    for _, side := range []string{"left", "top", "right", "bottom"} {
        out = append(out, excelize.Border{Type: side, Color: "BFBFBF", Style: 1})
    }
    return out
}

func cell(col, row int) string {
    name, _ := excelize.CoordinatesToCellName(col, row)
    return name
}

func writeTitle(f *excelize.File, st styles, sheet, title string, lastCol int) error {
    if err := f.SetCellValue(sheet, "A1", title); err != nil {
        return err
    }
    if err := f.MergeCell(sheet, "A1", cell(lastCol, 1)); err != nil {
        return err
    }
    return f.SetCellStyle(sheet, "A1", "A1", st.title)
}

func writeRow(f *excelize.File, sheet string, row int, style int, values []interface{}) error {
    if err := f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
        return err
    }
    return f.SetCellStyle(sheet, cell(1, row), cell(len(values), row), style)
}

func headerRow(headers []string) []interface{} {
    out := make([]interface{}, len(headers))
    for i, h := range headers {
        out[i] = h
    }
    return out
}

func writeSummary(f *excelize.File, st styles, programs []ProgramBookings) error {
    title := "College Programs - Booking Summary"
    if len(programs) == 0 {
        title += " (No Programs Found)"
    }
    if err := writeTitle(f, st, summarySheet, title, len(summaryHeaders)); err != nil {
        return err
    }
    if err := writeRow(f, summarySheet, 3, st.header, headerRow(summaryHeaders)); err != nil {
        return err
    }
    if len(programs) == 0 {
        if err := f.SetCellValue(summarySheet, "A4", noProgramsMsg); err != nil {
            return err
        }
        return f.MergeCell(summarySheet, "A4", cell(len(summaryHeaders), 4))
    }
    for i, pb := range programs {
        var solo, group int
        var revenue uint64
        for _, b := range pb.Bookings {
            if b.IsGroup {
                group++
            } else {
                solo++
            }
            revenue += uint64(b.TotalAmountCents)
        }
        p := pb.Program
        row := []interface{}{p.Title, pb.FestivalName, p.Date.Format(dateLayout), p.Time, p.Venue,
            len(pb.Bookings), solo, group, major(revenue)}
        if err := writeRow(f, summarySheet, 4+i, st.data, row); err != nil {
            return err
        }
    }
    return f.SetColWidth(summarySheet, "A", "I", 18)
}

func writeProgramSheet(f *excelize.File, st styles, sheet string, pb ProgramBookings) error {
    if _, err := f.NewSheet(sheet); err != nil {
        return err
    }
    p := pb.Program
    if err := writeTitle(f, st, sheet, "Program: "+p.Title+" - Student Bookings", len(programHeaders)); err != nil {
        return err
    }
    details := []interface{}{
        "Festival: " + pb.FestivalName,
        "Date: " + p.Date.Format(dateLayout),
        "Time: " + p.Time,
        "Venue: " + p.Venue,
        fmt.Sprintf("Price: %.2f", major(uint64(p.TicketPriceCents))),
    }
    if err := f.SetSheetRow(sheet, "A2", &details); err != nil {
        return err
    }
    if err := writeRow(f, sheet, 4, st.header, headerRow(programHeaders)); err != nil {
        return err
    }
    for i, b := range pb.Bookings {
        kind := "Solo"
        if b.IsGroup {
            kind = "Group"
        }
        txn := "N/A"
        if b.PaymentRef != nil && *b.PaymentRef != "" {
            txn = *b.PaymentRef
        }
        row := []interface{}{b.Snapshot.StudentName, b.Snapshot.StudentEmail, kind, b.GroupSize,
            memberNames(pb.Members[b.ID]), string(b.PaymentStatus), txn, major(uint64(b.TotalAmountCents))}
        if err := writeRow(f, sheet, 5+i, st.data, row); err != nil {
            return err
        }
    }
    return f.SetColWidth(sheet, "A", "H", 20)
}

func memberNames(ms []model.GroupMember) string {
    names := make([]string, 0, len(ms))
    for _, m := range ms {
        names = append(names, m.Name)
    }
    return strings.Join(names, ", ")
}

// major converts minor units to a decimal amount for display.
func major(minor uint64) float64 { return float64(minor) / 100 }
