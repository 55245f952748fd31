package report

import (
    "bytes"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "github.com/xuri/excelize/v2"

    "github.com/iliyamo/festival-booking/internal/model"
)

func TestSheetName(t *testing.T) {
    used := map[string]bool{"summary": true}

    assert.Equal(t, "Hack Night_3", SheetName("Hack: Night!", 3, used))

    long := SheetName(strings.Repeat("Robotics ", 10), 12345, used)
    assert.LessOrEqual(t, len(long), 31)
    assert.True(t, strings.HasSuffix(long, "_12345"))

    // Same title and id twice gets a counter.
    again := SheetName("Hack: Night!", 3, used)
    assert.Equal(t, "Hack Night_3_1", again)

    assert.Equal(t, "_9", SheetName("???", 9, used))
}

func TestCollegeWorkbook_Empty(t *testing.T) {
    var buf bytes.Buffer
    require.NoError(t, WriteCollegeWorkbook(&buf, nil))

    f, err := excelize.OpenReader(&buf)
    require.NoError(t, err)
    defer f.Close()

    assert.Equal(t, []string{"Summary"}, f.GetSheetList())
    v, err := f.GetCellValue("Summary", "A4")
    require.NoError(t, err)
    assert.Equal(t, "No programs found for this college.", v)
    h, err := f.GetCellValue("Summary", "I3")
    require.NoError(t, err)
    assert.Equal(t, "Total Revenue", h)
}

func TestCollegeWorkbook_Programs(t *testing.T) {
    ref := "pay_77"
    date := time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC)
    programs := []ProgramBookings{
        {
            Program:      model.Program{ID: 1, Title: "Quiz", Date: date, Time: "10:00", Venue: "Hall A", TicketPriceCents: 5000},
            FestivalName: "TechFest",
            Bookings: []model.Booking{
                {ID: 10, PaymentStatus: model.PaymentPaid, PaymentRef: &ref, GroupSize: 1, TotalAmountCents: 5000,
                    Snapshot: model.Snapshot{StudentName: "Asha", StudentEmail: "asha@uni.test"}},
                {ID: 11, IsGroup: true, GroupSize: 2, PaymentStatus: model.PaymentPaid, TotalAmountCents: 5000,
                    Snapshot: model.Snapshot{StudentName: "Ravi", StudentEmail: "ravi@uni.test"}},
            },
            Members: map[uint64][]model.GroupMember{11: {{Name: "Ravi"}, {Name: "Meera"}}},
        },
        {Program: model.Program{ID: 2, Title: "Quiz", Date: date}, FestivalName: "TechFest"},
    }

    var buf bytes.Buffer
    require.NoError(t, WriteCollegeWorkbook(&buf, programs))
    f, err := excelize.OpenReader(&buf)
    require.NoError(t, err)
    defer f.Close()

    assert.Equal(t, []string{"Summary", "Quiz_1", "Quiz_2"}, f.GetSheetList())

    rows, err := f.GetRows("Summary")
    require.NoError(t, err)
    require.Len(t, rows, 5)
    assert.Equal(t, []string{"Quiz", "TechFest", "2026-12-05", "10:00", "Hall A", "2", "1", "1", "100"}, rows[3])

    rows, err = f.GetRows("Quiz_1")
    require.NoError(t, err)
    require.Len(t, rows, 6)
    assert.Equal(t, []string{"Asha", "asha@uni.test", "Solo", "1", "", "PAID", "pay_77", "50"}, rows[4])
    assert.Equal(t, []string{"Ravi", "ravi@uni.test", "Group", "2", "Ravi, Meera", "PAID", "N/A", "50"}, rows[5])
}
