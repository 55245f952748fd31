package service

import (
    "context"
    "errors"
    "strings"
    "sync"
    "testing"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/festival-booking/internal/model"
)

func newAdmission(store *memStore, gw PaymentGateway, n Notifier) *AdmissionService {
    return NewAdmissionService(store, gw, n, zerolog.Nop())
}

func soloProgram(id uint64, seats, price uint32) model.Program {
    return model.Program{ID: id, FestivalID: 1, Title: "Robotics", Type: model.ProgramWorkshop, Mode: model.ModeSolo, SeatLimit: seats, TicketPriceCents: price, Venue: "Hall A"}
}

func groupProgram(id uint64, teams uint32) model.Program {
    return model.Program{ID: id, FestivalID: 1, Title: "Hackathon", Type: model.ProgramHackathon, Mode: model.ModeGroup, TeamLimit: u32(teams)}
}

func team(n int) []model.GroupMember {
    out := make([]model.GroupMember, n)
    for i := range out {
        out[i] = model.GroupMember{Name: "member", Email: " M@Uni.Test "}
    }
    return out
}

func TestAdmitFreeSoloBooking(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 0), approvedFestival())
    notifier := &fakeNotifier{}
    svc := newAdmission(store, nil, notifier)

    b, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10})
    require.NoError(t, err)
    svc.Wait()

    assert.Equal(t, model.PaymentPaid, b.PaymentStatus)
    assert.Nil(t, b.PaymentRef)
    assert.Zero(t, b.TotalAmountCents)
    assert.Equal(t, uint32(1), b.Units)
    assert.Equal(t, uint32(1), b.GroupSize)
    assert.Equal(t, "asha", b.Snapshot.StudentName)
    assert.Equal(t, "Robotics", b.Snapshot.ProgramName)
    assert.Equal(t, "TechFest", b.Snapshot.FestivalName)
    assert.Equal(t, "North College", b.Snapshot.CollegeName)
    assert.Equal(t, "WORKSHOP", b.Snapshot.ProgramType)
    assert.Equal(t, uint32(1), store.occupancy(10))
    require.Len(t, notifier.bookings, 1)
    assert.Equal(t, b.ID, notifier.bookings[0].ID)
}

func TestAdmitRejectsDuplicate(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 0), approvedFestival())
    svc := newAdmission(store, nil, nil)

    _, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10})
    require.NoError(t, err)
    _, err = svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10})
    require.Error(t, err)
    assert.True(t, IsConflict(err))
    assert.Equal(t, ReasonDuplicateBooking, ReasonOf(err))
    assert.Equal(t, uint32(1), store.occupancy(10))
}

func TestAdmitRequiresApprovedFestival(t *testing.T) {
    for _, st := range []model.ApprovalStatus{model.ApprovalPending, model.ApprovalRejected} {
        t.Run(string(st), func(t *testing.T) {
            store := newMemStore()
            store.addStudent(7, "asha")
            f := approvedFestival()
            f.ApprovalStatus = st
            f.IsPublic = false
            store.addProgram(soloProgram(10, 5, 0), f)
            svc := newAdmission(store, nil, nil)

            _, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10})
            assert.Equal(t, ReasonFestivalUnavailable, ReasonOf(err))
            assert.Empty(t, store.committed())
        })
    }
}

func TestAdmitUnknownProgramAndStudent(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 0), approvedFestival())
    svc := newAdmission(store, nil, nil)

    _, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 99})
    assert.Equal(t, ReasonProgramNotFound, ReasonOf(err))
    _, err = svc.Admit(context.Background(), AdmissionRequest{StudentID: 8, ProgramID: 10})
    assert.Equal(t, ReasonStudentNotFound, ReasonOf(err))
}

func TestAdmitGroupOnSoloProgramTakesSeatPerMember(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 0), approvedFestival())
    svc := newAdmission(store, nil, nil)

    b, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10, IsGroup: true, GroupSize: 3, Members: team(3)})
    require.NoError(t, err)
    assert.Equal(t, uint32(3), b.Units)
    assert.Equal(t, uint32(3), store.occupancy(10))

    members, err := svc.Ledger.MembersOf(context.Background(), b.ID)
    require.NoError(t, err)
    require.Len(t, members, 3)
    assert.Equal(t, "m@uni.test", members[0].Email)
    assert.Equal(t, b.ID, members[0].BookingID)

    require.Len(t, b.Members, 3)
    assert.Equal(t, b.ID, b.Members[2].BookingID)
    assert.Equal(t, "member", b.Members[2].Name)
}

func TestAdmitSoloSeatsExhausted(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    p := soloProgram(10, 3, 0)
    p.BookedUnits = 2
    store.addProgram(p, approvedFestival())
    svc := newAdmission(store, nil, nil)

    _, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10, IsGroup: true, GroupSize: 2, Members: team(2)})
    assert.Equal(t, ReasonSeatsExhausted, ReasonOf(err))
    assert.Equal(t, uint32(2), store.occupancy(10))
}

func TestAdmitGroupValidation(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(groupProgram(20, 2), approvedFestival())
    svc := newAdmission(store, nil, nil)
    ctx := context.Background()

    _, err := svc.Admit(ctx, AdmissionRequest{StudentID: 7, ProgramID: 20, IsGroup: true, GroupSize: 5, Members: team(5)})
    assert.Equal(t, ReasonInvalidGroupSize, ReasonOf(err))

    _, err = svc.Admit(ctx, AdmissionRequest{StudentID: 7, ProgramID: 20, IsGroup: true, GroupSize: 3, Members: team(2)})
    assert.Equal(t, ReasonInvalidGroupSize, ReasonOf(err))

    nameless := team(2)
    nameless[1].Name = "  "
    _, err = svc.Admit(ctx, AdmissionRequest{StudentID: 7, ProgramID: 20, IsGroup: true, GroupSize: 2, Members: nameless})
    assert.Equal(t, ReasonInvalidMember, ReasonOf(err))

    assert.Equal(t, uint32(0), store.occupancy(20))
}

func TestAdmitGroupWithoutTeamLimitIsFull(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    p := groupProgram(20, 0)
    p.TeamLimit = nil
    store.addProgram(p, approvedFestival())
    svc := newAdmission(store, nil, nil)

    _, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 20, IsGroup: true, GroupSize: 2, Members: team(2)})
    assert.Equal(t, ReasonTeamsExhausted, ReasonOf(err))
}

func TestAdmitConcurrentTeamsNeverExceedLimit(t *testing.T) {
    store := newMemStore()
    for id := uint64(1); id <= 3; id++ {
        store.addStudent(id, "student")
    }
    p := groupProgram(20, 2)
    p.TicketPriceCents = 500
    store.addProgram(p, approvedFestival())
    svc := newAdmission(store, &fakeGateway{orderID: "order_1"}, nil)

    var (
        wg       sync.WaitGroup
        mu       sync.Mutex
        admitted []*model.Booking
        denied   []Reason
    )
    for id := uint64(1); id <= 3; id++ {
        wg.Add(1)
        go func(id uint64) {
            defer wg.Done()
            b, err := svc.Admit(context.Background(), AdmissionRequest{
                StudentID: id, ProgramID: 20, IsGroup: true, GroupSize: 3, Members: team(3), PaymentRef: "pay",
            })
            mu.Lock()
            defer mu.Unlock()
            if err == nil {
                admitted = append(admitted, b)
                return
            }
            denied = append(denied, ReasonOf(err))
        }(id)
    }
    wg.Wait()

    require.Len(t, admitted, 2)
    assert.Equal(t, []Reason{ReasonTeamsExhausted}, denied)
    assert.Equal(t, uint32(2), store.occupancy(20))
    for _, b := range admitted {
        assert.Equal(t, uint32(1), b.Units)
        members, err := svc.Ledger.MembersOf(context.Background(), b.ID)
        require.NoError(t, err)
        assert.Len(t, members, 3)
    }
}

func TestAdmitConcurrentSeatsNeverExceedLimit(t *testing.T) {
    store := newMemStore()
    const students = 12
    for id := uint64(1); id <= students; id++ {
        store.addStudent(id, "student")
    }
    store.addProgram(soloProgram(10, 5, 0), approvedFestival())
    svc := newAdmission(store, nil, nil)

    var wg sync.WaitGroup
    for id := uint64(1); id <= students; id++ {
        wg.Add(1)
        go func(id uint64) {
            defer wg.Done()
            _, _ = svc.Admit(context.Background(), AdmissionRequest{StudentID: id, ProgramID: 10})
        }(id)
    }
    wg.Wait()

    assert.Equal(t, uint32(5), store.occupancy(10))
    assert.Len(t, store.committed(), 5)
}

func TestAdmitConcurrentSameStudentBooksOnce(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 50, 0), approvedFestival())
    svc := newAdmission(store, nil, nil)

    var wg sync.WaitGroup
    for i := 0; i < 8; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, _ = svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10})
        }()
    }
    wg.Wait()

    assert.Len(t, store.committed(), 1)
    assert.Equal(t, uint32(1), store.occupancy(10))
}

func TestAdmitPaidProgramNeedsPayment(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 25000), approvedFestival())
    svc := newAdmission(store, &fakeGateway{orderID: "order_1"}, nil)

    _, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10})
    require.Error(t, err)
    var pr PaymentRequiredError
    require.True(t, errors.As(err, &pr))
    assert.Equal(t, uint32(25000), pr.AmountCents)
    assert.Equal(t, uint32(0), store.occupancy(10))
}

func TestAdmitPaidProgramCreatesOrder(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 25000), approvedFestival())
    gw := &fakeGateway{orderID: "order_1"}
    svc := newAdmission(store, gw, nil)

    b, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10, PaymentRef: "pay_9"})
    require.NoError(t, err)
    assert.Equal(t, model.PaymentPaid, b.PaymentStatus)
    assert.Equal(t, uint32(25000), b.TotalAmountCents)
    require.NotNil(t, b.PaymentRef)
    assert.Equal(t, "pay_9", *b.PaymentRef)
    require.NotNil(t, b.OrderID)
    assert.Equal(t, "order_1", *b.OrderID)
    assert.Equal(t, 1, gw.calls)
}

func TestAdmitPaidProgramKeepsClientOrder(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 25000), approvedFestival())
    gw := &fakeGateway{orderID: "order_new"}
    svc := newAdmission(store, gw, nil)

    b, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10, PaymentRef: "pay_9", OrderID: "order_client"})
    require.NoError(t, err)
    assert.Equal(t, "order_client", *b.OrderID)
    assert.Zero(t, gw.calls)
}

func TestAdmitGatewayFailureWritesNothing(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 25000), approvedFestival())
    svc := newAdmission(store, &fakeGateway{err: errors.New("timeout")}, nil)

    _, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10, PaymentRef: "pay_9"})
    require.Error(t, err)
    assert.True(t, IsExternal(err))
    assert.Equal(t, ReasonPaymentGatewayError, ReasonOf(err))
    assert.Empty(t, store.committed())
    assert.Equal(t, uint32(0), store.occupancy(10))
}

func TestAdmitRejectsOversizedFields(t *testing.T) {
    long := func(n int) string { return strings.Repeat("x", n) }
    withMember := func(mut func(*model.GroupMember)) []model.GroupMember {
        m := team(2)
        mut(&m[1])
        return m
    }
    cases := []struct {
        name   string
        req    AdmissionRequest
        reason Reason
    }{
        {"payment ref", AdmissionRequest{ProgramID: 10, PaymentRef: long(101)}, ReasonInvalidPaymentRef},
        {"order id", AdmissionRequest{ProgramID: 10, PaymentRef: "pay_9", OrderID: long(101)}, ReasonInvalidPaymentRef},
        {"member name", AdmissionRequest{ProgramID: 20, IsGroup: true, GroupSize: 2, Members: withMember(func(m *model.GroupMember) { m.Name = long(121) })}, ReasonInvalidMember},
        {"member email", AdmissionRequest{ProgramID: 20, IsGroup: true, GroupSize: 2, Members: withMember(func(m *model.GroupMember) { m.Email = long(251) + "@u.in" })}, ReasonInvalidMember},
        {"member phone", AdmissionRequest{ProgramID: 20, IsGroup: true, GroupSize: 2, Members: withMember(func(m *model.GroupMember) { m.Phone = long(41) })}, ReasonInvalidMember},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            store := newMemStore()
            store.addStudent(7, "asha")
            store.addProgram(soloProgram(10, 5, 25000), approvedFestival())
            store.addProgram(groupProgram(20, 2), approvedFestival())
            gw := &fakeGateway{orderID: "order_1"}
            svc := newAdmission(store, gw, nil)

            tc.req.StudentID = 7
            _, err := svc.Admit(context.Background(), tc.req)
            require.Error(t, err)
            assert.True(t, IsValidation(err))
            assert.Equal(t, tc.reason, ReasonOf(err))
            assert.Empty(t, store.committed())
            assert.Zero(t, gw.calls)
        })
    }
}

func TestAdmitFieldWidthsCountCharacters(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(groupProgram(20, 2), approvedFestival())
    svc := newAdmission(store, nil, nil)

    members := team(2)
    members[0].Name = strings.Repeat("é", 120)
    members[1].Phone = strings.Repeat("٣", 40)
    b, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 20, IsGroup: true, GroupSize: 2, Members: members})
    require.NoError(t, err)
    assert.Len(t, b.Members, 2)
}

func TestAdmitMemberWriteFailureRollsBack(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(groupProgram(20, 2), approvedFestival())
    store.failMembers = errors.New("disk full")
    svc := newAdmission(store, nil, nil)

    _, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 20, IsGroup: true, GroupSize: 2, Members: team(2)})
    require.Error(t, err)
    assert.True(t, IsPartialWrite(err))
    assert.Empty(t, store.committed())
    assert.Equal(t, uint32(0), store.occupancy(20))

    // the student may try again once the fault clears
    store.failMembers = nil
    _, err = svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 20, IsGroup: true, GroupSize: 2, Members: team(2)})
    require.NoError(t, err)
}

func TestAdmitNotifierFailureDoesNotFailBooking(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 0), approvedFestival())
    notifier := &fakeNotifier{err: errors.New("smtp down")}
    svc := newAdmission(store, nil, notifier)

    b, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10})
    require.NoError(t, err)
    svc.Wait()
    assert.NotZero(t, b.ID)
    assert.Len(t, store.committed(), 1)
}

func TestCreateOrder(t *testing.T) {
    store := newMemStore()
    store.addProgram(soloProgram(10, 5, 25000), approvedFestival())
    store.addProgram(soloProgram(11, 5, 0), approvedFestival())
    svc := newAdmission(store, &fakeGateway{orderID: "order_1"}, nil)
    ctx := context.Background()

    id, amount, err := svc.CreateOrder(ctx, 10)
    require.NoError(t, err)
    assert.Equal(t, "order_1", id)
    assert.Equal(t, uint32(25000), amount)

    _, _, err = svc.CreateOrder(ctx, 11)
    assert.Equal(t, ReasonNoPaymentRequired, ReasonOf(err))

    svc.Gateway = nil
    _, _, err = svc.CreateOrder(ctx, 10)
    assert.True(t, IsExternal(err))
}

func TestBookingForHidesOtherStudents(t *testing.T) {
    store := newMemStore()
    store.addStudent(7, "asha")
    store.addProgram(soloProgram(10, 5, 0), approvedFestival())
    svc := newAdmission(store, nil, nil)

    b, err := svc.Admit(context.Background(), AdmissionRequest{StudentID: 7, ProgramID: 10})
    require.NoError(t, err)

    got, err := svc.BookingFor(context.Background(), b.ID, 7)
    require.NoError(t, err)
    assert.Equal(t, b.ID, got.ID)

    _, err = svc.BookingFor(context.Background(), b.ID, 8)
    assert.Equal(t, ReasonBookingNotFound, ReasonOf(err))
}

func TestReceiptForFitsGatewayLimit(t *testing.T) {
    r := receiptFor(18446744073709551615)
    assert.LessOrEqual(t, len(r), 40)
    assert.Contains(t, r, "rcpt_")
}
