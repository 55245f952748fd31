package service

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/iliyamo/festival-booking/internal/model"
    "github.com/iliyamo/festival-booking/internal/repository"
)

// memStore is an in-memory AdmissionStore.  The occupancy increment and
// the unique (student, program) key are applied under one mutex, which
// is what the row lock and the unique index give the MySQL store.
type memStore struct {
    mu       sync.Mutex
    programs map[uint64]*model.ProgramDetail
    students map[uint64]*model.Student
    bookings []model.Booking
    members  map[uint64][]model.GroupMember
    keys     map[[2]uint64]bool
    nextID   uint64

    failMembers error
    failBegin   error
}

func newMemStore() *memStore {
    return &memStore{
        programs: map[uint64]*model.ProgramDetail{},
        students: map[uint64]*model.Student{},
        members:  map[uint64][]model.GroupMember{},
        keys:     map[[2]uint64]bool{},
    }
}

func (m *memStore) addStudent(id uint64, name string) {
    m.students[id] = &model.Student{User: model.User{ID: id, Username: name, Email: name + "@uni.test", Role: model.RoleStudent}}
}

func (m *memStore) addProgram(p model.Program, f model.Festival) {
    m.programs[p.ID] = &model.ProgramDetail{Program: p, Festival: f}
}

func (m *memStore) occupancy(programID uint64) uint32 {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.programs[programID].Program.BookedUnits
}

func (m *memStore) committed() []model.Booking {
    m.mu.Lock()
    defer m.mu.Unlock()
    return append([]model.Booking(nil), m.bookings...)
}

func (m *memStore) FindProgram(_ context.Context, id uint64) (*model.ProgramDetail, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    d, ok := m.programs[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *d
    return &cp, nil
}

func (m *memStore) FindStudent(_ context.Context, id uint64) (*model.Student, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.students[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *s
    return &cp, nil
}

func (m *memStore) ExistsBooking(_ context.Context, studentID, programID uint64) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, b := range m.bookings {
        if b.StudentID == studentID && b.ProgramID == programID {
            return true, nil
        }
    }
    return false, nil
}

func (m *memStore) Begin(context.Context) (AdmissionTx, error) {
    if m.failBegin != nil {
        return nil, m.failBegin
    }
    return &memTx{store: m}, nil
}

func (m *memStore) FindBookingsByProgram(_ context.Context, programID uint64) ([]model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Booking
    for _, b := range m.bookings {
        if b.ProgramID == programID {
            out = append(out, b)
        }
    }
    return out, nil
}

func (m *memStore) FindBookingsByStudent(_ context.Context, studentID uint64) ([]model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Booking
    for _, b := range m.bookings {
        if b.StudentID == studentID {
            out = append(out, b)
        }
    }
    return out, nil
}

func (m *memStore) FindBooking(_ context.Context, id uint64) (*model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, b := range m.bookings {
        if b.ID == id {
            cp := b
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (m *memStore) FindMembers(_ context.Context, bookingID uint64) ([]model.GroupMember, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    return append([]model.GroupMember(nil), m.members[bookingID]...), nil
}

type memTx struct {
    store    *memStore
    units    map[uint64]uint32
    booking  *model.Booking
    members  []model.GroupMember
    finished bool
}

func (t *memTx) IncrementOccupancyIfBelowLimit(_ context.Context, programID uint64, units, limit uint32) (bool, error) {
    t.store.mu.Lock()
    defer t.store.mu.Unlock()
    d, ok := t.store.programs[programID]
    if !ok {
        return false, nil
    }
    if uint64(d.Program.BookedUnits)+uint64(units) > uint64(limit) {
        return false, nil
    }
    d.Program.BookedUnits += units
    if t.units == nil {
        t.units = map[uint64]uint32{}
    }
    t.units[programID] += units
    return true, nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
    t.store.mu.Lock()
    defer t.store.mu.Unlock()
    key := [2]uint64{b.StudentID, b.ProgramID}
    if t.store.keys[key] {
        return repository.ErrDuplicate
    }
    t.store.keys[key] = true
    t.store.nextID++
    b.ID = t.store.nextID
    b.CreatedAt = time.Now().UTC()
    t.booking = b
    return nil
}

func (t *memTx) InsertGroupMembers(_ context.Context, bookingID uint64, members []model.GroupMember) error {
    if t.store.failMembers != nil {
        return t.store.failMembers
    }
    for i := range members {
        members[i].ID = uint64(i + 1)
        members[i].BookingID = bookingID
    }
    t.members = members
    return nil
}

func (t *memTx) Commit() error {
    if t.finished {
        return errors.New("tx already finished")
    }
    t.finished = true
    t.store.mu.Lock()
    defer t.store.mu.Unlock()
    if t.booking != nil {
        t.store.bookings = append(t.store.bookings, *t.booking)
        if len(t.members) > 0 {
            t.store.members[t.booking.ID] = t.members
        }
    }
    return nil
}

func (t *memTx) Rollback() error {
    if t.finished {
        return nil
    }
    t.finished = true
    t.store.mu.Lock()
    defer t.store.mu.Unlock()
    for id, u := range t.units {
        t.store.programs[id].Program.BookedUnits -= u
    }
    if t.booking != nil {
        delete(t.store.keys, [2]uint64{t.booking.StudentID, t.booking.ProgramID})
    }
    return nil
}

type fakeGateway struct {
    mu      sync.Mutex
    orderID string
    err     error
    calls   int
}

func (g *fakeGateway) CreateOrder(context.Context, uint32, string) (string, error) {
    g.mu.Lock()
    defer g.mu.Unlock()
    g.calls++
    return g.orderID, g.err
}

type fakeNotifier struct {
    mu        sync.Mutex
    bookings  []model.Booking
    decisions []model.Festival
    colleges  []model.College
    err       error
}

func (n *fakeNotifier) NotifyBookingConfirmed(_ context.Context, b model.Booking, _ []model.GroupMember) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    n.bookings = append(n.bookings, b)
    return n.err
}

func (n *fakeNotifier) NotifyFestivalDecision(_ context.Context, c model.College, f model.Festival, _ bool) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    n.decisions = append(n.decisions, f)
    n.colleges = append(n.colleges, c)
    return n.err
}

func approvedFestival() model.Festival {
    return model.Festival{
        ID:             1,
        CollegeID:      50,
        CollegeName:    "North College",
        Title:          "TechFest",
        ApprovalStatus: model.ApprovalApproved,
        IsPublic:       true,
    }
}

func u32(v uint32) *uint32 { return &v }
