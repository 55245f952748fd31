package mail

import (
    "context"
    "errors"
    "testing"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    gomail "github.com/wneessen/go-mail"

    "github.com/iliyamo/festival-booking/internal/config"
    "github.com/iliyamo/festival-booking/internal/queue"
)

type captureSender struct {
    msgs []*gomail.Msg
    err  error
}

func (c *captureSender) DialAndSendWithContext(_ context.Context, msgs ...*gomail.Msg) error {
    c.msgs = append(c.msgs, msgs...)
    return c.err
}

func newTestMailer(s Sender) *Mailer {
    return &Mailer{From: "no-reply@fest.test", Currency: "INR", Sender: s, Log: zerolog.Nop()}
}

func TestRenderBookingConfirmation_Solo(t *testing.T) {
    m := newTestMailer(nil)
    subject, body, err := m.RenderBookingConfirmation(queue.BookingConfirmedEvent{
        StudentName: "Asha", ProgramName: "Quiz", FestivalName: "TechFest", TotalAmountCents: 0,
    })
    require.NoError(t, err)
    assert.Equal(t, "Booking Confirmation: Quiz", subject)
    assert.Contains(t, body, "Hello Asha")
    assert.Contains(t, body, "Free")
    assert.Contains(t, body, "N/A")
    assert.NotContains(t, body, "Group Members")
}

func TestRenderBookingConfirmation_GroupEscapes(t *testing.T) {
    m := newTestMailer(nil)
    subject, body, err := m.RenderBookingConfirmation(queue.BookingConfirmedEvent{
        StudentName: "Asha", ProgramName: "Hack", IsGroup: true, GroupSize: 2,
        Members:       []queue.Member{{Name: "Asha"}, {Name: "<b>Ravi</b>"}},
        TransactionID: "pay_9", TotalAmountCents: 12345,
    })
    require.NoError(t, err)
    assert.Equal(t, "Group Booking Confirmation: Hack", subject)
    assert.Contains(t, body, "2 members")
    assert.Contains(t, body, "INR 123.45")
    assert.Contains(t, body, "pay_9")
    assert.Contains(t, body, "&lt;b&gt;Ravi&lt;/b&gt;")
}

func TestRenderFestivalDecision(t *testing.T) {
    subject, body, err := RenderFestivalDecision(queue.FestivalDecidedEvent{CollegeName: "IIT", FestivalTitle: "Mood", Approved: true})
    require.NoError(t, err)
    assert.Equal(t, "Festival Approved: Mood", subject)
    assert.Contains(t, body, "now live")

    subject, body, err = RenderFestivalDecision(queue.FestivalDecidedEvent{FestivalTitle: "Mood"})
    require.NoError(t, err)
    assert.Equal(t, "Festival Rejected: Mood", subject)
    assert.Contains(t, body, "resubmitting")
}

func TestHandleBookingConfirmed_Sends(t *testing.T) {
    s := &captureSender{}
    m := newTestMailer(s)
    require.NoError(t, m.HandleBookingConfirmed(context.Background(), queue.BookingConfirmedEvent{
        StudentEmail: "asha@uni.test", ProgramName: "Quiz",
    }))
    require.Len(t, s.msgs, 1)
    assert.Equal(t, []string{"Booking Confirmation: Quiz"}, s.msgs[0].GetGenHeader(gomail.HeaderSubject))
}

func TestHandle_Errors(t *testing.T) {
    m := newTestMailer(&captureSender{})
    assert.Error(t, m.HandleFestivalDecided(context.Background(), queue.FestivalDecidedEvent{}), "no recipient")

    m = newTestMailer(&captureSender{err: errors.New("smtp down")})
    err := m.HandleFestivalDecided(context.Background(), queue.FestivalDecidedEvent{CollegeEmail: "c@x.test"})
    assert.ErrorContains(t, err, "smtp down")
}

func TestNew_DisabledLogsOnly(t *testing.T) {
    m, err := New(config.MailConfig{From: "a@b.test"}, "INR", zerolog.Nop())
    require.NoError(t, err)
    assert.IsType(t, logSender{}, m.Sender)
    assert.NoError(t, m.HandleFestivalDecided(context.Background(), queue.FestivalDecidedEvent{CollegeEmail: "c@x.test"}))
}
