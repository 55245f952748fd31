// Package mail renders and sends notification mail over SMTP.
package mail

import (
    "bytes"
    "context"
    "errors"
    "fmt"

    "github.com/rs/zerolog"
    gomail "github.com/wneessen/go-mail"

    "github.com/iliyamo/festival-booking/internal/config"
    "github.com/iliyamo/festival-booking/internal/queue"
)

// Sender delivers prepared messages.  *gomail.Client satisfies it.
type Sender interface {
    DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Mailer turns notification events into mail.  It implements
// queue.EventHandler.
type Mailer struct {
    From     string
    Currency string
    Sender   Sender
    Log      zerolog.Logger
}

// New builds a Mailer for cfg.  Without an SMTP host messages are
// rendered and logged, not sent.
func New(cfg config.MailConfig, currency string, log zerolog.Logger) (*Mailer, error) {
    m := &Mailer{From: cfg.From, Currency: currency, Log: log.With().Str("component", "mailer").Logger()}
    if !cfg.Enabled() {
        m.Sender = logSender{log: m.Log}
        return m, nil
    }
    opts := []gomail.Option{gomail.WithPort(cfg.Port)}
    if cfg.Username != "" {
        opts = append(opts,
            gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
            gomail.WithUsername(cfg.Username),
            gomail.WithPassword(cfg.Password))
    }
    if cfg.TLS {
        opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
    } else {
        opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
    }
    client, err := gomail.NewClient(cfg.Host, opts...)
    if err != nil {
        return nil, fmt.Errorf("smtp client: %w", err)
    }
    m.Sender = client
    return m, nil
}

// bookingView is the data the booking template renders.
type bookingView struct {
    queue.BookingConfirmedEvent
    Amount string
}

// RenderBookingConfirmation returns the subject and HTML body for ev.
func (m *Mailer) RenderBookingConfirmation(ev queue.BookingConfirmedEvent) (string, string, error) {
    subject := "Booking Confirmation: " + ev.ProgramName
    if ev.IsGroup {
        subject = "Group Booking Confirmation: " + ev.ProgramName
    }
    if ev.TransactionID == "" {
        ev.TransactionID = "N/A"
    }
    var buf bytes.Buffer
    if err := bookingTmpl.Execute(&buf, bookingView{BookingConfirmedEvent: ev, Amount: m.formatAmount(ev.TotalAmountCents)}); err != nil {
        return "", "", fmt.Errorf("render booking mail: %w", err)
    }
    return subject, buf.String(), nil
}

// RenderFestivalDecision returns the subject and HTML body for ev.
func RenderFestivalDecision(ev queue.FestivalDecidedEvent) (string, string, error) {
    verdict := "Rejected"
    if ev.Approved {
        verdict = "Approved"
    }
    var buf bytes.Buffer
    if err := decisionTmpl.Execute(&buf, ev); err != nil {
        return "", "", fmt.Errorf("render decision mail: %w", err)
    }
    return "Festival " + verdict + ": " + ev.FestivalTitle, buf.String(), nil
}

func (m *Mailer) HandleBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
    subject, body, err := m.RenderBookingConfirmation(ev)
    if err != nil {
        return err
    }
    return m.send(ctx, ev.StudentEmail, subject, body)
}

func (m *Mailer) HandleFestivalDecided(ctx context.Context, ev queue.FestivalDecidedEvent) error {
    subject, body, err := RenderFestivalDecision(ev)
    if err != nil {
        return err
    }
    return m.send(ctx, ev.CollegeEmail, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) error {
    if to == "" {
        return errors.New("mail has no recipient")
    }
    msg := gomail.NewMsg()
    if err := msg.From(m.From); err != nil {
        return fmt.Errorf("invalid sender %q: %w", m.From, err)
    }
    if err := msg.To(to); err != nil {
        return fmt.Errorf("invalid recipient %q: %w", to, err)
    }
    msg.Subject(subject)
    msg.SetBodyString(gomail.TypeTextHTML, html)
    if err := m.Sender.DialAndSendWithContext(ctx, msg); err != nil {
        return fmt.Errorf("send mail: %w", err)
    }
    m.Log.Info().Str("to", to).Str("subject", subject).Msg("mail sent")
    return nil
}

func (m *Mailer) formatAmount(cents uint32) string {
    if cents == 0 {
        return "Free"
    }
    cur := m.Currency
    if cur == "" {
        cur = "INR"
    }
    return fmt.Sprintf("%s %d.%02d", cur, cents/100, cents%100)
}

// logSender records messages instead of delivering them.
type logSender struct{ log zerolog.Logger }

func (s logSender) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
    for _, msg := range messages {
        s.log.Info().Strs("to", msg.GetAddrHeaderString(gomail.HeaderTo)).Strs("subject", msg.GetGenHeader(gomail.HeaderSubject)).Msg("smtp disabled; mail not sent")
    }
    return nil
}
