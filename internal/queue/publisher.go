package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/festival-booking/internal/model"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
    Close() error
}

// DialFunc opens a channel and returns a func that closes the channel and
// its connection.
type DialFunc func(url string) (Channel, func(), error)

// Publisher sends notification events to RabbitMQ.  It satisfies
// service.Notifier.  Each publish opens its own connection so a broker
// restart never leaves the API holding a dead channel.
type Publisher struct {
    URL  string
    Dial DialFunc
}

func NewPublisher(url string) *Publisher {
    return &Publisher{URL: url, Dial: dialAMQP}
}

func dialAMQP(url string) (Channel, func(), error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, nil, fmt.Errorf("dial broker: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, fmt.Errorf("open channel: %w", err)
    }
    return ch, func() { _ = ch.Close(); _ = conn.Close() }, nil
}

func (p *Publisher) NotifyBookingConfirmed(ctx context.Context, b model.Booking, members []model.GroupMember) error {
    return p.publish(ctx, BookingConfirmedQueue, NewBookingConfirmedEvent(b, members))
}

func (p *Publisher) NotifyFestivalDecision(ctx context.Context, c model.College, f model.Festival, approved bool) error {
    return p.publish(ctx, FestivalDecidedQueue, NewFestivalDecidedEvent(c, f, approved))
}

// publish declares the durable queue and sends v as a persistent JSON
// message on the default exchange.
func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
    body, err := json.Marshal(v)
    if err != nil {
        return fmt.Errorf("marshal %s event: %w", queue, err)
    }
    dial := p.Dial
    if dial == nil {
        dial = dialAMQP
    }
    ch, closeFn, err := dial(p.URL)
    if err != nil {
        return err
    }
    defer closeFn()

    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("declare %s: %w", queue, err)
    }
    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
        return fmt.Errorf("publish %s: %w", queue, err)
    }
    return nil
}

// Direct hands events straight to a handler without a broker.  It is
// used when NOTIFY_TRANSPORT=direct.
type Direct struct {
    Handler EventHandler
}

func (d Direct) NotifyBookingConfirmed(ctx context.Context, b model.Booking, members []model.GroupMember) error {
    return d.Handler.HandleBookingConfirmed(ctx, NewBookingConfirmedEvent(b, members))
}

func (d Direct) NotifyFestivalDecision(ctx context.Context, c model.College, f model.Festival, approved bool) error {
    return d.Handler.HandleFestivalDecided(ctx, NewFestivalDecidedEvent(c, f, approved))
}
