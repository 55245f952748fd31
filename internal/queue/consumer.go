package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// EventHandler reacts to notification events.
type EventHandler interface {
    HandleBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error
    HandleFestivalDecided(ctx context.Context, ev FestivalDecidedEvent) error
}

// Consumer drains both notification queues into Handler.
type Consumer struct {
    URL     string
    Handler EventHandler
    Log     zerolog.Logger

    // MaxBackoff caps the wait between reconnect attempts.
    MaxBackoff time.Duration
}

func NewConsumer(url string, h EventHandler, log zerolog.Logger) *Consumer {
    return &Consumer{URL: url, Handler: h, Log: log.With().Str("component", "notify-consumer").Logger(), MaxBackoff: 30 * time.Second}
}

// Run connects, consumes and reconnects with exponential backoff until
// ctx is cancelled.  It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
            if !sleepCtx(ctx, backoff) {
                return nil
            }
            if backoff < c.MaxBackoff {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        c.Log.Warn().Err(err).Msg("consume loop ended; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return nil
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn().Err(err).Msg("set QoS failed")
    }
    deliveries := make(map[string]<-chan amqp.Delivery, 2)
    for _, q := range []string{BookingConfirmedQueue, FestivalDecidedQueue} {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        deliveries[q] = msgs
    }
    c.Log.Info().Msg("consuming notification queues")

    bookings, decisions := deliveries[BookingConfirmedQueue], deliveries[FestivalDecidedQueue]
    for {
        var (
            d  amqp.Delivery
            ok bool
            q  string
        )
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok = <-bookings:
            q = BookingConfirmedQueue
        case d, ok = <-decisions:
            q = FestivalDecidedQueue
        }
        if !ok {
            return errors.New("deliveries channel closed")
        }
        if err := c.Dispatch(ctx, q, d.Body); err != nil {
            c.Log.Error().Err(err).Str("queue", q).Msg("handle message failed")
            // Rejected without requeue so a poison message cannot loop.
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
}

// Dispatch decodes body according to queue and calls the handler.
func (c *Consumer) Dispatch(ctx context.Context, queue string, body []byte) error {
    switch queue {
    case BookingConfirmedQueue:
        var ev BookingConfirmedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        return c.Handler.HandleBookingConfirmed(ctx, ev)
    case FestivalDecidedQueue:
        var ev FestivalDecidedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        return c.Handler.HandleFestivalDecided(ctx, ev)
    default:
        return fmt.Errorf("unknown queue %q", queue)
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
