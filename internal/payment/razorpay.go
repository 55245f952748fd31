// Package payment creates orders with the Razorpay gateway.
package payment

import (
    "context"
    "errors"
    "fmt"

    razorpay "github.com/razorpay/razorpay-go"
)

// ErrDisabled is returned when no gateway credentials are configured.
var ErrDisabled = errors.New("payment gateway is not configured")

// OrderCreator is the slice of the Razorpay order resource we use.
type OrderCreator interface {
    Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay places orders through the gateway's Orders API.
type Razorpay struct {
    Orders   OrderCreator
    Currency string
}

// NewRazorpay builds a gateway client for the given key pair.
func NewRazorpay(keyID, keySecret, currency string) *Razorpay {
    client := razorpay.NewClient(keyID, keySecret)
    if currency == "" {
        currency = "INR"
    }
    return &Razorpay{Orders: client.Order, Currency: currency}
}

// CreateOrder registers an order for amount minor units and returns its id.
// The SDK has no context support, so the call runs in a goroutine and
// the caller stops waiting when ctx ends.
func (r *Razorpay) CreateOrder(ctx context.Context, amount uint32, receipt string) (string, error) {
    if amount == 0 {
        return "", errors.New("order amount must be positive")
    }
    type result struct {
        id  string
        err error
    }
    done := make(chan result, 1)
    go func() {
        body, err := r.Orders.Create(map[string]interface{}{
            "amount":   amount,
            "currency": r.Currency,
            "receipt":  receipt,
        }, nil)
        if err != nil {
            done <- result{err: err}
            return
        }
        id, _ := body["id"].(string)
        if id == "" {
            done <- result{err: fmt.Errorf("gateway response has no order id")}
            return
        }
        done <- result{id: id}
    }()
    select {
    case <-ctx.Done():
        return "", ctx.Err()
    case res := <-done:
        return res.id, res.err
    }
}

// Disabled stands in when RAZORPAY_KEY or RAZORPAY_SECRET is unset.
type Disabled struct{}

func (Disabled) CreateOrder(context.Context, uint32, string) (string, error) {
    return "", ErrDisabled
}
