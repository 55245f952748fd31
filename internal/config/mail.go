package config

// MailConfig configures the SMTP sender.  With an empty Host mail is
// logged instead of sent.
type MailConfig struct {
    Host     string
    Port     int
    Username string
    Password string
    From     string
    TLS      bool
}

// LoadMailConfig reads SMTP_* and MAIL_FROM.
func LoadMailConfig() MailConfig {
    return MailConfig{
        Host:     envStr("SMTP_HOST", ""),
        Port:     envInt("SMTP_PORT", 587),
        Username: envStr("SMTP_USER", ""),
        Password: envStr("SMTP_PASS", ""),
        From:     envStr("MAIL_FROM", "no-reply@festival.local"),
        TLS:      envBool("SMTP_TLS", true),
    }
}

// Enabled reports whether an SMTP server is configured.
func (m MailConfig) Enabled() bool { return m.Host != "" }

// PaymentConfig holds the payment gateway credentials.
type PaymentConfig struct {
    KeyID     string
    KeySecret string
    Currency  string
}

// LoadPaymentConfig reads RAZORPAY_KEY, RAZORPAY_SECRET and
// PAYMENT_CURRENCY.
func LoadPaymentConfig() PaymentConfig {
    return PaymentConfig{
        KeyID:     envStr("RAZORPAY_KEY", ""),
        KeySecret: envStr("RAZORPAY_SECRET", ""),
        Currency:  envStr("PAYMENT_CURRENCY", "INR"),
    }
}

// Enabled reports whether both gateway credentials are present.
func (p PaymentConfig) Enabled() bool { return p.KeyID != "" && p.KeySecret != "" }
