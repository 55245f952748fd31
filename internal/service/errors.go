// Package service holds the booking rules that sit between the HTTP
// handlers and the repositories: capacity accounting, admission,
// group membership and festival approval.
//
// Failures are reported with the typed errors in this file.  Each one
// carries a Reason code that handlers return verbatim next to the
// human readable message, so callers can branch on the code rather
// than on message text.
package service

import (
    "errors"
    "fmt"
)

// Reason is a stable machine readable failure code.
type Reason string

const (
    ReasonNone                Reason = ""
    ReasonDuplicateBooking    Reason = "DuplicateBooking"
    ReasonProgramNotFound     Reason = "ProgramNotFound"
    ReasonStudentNotFound     Reason = "StudentNotFound"
    ReasonFestivalNotFound    Reason = "FestivalNotFound"
    ReasonBookingNotFound     Reason = "BookingNotFound"
    ReasonFestivalUnavailable Reason = "FestivalUnavailable"
    ReasonInvalidGroupSize    Reason = "InvalidGroupSize"
    ReasonInvalidMember       Reason = "InvalidMember"
    ReasonInvalidInput        Reason = "InvalidInput"
    ReasonSeatsExhausted      Reason = "SeatsExhausted"
    ReasonTeamsExhausted      Reason = "TeamsExhausted"
    ReasonPaymentRequired     Reason = "PaymentRequired"
    ReasonNoPaymentRequired   Reason = "NoPaymentRequired"
    ReasonInvalidPaymentRef   Reason = "InvalidPaymentRef"
    ReasonPaymentGatewayError Reason = "PaymentGatewayError"
    ReasonInvalidTransition   Reason = "InvalidTransition"
    ReasonPartialWrite        Reason = "PartialWrite"
    ReasonHasBookings         Reason = "HasBookings"
    ReasonNotOwner            Reason = "NotOwner"
    ReasonAlreadyReviewed     Reason = "AlreadyReviewed"
    ReasonNotBooked           Reason = "NotBooked"
    ReasonAdminLimit          Reason = "AdminLimitReached"
)

// ValidationError reports a malformed request.
type ValidationError struct {
    Reason Reason
    Msg    string
}

func (e ValidationError) Error() string {
    if e.Msg != "" {
        return e.Msg
    }
    return "validation error"
}

// NotFoundError reports an unresolved reference.
type NotFoundError struct {
    Reason   Reason
    Resource string
    Err      error
}

func (e NotFoundError) Error() string {
    if e.Resource == "" {
        return "not found"
    }
    return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ConflictError reports a request that clashes with current state:
// duplicates, exhausted capacity, unavailable festivals and lost
// approval races.
type ConflictError struct {
    Reason Reason
    Msg    string
    Err    error
}

func (e ConflictError) Error() string {
    if e.Msg != "" {
        return e.Msg
    }
    return "conflict"
}

func (e ConflictError) Unwrap() error { return e.Err }

// ForbiddenError reports an operation on a resource owned by someone
// else.
type ForbiddenError struct {
    Reason Reason
    Msg    string
}

func (e ForbiddenError) Error() string {
    if e.Msg != "" {
        return e.Msg
    }
    return "forbidden"
}

// PaymentRequiredError is returned when a paid program is booked
// without a gateway payment reference.
type PaymentRequiredError struct {
    AmountCents uint32
}

func (e PaymentRequiredError) Error() string {
    return fmt.Sprintf("payment reference required for amount %d", e.AmountCents)
}

// ExternalServiceError wraps a failure of the payment gateway or
// another remote collaborator.
type ExternalServiceError struct {
    Reason  Reason
    Service string
    Err     error
}

func (e ExternalServiceError) Error() string {
    if e.Err == nil {
        return e.Service + " unavailable"
    }
    return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e ExternalServiceError) Unwrap() error { return e.Err }

// PartialWriteError signals that only part of a multi-row write went
// through.  The surrounding transaction must be rolled back.
type PartialWriteError struct {
    Written int
    Wanted  int
    Err     error
}

func (e PartialWriteError) Error() string {
    return fmt.Sprintf("partial write: %d of %d rows: %v", e.Written, e.Wanted, e.Err)
}

func (e PartialWriteError) Unwrap() error { return e.Err }

// ReasonOf extracts the Reason code from any error in this package.
// Unknown errors yield ReasonNone.
func ReasonOf(err error) Reason {
    var (
        v  ValidationError
        nf NotFoundError
        c  ConflictError
        f  ForbiddenError
        pr PaymentRequiredError
        ex ExternalServiceError
        pw PartialWriteError
    )
    switch {
    case errors.As(err, &v):
        return v.Reason
    case errors.As(err, &nf):
        return nf.Reason
    case errors.As(err, &c):
        return c.Reason
    case errors.As(err, &f):
        return f.Reason
    case errors.As(err, &pr):
        return ReasonPaymentRequired
    case errors.As(err, &ex):
        return ex.Reason
    case errors.As(err, &pw):
        return ReasonPartialWrite
    }
    return ReasonNone
}

func IsValidation(err error) bool {
    var target ValidationError
    return errors.As(err, &target)
}

func IsNotFound(err error) bool {
    var target NotFoundError
    return errors.As(err, &target)
}

func IsConflict(err error) bool {
    var target ConflictError
    return errors.As(err, &target)
}

func IsForbidden(err error) bool {
    var target ForbiddenError
    return errors.As(err, &target)
}

func IsPaymentRequired(err error) bool {
    var target PaymentRequiredError
    return errors.As(err, &target)
}

func IsExternal(err error) bool {
    var target ExternalServiceError
    return errors.As(err, &target)
}

func IsPartialWrite(err error) bool {
    var target PartialWriteError
    return errors.As(err, &target)
}
