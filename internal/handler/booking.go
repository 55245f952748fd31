package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/festival-booking/internal/model"
    "github.com/iliyamo/festival-booking/internal/report"
    "github.com/iliyamo/festival-booking/internal/service"
)

// BookingHandler serves the student side of admission.
type BookingHandler struct {
	Admission *service.AdmissionService
	Reviews   *service.ReviewService
	Passes    report.PassSigner
	Currency  string
	KeyID     string // public gateway key the client checkout needs
}

func NewBookingHandler(admission *service.AdmissionService, reviews *service.ReviewService, passes report.PassSigner, currency, keyID string) *BookingHandler {
	if admission == nil || reviews == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Admission: admission, Reviews: reviews, Passes: passes, Currency: currency, KeyID: keyID}
}

type orderReq struct {
	ProgramID uint64 `json:"program_id"`
}

type memberReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type bookingReq struct {
	ProgramID  uint64      `json:"program_id"`
	IsGroup    bool        `json:"is_group"`
	GroupSize  uint32      `json:"group_size"`
	Members    []memberReq `json:"members"`
	PaymentRef string      `json:"payment_ref"`
	OrderID    string      `json:"order_id"`
}

type reviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateOrder POST /v1/bookings/orders
func (h *BookingHandler) CreateOrder(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return unauthorized(c)
	}
	var req orderReq
	if err := c.Bind(&req); err != nil || req.ProgramID == 0 {
		return badRequest(c, "program_id required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	orderID, amount, err := h.Admission.CreateOrder(ctx, req.ProgramID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id": orderID,
		"amount":   amount,
		"currency": h.Currency,
		"key_id":   h.KeyID,
	})
}

// Book POST /v1/bookings
func (h *BookingHandler) Book(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.ProgramID == 0 {
		return badRequest(c, "program_id required")
	}
	members := make([]model.GroupMember, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, model.GroupMember{Name: m.Name, Email: strings.TrimSpace(m.Email), Phone: strings.TrimSpace(m.Phone)})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Admission.Admit(ctx, service.AdmissionRequest{
		StudentID:  uid,
		ProgramID:  req.ProgramID,
		IsGroup:    req.IsGroup,
		GroupSize:  req.GroupSize,
		Members:    members,
		PaymentRef: strings.TrimSpace(req.PaymentRef),
		OrderID:    strings.TrimSpace(req.OrderID),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// MyBookings GET /v1/my-bookings
func (h *BookingHandler) MyBookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Admission.BookingsByStudent(ctx, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Members GET /v1/bookings/:id/members
func (h *BookingHandler) Members(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Admission.BookingFor(ctx, id, uid); err != nil {
		return writeError(c, err)
	}
	items, err := h.Admission.Ledger.MembersOf(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Pass GET /v1/bookings/:id/pass
func (h *BookingHandler) Pass(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Admission.BookingFor(ctx, id, uid)
	if err != nil {
		return writeError(c, err)
	}
	members, err := h.Admission.Ledger.MembersOf(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := h.Passes.RenderPass(*b, members)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=pass-"+strconv.FormatUint(b.ID, 10)+".pdf")
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// AddReview POST /v1/programs/:id/reviews
func (h *BookingHandler) AddReview(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid program id")
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.Add(ctx, uid, id, req.Rating, req.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rv)
}
