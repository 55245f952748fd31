package handler

import (
    "bytes"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/festival-booking/internal/service"
)

// CollegeHandler serves festival and program management for colleges.
type CollegeHandler struct {
	Catalog   *service.CatalogService
	Admission *service.AdmissionService
	Reports   *service.ReportService
}

func NewCollegeHandler(catalog *service.CatalogService, admission *service.AdmissionService, reports *service.ReportService) *CollegeHandler {
	if catalog == nil || admission == nil || reports == nil {
		panic("nil service passed to NewCollegeHandler")
	}
	return &CollegeHandler{Catalog: catalog, Admission: admission, Reports: reports}
}

// CreateFestival POST /v1/college/festivals
func (h *CollegeHandler) CreateFestival(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in service.FestivalInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Catalog.CreateFestival(ctx, uid, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

// ListFestivals GET /v1/college/festivals
func (h *CollegeHandler) ListFestivals(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Catalog.CollegeFestivals(ctx, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteFestival DELETE /v1/college/festivals/:id
func (h *CollegeHandler) DeleteFestival(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid festival id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Catalog.DeleteFestival(ctx, uid, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddProgram POST /v1/college/festivals/:id/programs
func (h *CollegeHandler) AddProgram(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid festival id")
	}
	var in service.ProgramInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Catalog.AddProgram(ctx, uid, id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPrograms GET /v1/college/programs
func (h *CollegeHandler) ListPrograms(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Catalog.CollegePrograms(ctx, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteProgram DELETE /v1/college/programs/:id
func (h *CollegeHandler) DeleteProgram(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid program id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Catalog.DeleteProgram(ctx, uid, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ProgramBookings GET /v1/college/programs/:id/bookings
func (h *CollegeHandler) ProgramBookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid program id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Catalog.ProgramOwnedBy(ctx, uid, id); err != nil {
		return writeError(c, err)
	}
	items, err := h.Admission.BookingsByProgram(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// BookingsReport GET /v1/college/reports/bookings.xlsx
func (h *CollegeHandler) BookingsReport(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	var buf bytes.Buffer
	if err := h.Reports.WriteCollegeReport(ctx, uid, &buf); err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=college-bookings.xlsx")
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
