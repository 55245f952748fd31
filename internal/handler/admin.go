package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/festival-booking/internal/model"
    "github.com/iliyamo/festival-booking/internal/service"
)

// AdminHandler serves the festival review queue.
type AdminHandler struct {
	Catalog  *service.CatalogService
	Approval *service.ApprovalService
}

func NewAdminHandler(catalog *service.CatalogService, approval *service.ApprovalService) *AdminHandler {
	if catalog == nil || approval == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{Catalog: catalog, Approval: approval}
}

// ListFestivals GET /v1/admin/festivals?status=PENDING
func (h *AdminHandler) ListFestivals(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Catalog.FestivalsByStatus(ctx, c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Approve PUT /v1/admin/festivals/:id/approve
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.decide(c, model.ApprovalApproved)
}

// Reject PUT /v1/admin/festivals/:id/reject
func (h *AdminHandler) Reject(c echo.Context) error {
	return h.decide(c, model.ApprovalRejected)
}

func (h *AdminHandler) decide(c echo.Context, to model.ApprovalStatus) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid festival id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Approval.Decide(ctx, id, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}
