package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/festival-booking/internal/repository"
    "github.com/iliyamo/festival-booking/internal/service"
)

// PublicHandler serves the anonymous catalog.
type PublicHandler struct {
	Catalog *service.CatalogService
	Reviews *service.ReviewService
}

func NewPublicHandler(catalog *service.CatalogService, reviews *service.ReviewService) *PublicHandler {
	if catalog == nil || reviews == nil {
		panic("nil service passed to NewPublicHandler")
	}
	return &PublicHandler{Catalog: catalog, Reviews: reviews}
}

// ListFestivals GET /v1/festivals
func (h *PublicHandler) ListFestivals(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Catalog.PublicFestivals(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetFestival GET /v1/festivals/:id
func (h *PublicHandler) GetFestival(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid festival id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Catalog.PublicFestival(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// ListFestivalPrograms GET /v1/festivals/:id/programs
func (h *PublicHandler) ListFestivalPrograms(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid festival id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Catalog.PublicFestival(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": d.Programs})
}

// SearchPrograms GET /v1/programs/search?q=&type=&page=&page_size=
func (h *PublicHandler) SearchPrograms(c echo.Context) error {
	q := repository.ProgramSearchQuery{
		Title: strings.TrimSpace(c.QueryParam("q")),
		Type:  strings.TrimSpace(c.QueryParam("type")),
	}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, total, err := h.Catalog.SearchPrograms(ctx, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total, "page": q.Page, "page_size": q.PageSize})
}

// ListReviews GET /v1/programs/:id/reviews
func (h *PublicHandler) ListReviews(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid program id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Reviews.List(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
