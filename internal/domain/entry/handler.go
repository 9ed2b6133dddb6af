package entry

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hepacheck/hepacheck/pkg/pagination"
)

type Handler struct {
	svc          *Service
	historyLimit int
}

func NewHandler(svc *Service, historyLimit int) *Handler {
	return &Handler{svc: svc, historyLimit: historyLimit}
}

// RegisterRoutes mounts the score routes on g, normally the /scores group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/compute", h.Compute)
	g.POST("/save", h.Save)
	g.GET("/history", h.History)
	g.GET("/entries/:id", h.GetEntry)
	g.DELETE("/delete/:id", h.DeleteEntry)
	g.DELETE("/clear", h.Clear)
}

func bindPanel(c echo.Context) (ScoreInput, error) {
	var in ScoreInput
	if err := c.Bind(&in); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return in, he
		}
		return in, echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	return in, nil
}

func (h *Handler) Compute(c echo.Context) error {
	in, err := bindPanel(c)
	if err != nil {
		return err
	}
	p, err := in.Panel()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r := h.svc.Compute(c.Request().Context(), p)
	return c.JSON(http.StatusOK, NewScoreOutput(r))
}

func (h *Handler) Save(c echo.Context) error {
	in, err := bindPanel(c)
	if err != nil {
		return err
	}
	p, err := in.Panel()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.Save(c.Request().Context(), p)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save entry").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) History(c echo.Context) error {
	pg := pagination.FromContextWithDefault(c, h.historyLimit)
	items, total, err := h.svc.History(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history").SetInternal(err)
	}
	pg.WriteHeaders(c, total)
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetEntry(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return entryError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return entryError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Clear(c echo.Context) error {
	n, err := h.svc.Clear(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear history").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"deleted": n})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func entryError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Entry not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "failed to load entry").SetInternal(err)
}
