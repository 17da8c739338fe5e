package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/repository"
	"github.com/vannda/cinebook/internal/service"
)

// getUserID extracts the authenticated user's id placed in context by the
// JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	if v, ok := c.Get("user_id").(uint64); ok && v != 0 {
		return v, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID parses a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parseUintParam parses a positive numeric query value.
func parseUintParam(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// fail translates domain errors into HTTP responses.  Conflict outcomes
// carry the contested seat ids so clients can update their seat map;
// anything unrecognized becomes an opaque 500.
func fail(c echo.Context, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Msg})
	}
	var inv *service.InvalidSeatError
	if errors.As(err, &inv) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":    "seats do not belong to this showtime",
			"seat_ids": inv.SeatIDs,
		})
	}
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "seats unavailable",
			"seat_ids": conflict.SeatIDs,
		})
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, model.ErrAlreadyFinalized):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already finalized"})
	case errors.Is(err, service.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	case errors.Is(err, service.ErrAmountMismatch):
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment amount mismatch"})
	case errors.Is(err, service.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, please retry"})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// indexToRowLabel converts a zero-based index to an alphabetical row
// label like A, B, ..., Z, AA, AB.
func indexToRowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []rune
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// rowLabelToIndex converts a row label like A or AA into its zero-based
// index.
func rowLabelToIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return -1, false
	}
	n := 0
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return -1, false
		}
		n = n*26 + int(r-'A') + 1
	}
	return n - 1, true
}
