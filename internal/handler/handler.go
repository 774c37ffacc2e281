package handler // handler defines the HTTP handlers of the API

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-app-api/internal/middleware"
	"github.com/iliyamo/recipe-app-api/internal/model"
	"github.com/iliyamo/recipe-app-api/internal/repository"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

const defaultTimeout = 5 * time.Second

// Options carries dependencies shared by every handler.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration // per-request store timeout
}

type base struct {
	log     *slog.Logger
	timeout time.Duration
}

func newBase(o Options) base {
	b := base{log: o.Logger, timeout: o.Timeout}
	if b.log == nil {
		b.log = slog.Default()
	}
	if b.timeout <= 0 {
		b.timeout = defaultTimeout
	}
	return b
}

// ctx bounds store calls made on behalf of the request.
func (b base) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), b.timeout)
}

// actingUser returns the user resolved by the token middleware.
func (b base) actingUser(c echo.Context) (*model.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, service.ErrUnauthenticated
	}
	return u, nil
}

// fail renders err with the status matching its kind.
func (b base) fail(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  err.Error(),
			"fields": map[string][]string{service.NonFieldErrors: {err.Error()}},
		})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication credentials were not provided"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, context.DeadlineExceeded):
		b.log.WarnContext(c.Request().Context(), "request timed out", slog.String("path", c.Path()))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request timed out"})
	default:
		b.log.ErrorContext(c.Request().Context(), "request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// bind decodes the request body into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// failBind renders an error returned by bind.
func (b base) failBind(c echo.Context, err error) error {
	if errors.Is(err, model.ErrInvalidPrice) {
		return b.fail(c, service.NewValidationError("price", "A valid number with at most 5 digits and 2 decimal places is required."))
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		if ute.Field == "" {
			return b.fail(c, service.NewValidationError(service.NonFieldErrors,
				fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", ute.Value)))
		}
		return b.fail(c, service.NewValidationError(ute.Field, typeErrorMsg(ute)))
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	return b.fail(c, err)
}

// typeErrorMsg describes the value a field expected.
func typeErrorMsg(ute *json.UnmarshalTypeError) string {
	switch ute.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return service.MsgInteger
	case reflect.String:
		return "Not a valid string."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("Expected a list of items but got type %q.", ute.Value)
	default:
		return "Invalid value."
	}
}

// pathID parses the :id path parameter.  A malformed id cannot name an
// existing record, so it is reported as not found.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

// HTTPErrorHandler renders errors raised by echo itself (unknown route,
// method not allowed, panics recovered upstream) in the API error shape.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		} else if logger != nil {
			logger.ErrorContext(c.Request().Context(), "unhandled error", slog.String("error", err.Error()))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, echo.Map{"error": msg})
		}
		if werr != nil && logger != nil {
			logger.Error("write error response", slog.String("error", werr.Error()))
		}
	}
}
