package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/recipe-app-api/internal/logging"
	"github.com/iliyamo/recipe-app-api/internal/repository"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()

	err := v.Validate(&registerReq{Email: "bad", Password: "short"})
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{service.MsgInvalidEmail}, verr.Fields["email"])
	assert.Equal(t, []string{"Ensure this field has at least 6 characters."}, verr.Fields["password"])

	err = v.Validate(&registerReq{})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{service.MsgRequired}, verr.Fields["email"])

	assert.NoError(t, v.Validate(&registerReq{Email: "ok@example.com", Password: "longenough"}))

	short := "abc"
	assert.Error(t, v.Validate(&updateMeReq{Password: &short}))
	assert.NoError(t, v.Validate(&updateMeReq{}))
}

func TestFail_StatusMapping(t *testing.T) {
	b := newBase(Options{Logger: logging.Discard()})
	cases := []struct {
		err  error
		code int
	}{
		{service.NewValidationError("name", service.MsgBlank), http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("get: %w", repository.ErrNotFound), http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, b.fail(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body, "error")
	}
}

func TestFail_InvalidCredentialsCarriesNonFieldErrors(t *testing.T) {
	b := newBase(Options{})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, b.fail(c, service.ErrInvalidCredentials))

	var body struct {
		Fields map[string][]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{service.ErrInvalidCredentials.Error()}, body.Fields[service.NonFieldErrors])
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(logging.Discard())
	e.GET("/only-get", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/only-get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestPathID(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")

	c.SetParamValues("12")
	id, err := pathID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c.SetParamValues(bad)
		_, err := pathID(c)
		assert.ErrorIs(t, err, repository.ErrNotFound, bad)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 1, 2,3 ")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	ids, err = parseIDs("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDs("1,x")
	assert.Error(t, err)
}

func TestParseFlag(t *testing.T) {
	for in, want := range map[string]bool{"": false, "0": false, "1": true} {
		got, err := parseFlag(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := parseFlag("2")
	assert.Error(t, err)
	_, err = parseFlag("yes")
	assert.Error(t, err)
}

func TestOptional_TracksPresenceAndNull(t *testing.T) {
	var req recipeReq
	require.NoError(t, json.Unmarshal([]byte(`{"title":null,"time_minutes":15,"tags":[]}`), &req))

	assert.True(t, req.Title.Set)
	assert.True(t, req.Title.Null)
	assert.Nil(t, req.Title.ptr())
	assert.Equal(t, 15, *req.TimeMinutes.ptr())
	assert.Equal(t, []uint64{}, *req.Tags.ptr())
	assert.False(t, req.Price.Set)
	assert.Nil(t, req.Price.ptr())

	_, err := req.input()
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string][]string{"title": {service.MsgNull}}, verr.Fields)
}

func TestFailBind_TypeErrorNamesField(t *testing.T) {
	b := newBase(Options{Logger: logging.Discard()})
	var req recipeReq
	err := json.Unmarshal([]byte(`{"time_minutes":"abc"}`), &req)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, b.failBind(c, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Fields map[string][]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{service.MsgInteger}, body.Fields["time_minutes"])
}
