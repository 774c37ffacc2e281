package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/recipe-app-api/internal/logging"
	"github.com/iliyamo/recipe-app-api/internal/repository/memory"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	st := memory.NewStore()
	logger := logging.Discard()
	return New(Deps{
		Logger:      logger,
		Users:       service.NewUserService(st.Users(), st.Tokens(), 4),
		Tags:        service.NewAttributeService(st.Tags()),
		Ingredients: service.NewAttributeService(st.Ingredients()),
		Recipes:     service.NewRecipeService(st.Recipes(), st.Tags(), st.Ingredients(), nil, logger),
	})
}

type client struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Token "+c.token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// login registers a user and returns a client carrying its token.
func login(t *testing.T, e *echo.Echo, email string) client {
	t.Helper()
	anon := client{t: t, e: e}
	rec := anon.do(http.MethodPost, "/api/user/create/", map[string]string{"email": email, "password": "testpass123", "name": "Test"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = anon.do(http.MethodPost, "/api/user/token/", map[string]string{"email": email, "password": "testpass123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[map[string]string](t, rec)["token"]
	require.Len(t, tok, 40)
	return client{t: t, e: e, token: tok}
}

func TestHealthAndMetrics(t *testing.T) {
	e := newTestServer(t)
	anon := client{t: t, e: e}

	rec := anon.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipe_api_http_requests_total")
}

func TestUserScenario(t *testing.T) {
	e := newTestServer(t)
	anon := client{t: t, e: e}

	rec := anon.do(http.MethodPost, "/api/user/create/", map[string]string{
		"email": "Test@Example.com", "password": "testpass123", "name": "Test Name",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "test@example.com", created["email"])
	assert.NotContains(t, created, "password")

	rec = anon.do(http.MethodPost, "/api/user/token/", map[string]string{"email": "test@example.com", "password": "testpass123"})
	require.Equal(t, http.StatusOK, rec.Code)
	me := client{t: t, e: e, token: decode[map[string]string](t, rec)["token"]}

	rec = me.do(http.MethodGet, "/api/user/me/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"email": "test@example.com", "name": "Test Name"}, decode[map[string]string](t, rec))

	rec = me.do(http.MethodPatch, "/api/user/me/", map[string]string{"name": "Updated", "password": "newpassword123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Updated", decode[map[string]string](t, rec)["name"])

	rec = anon.do(http.MethodPost, "/api/user/token/", map[string]string{"email": "test@example.com", "password": "newpassword123"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserCreate_Rejections(t *testing.T) {
	e := newTestServer(t)
	anon := client{t: t, e: e}

	rec := anon.do(http.MethodPost, "/api/user/create/", map[string]string{"email": "short@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, rec)
	assert.Contains(t, body.Fields, "password")

	// nothing was stored, so the credentials cannot log in
	rec = anon.do(http.MethodPost, "/api/user/token/", map[string]string{"email": "short@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), service.NonFieldErrors)

	rec = anon.do(http.MethodPost, "/api/user/create/", map[string]string{"email": "not-an-email", "password": "testpass123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	login(t, e, "dup@example.com")
	rec = anon.do(http.MethodPost, "/api/user/create/", map[string]string{"email": "DUP@example.com", "password": "testpass123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), service.MsgEmailTaken)
}

func TestAuthRequired(t *testing.T) {
	e := newTestServer(t)
	anon := client{t: t, e: e}

	for _, path := range []string{"/api/user/me/", "/api/recipe/tags/", "/api/recipe/ingredients/", "/api/recipe/recipes/"} {
		rec := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	bogus := client{t: t, e: e, token: strings.Repeat("a", 40)}
	rec := bogus.do(http.MethodGet, "/api/recipe/tags/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token", rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestMe_MethodNotAllowed(t *testing.T) {
	e := newTestServer(t)
	me := login(t, e, "me@example.com")

	rec := me.do(http.MethodPost, "/api/user/me/", map[string]string{})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decode[map[string]any](t, rec), "error")
}

func TestLogout_RevokesToken(t *testing.T) {
	e := newTestServer(t)
	me := login(t, e, "bye@example.com")

	rec := me.do(http.MethodPost, "/api/user/logout/", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = me.do(http.MethodGet, "/api/user/me/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTags_CreateListAndIsolation(t *testing.T) {
	e := newTestServer(t)
	u1 := login(t, e, "u1@example.com")
	u2 := login(t, e, "u2@example.com")

	for _, name := range []string{"Vegan", "Dessert"} {
		rec := u1.do(http.MethodPost, "/api/recipe/tags/", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	require.Equal(t, http.StatusCreated, u2.do(http.MethodPost, "/api/recipe/tags/", map[string]string{"name": "Fruity"}).Code)

	// trailing slash is optional
	rec := u1.do(http.MethodGet, "/api/recipe/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decode[[]map[string]any](t, rec)
	require.Len(t, tags, 2)
	assert.Equal(t, "Vegan", tags[0]["name"])
	assert.Equal(t, "Dessert", tags[1]["name"])
}

func TestIngredients_EmptyNameRejected(t *testing.T) {
	e := newTestServer(t)
	u := login(t, e, "u@example.com")

	rec := u.do(http.MethodPost, "/api/recipe/ingredients/", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = u.do(http.MethodGet, "/api/recipe/ingredients/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

type recipeSummary struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	TimeMinutes int      `json:"time_minutes"`
	Price       string   `json:"price"`
	Link        string   `json:"link"`
	Tags        []uint64 `json:"tags"`
	Ingredients []uint64 `json:"ingredients"`
}

type recipeDetail struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
	Tags  []struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	} `json:"tags"`
}

func TestRecipes_CreateWithTagsAndDetail(t *testing.T) {
	e := newTestServer(t)
	u := login(t, e, "cook@example.com")

	var tagIDs []uint64
	for _, name := range []string{"Vegan", "Dessert"} {
		rec := u.do(http.MethodPost, "/api/recipe/tags/", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code)
		tagIDs = append(tagIDs, uint64(decode[map[string]any](t, rec)["id"].(float64)))
	}

	rec := u.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{
		"title": "Avocado lime cheesecake", "time_minutes": 60, "price": "20.00", "tags": tagIDs,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[recipeSummary](t, rec)
	assert.Equal(t, "20.00", created.Price)
	assert.ElementsMatch(t, tagIDs, created.Tags)
	assert.Equal(t, []uint64{}, created.Ingredients)

	rec = u.do(http.MethodGet, "/api/recipe/recipes/"+itoa(created.ID)+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[recipeDetail](t, rec)
	require.Len(t, detail.Tags, 2)
	names := []string{detail.Tags[0].Name, detail.Tags[1].Name}
	assert.ElementsMatch(t, []string{"Vegan", "Dessert"}, names)
}

func TestRecipes_UpdateAndDelete(t *testing.T) {
	e := newTestServer(t)
	u := login(t, e, "cook@example.com")

	rec := u.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{"title": "Pasta", "time_minutes": 20, "price": "5.00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := itoa(decode[recipeSummary](t, rec).ID)
	path := "/api/recipe/recipes/" + id + "/"

	rec = u.do(http.MethodPatch, path, map[string]any{"title": "Better pasta"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[recipeSummary](t, rec)
	assert.Equal(t, "Better pasta", patched.Title)
	assert.Equal(t, 20, patched.TimeMinutes)
	assert.Equal(t, "5.00", patched.Price)

	rec = u.do(http.MethodPut, path, map[string]any{"title": "Only title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = u.do(http.MethodPut, path, map[string]any{"title": "Risotto", "time_minutes": 35, "price": 12.5, "link": "https://example.com/r"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	put := decode[recipeSummary](t, rec)
	assert.Equal(t, "12.50", put.Price)
	assert.Equal(t, "https://example.com/r", put.Link)

	rec = u.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = u.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipes_Isolation(t *testing.T) {
	e := newTestServer(t)
	u1 := login(t, e, "u1@example.com")
	u2 := login(t, e, "u2@example.com")

	rec := u1.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{"title": "Mine", "time_minutes": 5, "price": "1.00"})
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/api/recipe/recipes/" + itoa(decode[recipeSummary](t, rec).ID) + "/"

	rec = u2.do(http.MethodGet, "/api/recipe/recipes/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, u2.do(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, u2.do(http.MethodPatch, path, map[string]any{"title": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, u2.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusOK, u1.do(http.MethodGet, path, nil).Code)
}

func TestRecipes_EmptyTitleRejected(t *testing.T) {
	e := newTestServer(t)
	u := login(t, e, "cook@example.com")

	rec := u.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{"title": "", "time_minutes": 5, "price": "1.00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "title")

	rec = u.do(http.MethodGet, "/api/recipe/recipes/", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecipes_ListFilterByTag(t *testing.T) {
	e := newTestServer(t)
	u := login(t, e, "cook@example.com")

	rec := u.do(http.MethodPost, "/api/recipe/tags/", map[string]string{"name": "Quick"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tagID := uint64(decode[map[string]any](t, rec)["id"].(float64))

	require.Equal(t, http.StatusCreated, u.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{"title": "Plain", "time_minutes": 5, "price": "1.00"}).Code)
	require.Equal(t, http.StatusCreated, u.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{"title": "Tagged", "time_minutes": 5, "price": "1.00", "tags": []uint64{tagID}}).Code)

	rec = u.do(http.MethodGet, "/api/recipe/recipes/?tags="+itoa(tagID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]recipeSummary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Tagged", list[0].Title)

	rec = u.do(http.MethodGet, "/api/recipe/recipes/?tags=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = u.do(http.MethodGet, "/api/recipe/tags/?assigned_only=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func itoa(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestRecipes_InvalidPrice(t *testing.T) {
	e := newTestServer(t)
	u := login(t, e, "cook@example.com")

	rec := u.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{"title": "Caviar", "time_minutes": 5, "price": "1000.00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, rec)
	assert.Contains(t, body.Fields, "price")
}

func TestRecipes_MalformedFieldsReportedPerField(t *testing.T) {
	e := newTestServer(t)
	u := login(t, e, "cook@example.com")
	type errBody struct {
		Error  string              `json:"error"`
		Fields map[string][]string `json:"fields"`
	}
	valid := func(overrides map[string]any) map[string]any {
		body := map[string]any{"title": "Soup", "time_minutes": 10, "price": "5.00"}
		for k, v := range overrides {
			body[k] = v
		}
		return body
	}

	cases := []struct {
		name  string
		body  any
		field string
		msg   string
	}{
		{name: "time as string", body: valid(map[string]any{"time_minutes": "abc"}), field: "time_minutes", msg: service.MsgInteger},
		{name: "time overflow", body: valid(map[string]any{"time_minutes": 5000000000}), field: "time_minutes"},
		{name: "tag as string", body: valid(map[string]any{"tags": []any{"x"}}), field: "tags", msg: service.MsgInteger},
		{name: "negative tag", body: valid(map[string]any{"tags": []any{-1}}), field: "tags", msg: service.MsgInteger},
		{name: "tags not a list", body: valid(map[string]any{"tags": "x"}), field: "tags"},
		{name: "signed cents", body: valid(map[string]any{"price": "5.-1"}), field: "price"},
		{name: "plus cents", body: valid(map[string]any{"price": "5.+1"}), field: "price"},
		{name: "not an object", body: []any{}, field: service.NonFieldErrors},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u.t = t
			rec := u.do(http.MethodPost, "/api/recipe/recipes/", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[errBody](t, rec)
			require.Contains(t, body.Fields, tc.field, rec.Body.String())
			if tc.msg != "" {
				assert.Equal(t, []string{tc.msg}, body.Fields[tc.field])
			}
		})
	}

	u.t = t
	rec := u.do(http.MethodGet, "/api/recipe/recipes/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]map[string]any](t, rec))
}

func TestRecipes_NullFieldsRejected(t *testing.T) {
	e := newTestServer(t)
	u := login(t, e, "cook@example.com")

	rec := u.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{"title": nil, "time_minutes": 10, "price": "5.00"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, rec)
	assert.Equal(t, []string{service.MsgNull}, body.Fields["title"])

	rec = u.do(http.MethodPost, "/api/recipe/recipes/", map[string]any{"title": "Soup", "time_minutes": 10, "price": "5.00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	path := "/api/recipe/recipes/" + itoa(uint64(decode[map[string]any](t, rec)["id"].(float64))) + "/"

	rec = u.do(http.MethodPatch, path, map[string]any{"price": nil, "tags": nil})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body = decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, rec)
	assert.Equal(t, []string{service.MsgNull}, body.Fields["price"])
	assert.Equal(t, []string{service.MsgNull}, body.Fields["tags"])

	rec = u.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5.00", decode[map[string]any](t, rec)["price"])

	rec = u.do(http.MethodPatch, path, map[string]any{"title": "Broth"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Broth", decode[map[string]any](t, rec)["title"])
}
