package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-app-api/internal/model"
	"github.com/iliyamo/recipe-app-api/internal/repository"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

// RecipeHandler serves the recipe collection and detail endpoints.
type RecipeHandler struct {
	base
	Svc *service.RecipeService
}

func NewRecipeHandler(svc *service.RecipeService, o Options) *RecipeHandler {
	if svc == nil {
		panic("nil recipe service passed to NewRecipeHandler")
	}
	return &RecipeHandler{base: newBase(o), Svc: svc}
}

// recipeReq distinguishes absent fields from supplied ones so that PATCH
// only touches what the client sent.  None of the fields accept null.
type recipeReq struct {
	Title       optional[string]      `json:"title"`
	TimeMinutes optional[int]         `json:"time_minutes"`
	Price       optional[model.Price] `json:"price"`
	Link        optional[string]      `json:"link"`
	Tags        optional[[]uint64]    `json:"tags"`
	Ingredients optional[[]uint64]    `json:"ingredients"`
}

func (r recipeReq) input() (service.RecipeInput, error) {
	verr := &service.ValidationError{}
	for field, null := range map[string]bool{
		"title":        r.Title.Null,
		"time_minutes": r.TimeMinutes.Null,
		"price":        r.Price.Null,
		"link":         r.Link.Null,
		"tags":         r.Tags.Null,
		"ingredients":  r.Ingredients.Null,
	} {
		if null {
			verr.Add(field, service.MsgNull)
		}
	}
	if err := verr.Err(); err != nil {
		return service.RecipeInput{}, err
	}
	return service.RecipeInput{
		Title:         r.Title.ptr(),
		TimeMinutes:   r.TimeMinutes.ptr(),
		Price:         r.Price.ptr(),
		Link:          r.Link.ptr(),
		TagIDs:        r.Tags.ptr(),
		IngredientIDs: r.Ingredients.ptr(),
	}, nil
}

// recipeResp is the list/write representation: tags and ingredients as ids.
type recipeResp struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	TimeMinutes int         `json:"time_minutes"`
	Price       model.Price `json:"price"`
	Link        string      `json:"link"`
	Tags        []uint64    `json:"tags"`
	Ingredients []uint64    `json:"ingredients"`
}

// recipeDetailResp is the single-recipe representation with tags and
// ingredients expanded.
type recipeDetailResp struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	TimeMinutes int               `json:"time_minutes"`
	Price       model.Price       `json:"price"`
	Link        string            `json:"link"`
	Tags        []model.Attribute `json:"tags"`
	Ingredients []model.Attribute `json:"ingredients"`
}

func toRecipeResp(r *model.Recipe) recipeResp {
	out := recipeResp{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        r.TagIDs,
		Ingredients: r.IngredientIDs,
	}
	if out.Tags == nil {
		out.Tags = []uint64{}
	}
	if out.Ingredients == nil {
		out.Ingredients = []uint64{}
	}
	return out
}

func toRecipeDetailResp(d *model.RecipeDetail) recipeDetailResp {
	out := recipeDetailResp{
		ID:          d.ID,
		Title:       d.Title,
		TimeMinutes: d.TimeMinutes,
		Price:       d.Price,
		Link:        d.Link,
		Tags:        d.Tags,
		Ingredients: d.Ingredients,
	}
	if out.Tags == nil {
		out.Tags = []model.Attribute{}
	}
	if out.Ingredients == nil {
		out.Ingredients = []model.Attribute{}
	}
	return out
}

// List handles GET /api/recipe/recipes/.  ?tags=1,2 and ?ingredients=3 keep
// recipes carrying any of the listed ids.
func (h *RecipeHandler) List(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	verr := &service.ValidationError{}
	var f repository.RecipeFilter
	if f.TagIDs, err = parseIDs(c.QueryParam("tags")); err != nil {
		verr.Add("tags", "Enter a comma separated list of ids.")
	}
	if f.IngredientIDs, err = parseIDs(c.QueryParam("ingredients")); err != nil {
		verr.Add("ingredients", "Enter a comma separated list of ids.")
	}
	if err := verr.Err(); err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	items, err := h.Svc.List(ctx, u.ID, f)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]recipeResp, len(items))
	for i := range items {
		out[i] = toRecipeResp(&items[i])
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /api/recipe/recipes/:id/.
func (h *RecipeHandler) Get(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	d, err := h.Svc.Get(ctx, u.ID, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toRecipeDetailResp(d))
}

// Create handles POST /api/recipe/recipes/.
func (h *RecipeHandler) Create(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req recipeReq
	if err := bind(c, &req); err != nil {
		return h.failBind(c, err)
	}
	in, err := req.input()
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	rc, err := h.Svc.Create(ctx, u.ID, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, toRecipeResp(rc))
}

// Update handles PUT /api/recipe/recipes/:id/ (all fields required).
func (h *RecipeHandler) Update(c echo.Context) error { return h.update(c, false) }

// PartialUpdate handles PATCH /api/recipe/recipes/:id/.
func (h *RecipeHandler) PartialUpdate(c echo.Context) error { return h.update(c, true) }

func (h *RecipeHandler) update(c echo.Context, partial bool) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req recipeReq
	if err := bind(c, &req); err != nil {
		return h.failBind(c, err)
	}
	in, err := req.input()
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	rc, err := h.Svc.Update(ctx, u.ID, id, in, partial)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toRecipeResp(rc))
}

// Delete handles DELETE /api/recipe/recipes/:id/.
func (h *RecipeHandler) Delete(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Svc.Delete(ctx, u.ID, id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// parseIDs parses "1,2,3" into ids.  An empty string yields nil.
func parseIDs(s string) ([]uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
