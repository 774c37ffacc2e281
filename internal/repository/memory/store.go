// Package memory provides in-process implementations of the repositories.
// They follow the same ownership and ordering rules as the MySQL ones and
// back the server when STORE=memory as well as the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/recipe-app-api/internal/model"
	"github.com/iliyamo/recipe-app-api/internal/repository"
)

// Store holds every table behind a single mutex.
type Store struct {
	mu sync.RWMutex

	nextID      uint64
	users       map[uint64]model.User
	tokens      map[string]model.AuthToken
	attributes  map[string]map[uint64]model.Attribute // kind table -> id -> row
	recipes     map[uint64]model.Recipe
	ingredients *AttributeRepo
	tags        *AttributeRepo
}

func NewStore() *Store {
	s := &Store{
		users:      make(map[uint64]model.User),
		tokens:     make(map[string]model.AuthToken),
		attributes: make(map[string]map[uint64]model.Attribute),
		recipes:    make(map[uint64]model.Recipe),
	}
	s.tags = &AttributeRepo{s: s, kind: model.TagKind}
	s.ingredients = &AttributeRepo{s: s, kind: model.IngredientKind}
	s.attributes[model.TagKind.Table] = make(map[uint64]model.Attribute)
	s.attributes[model.IngredientKind.Table] = make(map[uint64]model.Attribute)
	return s
}

func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }
func (s *Store) Tokens() *TokenRepo { return &TokenRepo{s: s} }
func (s *Store) Tags() *AttributeRepo { return s.tags }
func (s *Store) Ingredients() *AttributeRepo { return s.ingredients }
func (s *Store) Recipes() *RecipeRepo { return &RecipeRepo{s: s} }

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

// UserRepo is the in-memory users table.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	now := time.Now().UTC()
	u.ID, u.CreatedAt, u.UpdatedAt = r.s.id(), now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) GetByID(_ context.Context, id uint64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) Update(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.PasswordHash, cur.UpdatedAt = u.Name, u.PasswordHash, time.Now().UTC()
	r.s.users[u.ID] = cur
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

// TokenRepo is the in-memory auth_tokens table.
type TokenRepo struct{ s *Store }

func (r *TokenRepo) GetByUser(_ context.Context, userID uint64) (*model.AuthToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *TokenRepo) Create(_ context.Context, t *model.AuthToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tokens {
		if existing.UserID == t.UserID {
			return repository.ErrTokenExists
		}
	}
	if _, ok := r.s.tokens[t.Key]; ok {
		return repository.ErrTokenExists
	}
	t.CreatedAt = time.Now().UTC()
	r.s.tokens[t.Key] = *t
	return nil
}

func (r *TokenRepo) GetUserByKey(_ context.Context, key string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u, ok := r.s.users[t.UserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *TokenRepo) DeleteByUser(_ context.Context, userID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

// AttributeRepo is one in-memory attribute table.
type AttributeRepo struct {
	s    *Store
	kind model.AttributeKind
}

func (r *AttributeRepo) Kind() model.AttributeKind { return r.kind }

func (r *AttributeRepo) ListByOwner(_ context.Context, ownerID uint64, assignedOnly bool) ([]model.Attribute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	assigned := map[uint64]bool{}
	if assignedOnly {
		for _, rc := range r.s.recipes {
			for _, id := range r.linked(rc) {
				assigned[id] = true
			}
		}
	}
	out := []model.Attribute{}
	for _, a := range r.s.attributes[r.kind.Table] {
		if a.UserID != ownerID || (assignedOnly && !assigned[a.ID]) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name > out[j].Name
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *AttributeRepo) Create(_ context.Context, a *model.Attribute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	r.s.attributes[r.kind.Table][a.ID] = *a
	return nil
}

func (r *AttributeRepo) CountOwned(_ context.Context, ownerID uint64, ids []uint64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, id := range ids {
		if a, ok := r.s.attributes[r.kind.Table][id]; ok && a.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *AttributeRepo) linked(rc model.Recipe) []uint64 {
	if r.kind == model.TagKind {
		return rc.TagIDs
	}
	return rc.IngredientIDs
}

// RecipeRepo is the in-memory recipes table with its link tables folded in.
type RecipeRepo struct{ s *Store }

func (r *RecipeRepo) ListByOwner(_ context.Context, ownerID uint64, f repository.RecipeFilter) ([]model.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Recipe{}
	for _, rc := range r.s.recipes {
		if rc.UserID != ownerID {
			continue
		}
		if len(f.TagIDs) > 0 && !intersects(rc.TagIDs, f.TagIDs) {
			continue
		}
		if len(f.IngredientIDs) > 0 && !intersects(rc.IngredientIDs, f.IngredientIDs) {
			continue
		}
		out = append(out, cloneRecipe(rc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *RecipeRepo) GetByIDAndOwner(_ context.Context, id, ownerID uint64) (*model.RecipeDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rc, ok := r.s.recipes[id]
	if !ok || rc.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	d := &model.RecipeDetail{Recipe: cloneRecipe(rc)}
	d.Tags = r.expand(model.TagKind, d.TagIDs)
	d.Ingredients = r.expand(model.IngredientKind, d.IngredientIDs)
	return d, nil
}

func (r *RecipeRepo) Create(_ context.Context, rc *model.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	rc.ID, rc.CreatedAt, rc.UpdatedAt = r.s.id(), now, now
	r.s.recipes[rc.ID] = cloneRecipe(*rc)
	return nil
}

func (r *RecipeRepo) Update(_ context.Context, rc *model.Recipe, replaceTags, replaceIngredients bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.recipes[rc.ID]
	if !ok || cur.UserID != rc.UserID {
		return repository.ErrNotFound
	}
	cur.Title, cur.TimeMinutes, cur.Price, cur.Link = rc.Title, rc.TimeMinutes, rc.Price, rc.Link
	if replaceTags {
		cur.TagIDs = rc.TagIDs
	}
	if replaceIngredients {
		cur.IngredientIDs = rc.IngredientIDs
	}
	cur.UpdatedAt = time.Now().UTC()
	r.s.recipes[rc.ID] = cloneRecipe(cur)
	return nil
}

func (r *RecipeRepo) DeleteByIDAndOwner(_ context.Context, id, ownerID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rc, ok := r.s.recipes[id]
	if !ok || rc.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.s.recipes, id)
	return nil
}

// expand resolves ids to attribute rows ordered by id; ids missing from the
// table are skipped.
func (r *RecipeRepo) expand(kind model.AttributeKind, ids []uint64) []model.Attribute {
	out := []model.Attribute{}
	for _, id := range ids {
		if a, ok := r.s.attributes[kind.Table][id]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneRecipe(rc model.Recipe) model.Recipe {
	rc.TagIDs = sortedCopy(rc.TagIDs)
	rc.IngredientIDs = sortedCopy(rc.IngredientIDs)
	return rc
}

func sortedCopy(ids []uint64) []uint64 {
	out := make([]uint64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func intersects(have, want []uint64) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
