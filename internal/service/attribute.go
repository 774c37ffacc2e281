package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/recipe-app-api/internal/model"
)

const maxNameLen = 255

// AttributeStore is the persistence behind one attribute collection.
type AttributeStore interface {
	Kind() model.AttributeKind
	ListByOwner(ctx context.Context, ownerID uint64, assignedOnly bool) ([]model.Attribute, error)
	Create(ctx context.Context, a *model.Attribute) error
	CountOwned(ctx context.Context, ownerID uint64, ids []uint64) (int, error)
}

// ListOptions narrows an attribute listing.
type ListOptions struct {
	AssignedOnly bool
}

// AttributeService is the list/create operation set shared by tags and
// ingredients.  Which collection it serves is decided by its store's kind.
type AttributeService struct {
	store AttributeStore
}

func NewAttributeService(store AttributeStore) *AttributeService {
	return &AttributeService{store: store}
}

// Kind reports the collection served.
func (s *AttributeService) Kind() model.AttributeKind { return s.store.Kind() }

// List returns the acting user's attributes ordered by name descending.
func (s *AttributeService) List(ctx context.Context, actingUserID uint64, opts ListOptions) ([]model.Attribute, error) {
	return s.store.ListByOwner(ctx, actingUserID, opts.AssignedOnly)
}

// Create stores a new attribute owned by the acting user.
func (s *AttributeService) Create(ctx context.Context, actingUserID uint64, name string) (*model.Attribute, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, NewValidationError("name", MsgBlank)
	case utf8.RuneCountInString(name) > maxNameLen:
		return nil, NewValidationError("name", maxLengthMsg(maxNameLen))
	}
	a := &model.Attribute{UserID: actingUserID, Name: name}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// validateOwned checks that every id in ids is one of the acting user's
// attributes.  ids is de-duplicated and returned.
func validateOwned(ctx context.Context, store AttributeStore, actingUserID uint64, field string, ids []uint64, verr *ValidationError) ([]uint64, error) {
	uniq := dedupe(ids)
	if len(uniq) == 0 {
		return uniq, nil
	}
	n, err := store.CountOwned(ctx, actingUserID, uniq)
	if err != nil {
		return nil, err
	}
	if n != len(uniq) {
		verr.Add(field, "Invalid pk - object does not exist.")
	}
	return uniq, nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
