package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/recipe-app-api/internal/model"
	"github.com/iliyamo/recipe-app-api/internal/queue"
	"github.com/iliyamo/recipe-app-api/internal/repository"
)

const publishTimeout = 3 * time.Second

// maxTimeMinutes keeps time_minutes within a signed 32-bit column value.
const maxTimeMinutes = math.MaxInt32

// RecipeStore is the persistence behind the recipe collection.
type RecipeStore interface {
	ListByOwner(ctx context.Context, ownerID uint64, f repository.RecipeFilter) ([]model.Recipe, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.RecipeDetail, error)
	Create(ctx context.Context, rc *model.Recipe) error
	Update(ctx context.Context, rc *model.Recipe, replaceTags, replaceIngredients bool) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
}

// EventPublisher receives recipe change notifications.
type EventPublisher interface {
	PublishRecipeEvent(ctx context.Context, ev queue.RecipeEvent) error
}

// RecipeInput carries the writable recipe fields.  Nil means the field was
// not supplied; on create and full update the scalar fields are required.
type RecipeInput struct {
	Title         *string
	TimeMinutes   *int
	Price         *model.Price
	Link          *string
	TagIDs        *[]uint64
	IngredientIDs *[]uint64
}

// RecipeService implements the recipe collection.  Tags and ingredients
// attached to a recipe must belong to the acting user.
type RecipeService struct {
	recipes     RecipeStore
	tags        AttributeStore
	ingredients AttributeStore
	events      EventPublisher
	logger      *slog.Logger
}

// NewRecipeService wires the recipe collection.  events may be nil, in which
// case no change notifications are sent.
func NewRecipeService(recipes RecipeStore, tags, ingredients AttributeStore, events EventPublisher, logger *slog.Logger) *RecipeService {
	return &RecipeService{recipes: recipes, tags: tags, ingredients: ingredients, events: events, logger: logger}
}

// List returns the acting user's recipes, newest first.
func (s *RecipeService) List(ctx context.Context, actingUserID uint64, f repository.RecipeFilter) ([]model.Recipe, error) {
	f.TagIDs = dedupe(f.TagIDs)
	f.IngredientIDs = dedupe(f.IngredientIDs)
	return s.recipes.ListByOwner(ctx, actingUserID, f)
}

// Get returns one of the acting user's recipes with tags and ingredients
// expanded.  Recipes of other users are reported as repository.ErrNotFound.
func (s *RecipeService) Get(ctx context.Context, actingUserID, id uint64) (*model.RecipeDetail, error) {
	return s.recipes.GetByIDAndOwner(ctx, id, actingUserID)
}

// Create stores a new recipe owned by the acting user.
func (s *RecipeService) Create(ctx context.Context, actingUserID uint64, in RecipeInput) (*model.Recipe, error) {
	rc := &model.Recipe{UserID: actingUserID, TagIDs: []uint64{}, IngredientIDs: []uint64{}}
	if err := s.apply(ctx, rc, in, false); err != nil {
		return nil, err
	}
	if err := s.recipes.Create(ctx, rc); err != nil {
		return nil, err
	}
	s.publish(ctx, queue.ActionCreated, rc)
	return rc, nil
}

// Update changes one of the acting user's recipes.  With partial unset every
// scalar field is required (PUT); otherwise only supplied fields change
// (PATCH).  Tags and ingredients are replaced only when supplied.
func (s *RecipeService) Update(ctx context.Context, actingUserID, id uint64, in RecipeInput, partial bool) (*model.Recipe, error) {
	cur, err := s.recipes.GetByIDAndOwner(ctx, id, actingUserID)
	if err != nil {
		return nil, err
	}
	rc := cur.Recipe
	if err := s.apply(ctx, &rc, in, partial); err != nil {
		return nil, err
	}
	if err := s.recipes.Update(ctx, &rc, in.TagIDs != nil, in.IngredientIDs != nil); err != nil {
		return nil, err
	}
	s.publish(ctx, queue.ActionUpdated, &rc)
	return &rc, nil
}

// Delete removes one of the acting user's recipes.
func (s *RecipeService) Delete(ctx context.Context, actingUserID, id uint64) error {
	if err := s.recipes.DeleteByIDAndOwner(ctx, id, actingUserID); err != nil {
		return err
	}
	s.publish(ctx, queue.ActionDeleted, &model.Recipe{ID: id, UserID: actingUserID})
	return nil
}

// apply validates in and copies it onto rc.  When partial is false the
// title, time_minutes and price fields must be present.
func (s *RecipeService) apply(ctx context.Context, rc *model.Recipe, in RecipeInput, partial bool) error {
	verr := &ValidationError{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		switch {
		case title == "":
			verr.Add("title", MsgBlank)
		case utf8.RuneCountInString(title) > maxNameLen:
			verr.Add("title", maxLengthMsg(maxNameLen))
		default:
			rc.Title = title
		}
	} else if !partial {
		verr.Add("title", MsgRequired)
	}

	if in.TimeMinutes != nil {
		switch {
		case *in.TimeMinutes < 0:
			verr.Add("time_minutes", "Ensure this value is greater than or equal to 0.")
		case *in.TimeMinutes > maxTimeMinutes:
			verr.Add("time_minutes", fmt.Sprintf("Ensure this value is less than or equal to %d.", maxTimeMinutes))
		default:
			rc.TimeMinutes = *in.TimeMinutes
		}
	} else if !partial {
		verr.Add("time_minutes", MsgRequired)
	}

	if in.Price != nil {
		if *in.Price < 0 || *in.Price > model.MaxPrice {
			verr.Add("price", "Ensure that there are no more than 5 digits in total.")
		} else {
			rc.Price = *in.Price
		}
	} else if !partial {
		verr.Add("price", MsgRequired)
	}

	if in.Link != nil {
		link := strings.TrimSpace(*in.Link)
		if utf8.RuneCountInString(link) > maxNameLen {
			verr.Add("link", maxLengthMsg(maxNameLen))
		} else {
			rc.Link = link
		}
	}

	if in.TagIDs != nil {
		ids, err := validateOwned(ctx, s.tags, rc.UserID, "tags", *in.TagIDs, verr)
		if err != nil {
			return err
		}
		rc.TagIDs = ids
	}
	if in.IngredientIDs != nil {
		ids, err := validateOwned(ctx, s.ingredients, rc.UserID, "ingredients", *in.IngredientIDs, verr)
		if err != nil {
			return err
		}
		rc.IngredientIDs = ids
	}
	return verr.Err()
}

// publish sends a change event.  Failures are logged and never surface to
// the caller.
func (s *RecipeService) publish(ctx context.Context, action string, rc *model.Recipe) {
	if s.events == nil {
		return
	}
	ev := queue.RecipeEvent{
		Action:        action,
		RecipeID:      rc.ID,
		UserID:        rc.UserID,
		Title:         rc.Title,
		TimeMinutes:   rc.TimeMinutes,
		TagIDs:        rc.TagIDs,
		IngredientIDs: rc.IngredientIDs,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if action != queue.ActionDeleted {
		ev.Price = rc.Price.String()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.PublishRecipeEvent(ctx, ev); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "publish recipe event failed",
			slog.String("action", action),
			slog.Uint64("recipe_id", rc.ID),
			slog.String("error", err.Error()))
	}
}
