package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/recipe-app-api/internal/model"
)

const recipeColumns = "id, user_id, title, time_minutes, price_cents, link, created_at, updated_at"

// RecipeFilter narrows a recipe listing to recipes carrying any of the given
// tags or ingredients.  Empty slices mean no filtering.
type RecipeFilter struct {
	TagIDs        []uint64
	IngredientIDs []uint64
}

// RecipeRepo encapsulates all queries related to recipes and their
// tag/ingredient links.
type RecipeRepo struct {
	db *sql.DB
}

func NewRecipeRepo(db *sql.DB) *RecipeRepo { return &RecipeRepo{db: db} }

// ListByOwner returns the owner's recipes, newest first, with their tag and
// ingredient ids populated.
func (r *RecipeRepo) ListByOwner(ctx context.Context, ownerID uint64, f RecipeFilter) ([]model.Recipe, error) {
	q := "SELECT " + recipeColumns + " FROM recipes WHERE user_id = ?"
	args := []any{ownerID}
	if len(f.TagIDs) > 0 {
		in, ids := inClause(f.TagIDs)
		q += " AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (" + in + "))"
		args = append(args, ids...)
	}
	if len(f.IngredientIDs) > 0 {
		in, ids := inClause(f.IngredientIDs)
		q += " AND id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (" + in + "))"
		args = append(args, ids...)
	}
	q += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Recipe{}
	for rows.Next() {
		var rc model.Recipe
		if err := rows.Scan(&rc.ID, &rc.UserID, &rc.Title, &rc.TimeMinutes, &rc.Price, &rc.Link, &rc.CreatedAt, &rc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	recipeIDs := make([]uint64, len(out))
	for i := range out {
		recipeIDs[i] = out[i].ID
	}
	tagIDs, err := r.linkedIDs(ctx, model.TagKind, recipeIDs)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := r.linkedIDs(ctx, model.IngredientKind, recipeIDs)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TagIDs = nonNil(tagIDs[out[i].ID])
		out[i].IngredientIDs = nonNil(ingredientIDs[out[i].ID])
	}
	return out, nil
}

// GetByIDAndOwner fetches a recipe with its tags and ingredients expanded,
// but only if it belongs to ownerID.  Otherwise ErrNotFound is returned.
func (r *RecipeRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.RecipeDetail, error) {
	var d model.RecipeDetail
	err := r.db.QueryRowContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE id = ? AND user_id = ?", id, ownerID).
		Scan(&d.ID, &d.UserID, &d.Title, &d.TimeMinutes, &d.Price, &d.Link, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.Tags, err = r.linkedAttributes(ctx, model.TagKind, id); err != nil {
		return nil, err
	}
	if d.Ingredients, err = r.linkedAttributes(ctx, model.IngredientKind, id); err != nil {
		return nil, err
	}
	d.TagIDs = attributeIDs(d.Tags)
	d.IngredientIDs = attributeIDs(d.Ingredients)
	return &d, nil
}

// Create inserts the recipe and its links in one transaction.
func (r *RecipeRepo) Create(ctx context.Context, rc *model.Recipe) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO recipes (user_id, title, time_minutes, price_cents, link) VALUES (?, ?, ?, ?, ?)",
			rc.UserID, rc.Title, rc.TimeMinutes, rc.Price, rc.Link)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rc.ID = uint64(id)
		if err := insertLinks(ctx, tx, model.TagKind, rc.ID, rc.TagIDs); err != nil {
			return err
		}
		return insertLinks(ctx, tx, model.IngredientKind, rc.ID, rc.IngredientIDs)
	})
}

// Update overwrites the scalar fields of rc and, when requested, replaces its
// tag and ingredient links.  The row is locked first so a recipe owned by
// someone else yields ErrNotFound without touching anything.
func (r *RecipeRepo) Update(ctx context.Context, rc *model.Recipe, replaceTags, replaceIngredients bool) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var id uint64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM recipes WHERE id = ? AND user_id = ? FOR UPDATE", rc.ID, rc.UserID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE recipes
			 SET title = ?, time_minutes = ?, price_cents = ?, link = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND user_id = ?`,
			rc.Title, rc.TimeMinutes, rc.Price, rc.Link, rc.ID, rc.UserID); err != nil {
			return err
		}
		if replaceTags {
			if err := replaceLinks(ctx, tx, model.TagKind, rc.ID, rc.TagIDs); err != nil {
				return err
			}
		}
		if replaceIngredients {
			if err := replaceLinks(ctx, tx, model.IngredientKind, rc.ID, rc.IngredientIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteByIDAndOwner removes a recipe owned by ownerID.  Links are removed by
// the ON DELETE CASCADE foreign keys.
func (r *RecipeRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RecipeRepo) linkedIDs(ctx context.Context, kind model.AttributeKind, recipeIDs []uint64) (map[uint64][]uint64, error) {
	in, args := inClause(recipeIDs)
	rows, err := r.db.QueryContext(ctx,
		"SELECT recipe_id, "+kind.JoinColumn+" FROM "+kind.JoinTable+
			" WHERE recipe_id IN ("+in+") ORDER BY recipe_id, "+kind.JoinColumn, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64][]uint64)
	for rows.Next() {
		var recipeID, attrID uint64
		if err := rows.Scan(&recipeID, &attrID); err != nil {
			return nil, err
		}
		out[recipeID] = append(out[recipeID], attrID)
	}
	return out, rows.Err()
}

func (r *RecipeRepo) linkedAttributes(ctx context.Context, kind model.AttributeKind, recipeID uint64) ([]model.Attribute, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT a.id, a.user_id, a.name FROM "+kind.Table+" a JOIN "+kind.JoinTable+" j ON j."+kind.JoinColumn+
			" = a.id WHERE j.recipe_id = ? ORDER BY a.id", recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Attribute{}
	for rows.Next() {
		var a model.Attribute
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func insertLinks(ctx context.Context, tx *sql.Tx, kind model.AttributeKind, recipeID uint64, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := "INSERT INTO " + kind.JoinTable + " (recipe_id, " + kind.JoinColumn + ") VALUES "
	args := make([]any, 0, 2*len(ids))
	for i, id := range ids {
		if i > 0 {
			q += ", "
		}
		q += "(?, ?)"
		args = append(args, recipeID, id)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

func replaceLinks(ctx context.Context, tx *sql.Tx, kind model.AttributeKind, recipeID uint64, ids []uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+kind.JoinTable+" WHERE recipe_id = ?", recipeID); err != nil {
		return err
	}
	return insertLinks(ctx, tx, kind, recipeID, ids)
}

func attributeIDs(as []model.Attribute) []uint64 {
	out := make([]uint64, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}

func nonNil(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return ids
}
