package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/recipe-app-api/internal/model"
)

// AttributeRepo serves one attribute collection (tags or ingredients).  The
// table names come from the kind, never from user input.
type AttributeRepo struct {
	db   *sql.DB
	kind model.AttributeKind
}

func NewAttributeRepo(db *sql.DB, kind model.AttributeKind) *AttributeRepo {
	return &AttributeRepo{db: db, kind: kind}
}

func NewTagRepo(db *sql.DB) *AttributeRepo { return NewAttributeRepo(db, model.TagKind) }

func NewIngredientRepo(db *sql.DB) *AttributeRepo { return NewAttributeRepo(db, model.IngredientKind) }

// Kind reports which collection the repository serves.
func (r *AttributeRepo) Kind() model.AttributeKind { return r.kind }

// ListByOwner returns the owner's attributes ordered by name descending.
// With assignedOnly set, only attributes used by at least one recipe are
// returned.
func (r *AttributeRepo) ListByOwner(ctx context.Context, ownerID uint64, assignedOnly bool) ([]model.Attribute, error) {
	q := "SELECT id, user_id, name FROM " + r.kind.Table + " WHERE user_id = ? ORDER BY name DESC, id DESC"
	if assignedOnly {
		q = "SELECT DISTINCT a.id, a.user_id, a.name FROM " + r.kind.Table + " a" +
			" JOIN " + r.kind.JoinTable + " j ON j." + r.kind.JoinColumn + " = a.id" +
			" WHERE a.user_id = ? ORDER BY a.name DESC, a.id DESC"
	}
	rows, err := r.db.QueryContext(ctx, q, ownerID)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a and fills its ID.
func (r *AttributeRepo) Create(ctx context.Context, a *model.Attribute) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO "+r.kind.Table+" (user_id, name) VALUES (?, ?)", a.UserID, a.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// CountOwned counts how many of ids belong to ownerID.  ids must be
// de-duplicated by the caller.
func (r *AttributeRepo) CountOwned(ctx context.Context, ownerID uint64, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids)
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+r.kind.Table+" WHERE user_id = ? AND id IN ("+in+")",
		append([]any{ownerID}, args...)...).Scan(&n)
	return n, err
}
