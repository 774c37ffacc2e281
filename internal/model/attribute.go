package model

// AttributeKind identifies one of the per-user label collections that share
// the same shape (tags and ingredients).  Table is the backing table and
// JoinTable/JoinColumn describe how recipes reference it.
type AttributeKind struct {
	Name       string
	Table      string
	JoinTable  string
	JoinColumn string
}

var (
	TagKind = AttributeKind{
		Name:       "tag",
		Table:      "tags",
		JoinTable:  "recipe_tags",
		JoinColumn: "tag_id",
	}
	IngredientKind = AttributeKind{
		Name:       "ingredient",
		Table:      "ingredients",
		JoinTable:  "recipe_ingredients",
		JoinColumn: "ingredient_id",
	}
)

// Attribute is a tag or an ingredient owned by a single user.
type Attribute struct {
	ID     uint64 `json:"id"`
	UserID uint64 `json:"-"`
	Name   string `json:"name"`
}

func (a Attribute) String() string { return a.Name }
