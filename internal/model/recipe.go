package model

import "time"

// Recipe is a row of `recipes` together with the ids of its tags and
// ingredients.  Tags and ingredients always belong to the recipe's owner.
type Recipe struct {
	ID            uint64
	UserID        uint64
	Title         string
	TimeMinutes   int
	Price         Price
	Link          string
	TagIDs        []uint64
	IngredientIDs []uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecipeDetail is a recipe with its tags and ingredients expanded.
type RecipeDetail struct {
	Recipe
	Tags        []Attribute
	Ingredients []Attribute
}

func (r Recipe) String() string { return r.Title }
