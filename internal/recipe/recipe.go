// Package recipe defines the structured recipe model and turns free-form
// prompts into validated recipes through the completion API.
package recipe

// Recipe is one generated recipe as served to clients and kept in the
// recipe box.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	Servings    int          `json:"servings" validate:"min=0"`
	PrepMinutes int          `json:"prepMinutes" validate:"min=0"`
	CookMinutes int          `json:"cookMinutes" validate:"min=0"`
	Ingredients []Ingredient `json:"ingredients" validate:"required,min=1,dive"`
	Steps       []string     `json:"steps" validate:"required,min=1,dive,required"`
	Tags        []string     `json:"tags,omitempty"`
}

// Ingredient is one recipe line item.
type Ingredient struct {
	Name     string `json:"name" validate:"required"`
	Quantity string `json:"quantity"`
}
