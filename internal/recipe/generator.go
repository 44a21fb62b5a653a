package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// systemPrompt pins the model to the recipe JSON contract.
const systemPrompt = "You generate cooking recipes. Respond with a single JSON object and " +
	"nothing else, using exactly these fields: title (string), description (string), " +
	"servings (integer), prepMinutes (integer), cookMinutes (integer), ingredients " +
	"(array of {name, quantity} objects), steps (array of strings), tags (array of " +
	"strings). Every recipe needs at least one ingredient and one step."

// ErrMalformedOutput reports model output that is not a valid recipe.
var ErrMalformedOutput = errors.New("model returned an invalid recipe")

// JSONCompleter is the single-shot completion surface of llm.Client.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, system, userText string) ([]byte, error)
}

// Generator turns prompts into validated recipes.
type Generator struct {
	completer JSONCompleter
	validate  *validator.Validate
	log       *zerolog.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(completer JSONCompleter, logger *zerolog.Logger) *Generator {
	return &Generator{
		completer: completer,
		validate:  validator.New(),
		log:       logger,
	}
}

// Generate produces one validated recipe for prompt. Upstream failures
// pass through unchanged; output that does not decode or validate wraps
// ErrMalformedOutput. Clients never see an unvalidated recipe.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Recipe, error) {
	raw, err := g.completer.CompleteJSON(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("complete recipe: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal(extractObject(raw), &rec); err != nil {
		g.log.Warn().Err(err).Msg("recipe output did not decode")
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := g.validate.Struct(&rec); err != nil {
		g.log.Warn().Err(err).Msg("recipe output failed validation")
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return &rec, nil
}

// extractObject trims whatever surrounds the outermost JSON object. Models
// occasionally wrap the payload in markdown fences despite JSON mode.
func extractObject(raw []byte) []byte {
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return raw
	}
	return raw[start : end+1]
}
