package server

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/leapstack-labs/prima/internal/recipe"
)

//go:embed schemas/recipe.json
var recipeSchemaJSON []byte

const recipeSchemaURL = "https://prima.dev/schemas/recipe.json"

// errInvalidBody wraps request bodies that fail shape validation.
var errInvalidBody = errors.New("invalid request body")

func compileRecipeSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(recipeSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal recipe schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(recipeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add recipe schema resource: %w", err)
	}
	schema, err := c.Compile(recipeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile recipe schema: %w", err)
	}
	return schema, nil
}

// decodeRecipe checks the envelope shape and decodes it. Operation tags and
// parameters are not checked here.
func (s *Server) decodeRecipe(body []byte) (*recipe.Recipe, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	if err := s.recipeSchema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, fmt.Errorf("%w: %s", errInvalidBody, strings.Join(violations(verr), "; "))
		}
		return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	r, err := recipe.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return r, nil
}

// violations flattens a validation error tree into located leaf messages.
func violations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		return []string{"/" + strings.Join(verr.InstanceLocation, "/") + ": " + verr.Error()}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, violations(cause)...)
	}
	return out
}
