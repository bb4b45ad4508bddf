package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/circbuf/errors"
)

//go:embed schema.json
var layerSchemaJSON []byte

var layerSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(layerSchemaJSON))
})

// validateLayer checks a decoded layer for unknown keys and mistyped values.
// Range and cross-field rules are left to Config.Validate.
func validateLayer(raw map[string]any) error {
	if raw == nil {
		return nil
	}

	schema, err := layerSchema()
	if err != nil {
		return errors.WrapFatal(err, "Loader", "validateLayer", "compile layer schema")
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; "))
}
