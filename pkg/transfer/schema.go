package transfer

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const schemaDialect = "https://json-schema.org/draft/2020-12/schema"

// ExportSchema returns the JSON Schema of an export payload: an array of
// ExportRow objects.
func ExportSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	row, err := schemaToMap(reflector.Reflect(&ExportRow{}))
	if err != nil {
		return nil, fmt.Errorf("failed to build export row schema: %w", err)
	}
	delete(row, "$schema")
	delete(row, "$id")

	doc := map[string]any{
		"$schema":     schemaDialect,
		"title":       "moodlog export",
		"description": "Mood entries as written by moodlog export and accepted by moodlog import.",
		"type":        "array",
		"items":       row,
	}
	return json.MarshalIndent(doc, "", "  ")
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
