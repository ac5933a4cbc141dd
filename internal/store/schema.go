package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"todo-planner/internal/model"
)

const todosSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["text"],
    "properties": {
      "id": {"type": "string"},
      "text": {"type": "string"},
      "completed": {"type": "boolean"},
      "dueDate": {"type": ["string", "null"]},
      "category": {"type": ["string", "null"]}
    }
  }
}`

const categoriesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"type": "string"}
}`

var (
	todosValidator      = jsonschema.MustCompileString("todos.schema.json", todosSchema)
	categoriesValidator = jsonschema.MustCompileString("categories.schema.json", categoriesSchema)
)

// validateDocument decodes raw and checks it against schema.
func validateDocument(schema *jsonschema.Schema, raw string) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema: %s", schemaMessages(err))
	}
	return nil
}

func schemaMessages(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var msgs []string
	collectSchemaMessages(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collectSchemaMessages(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaMessages(cause, msgs)
	}
}

func decodeTasks(raw string) ([]model.Task, error) {
	if err := validateDocument(todosValidator, raw); err != nil {
		return nil, err
	}
	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return tasks, nil
}

func decodeCategories(raw string) ([]string, error) {
	if err := validateDocument(categoriesValidator, raw); err != nil {
		return nil, err
	}
	var categories []string
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return categories, nil
}
