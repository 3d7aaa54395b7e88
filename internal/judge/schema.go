package judge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const verdictSchemaURL = "schema://verdict.json"

const verdictSchemaJSON = `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "integer", "enum": [0, 1]},
    "probability": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var (
	verdictSchemaOnce sync.Once
	verdictSchema     *jsonschema.Schema
	verdictSchemaErr  error
)

func compiledVerdictSchema() (*jsonschema.Schema, error) {
	verdictSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(verdictSchemaJSON)))
		if err != nil {
			verdictSchemaErr = fmt.Errorf("parse verdict schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(verdictSchemaURL, doc); err != nil {
			verdictSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		verdictSchema, verdictSchemaErr = c.Compile(verdictSchemaURL)
	})
	return verdictSchema, verdictSchemaErr
}

// decodeVerdict validates raw against the verdict schema and decodes it.
func decodeVerdict(raw []byte) (Verdict, error) {
	sch, err := compiledVerdictSchema()
	if err != nil {
		return Verdict{}, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return Verdict{}, &InvalidResponseError{Body: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := sch.Validate(doc); err != nil {
		return Verdict{}, &InvalidResponseError{Body: raw, Err: err}
	}
	var v Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return Verdict{}, &InvalidResponseError{Body: raw, Err: err}
	}
	return v, nil
}
