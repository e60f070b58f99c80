package progress

import "github.com/xeipuuv/gojsonschema"

// frameSchemaJSON describes the payload of a single feed event. Nullable
// numeric fields mirror the orchestrator, which emits null before the first
// measurement is available.
const frameSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["stage"],
  "properties": {
    "stage": {"type": "string"},
    "progress": {"type": ["number", "null"], "minimum": 0, "maximum": 1},
    "elapsed_s": {"type": ["number", "null"], "minimum": 0},
    "eta_seconds": {"type": ["number", "null"], "minimum": 0},
    "tokens": {"type": ["integer", "null"], "minimum": 0},
    "message": {"type": ["string", "null"]},
    "indicators": {"$ref": "#/definitions/indicators"},
    "visual_indicators": {"$ref": "#/definitions/indicators"},
    "session_id": {"type": ["integer", "null"]},
    "metadata": {"type": ["object", "null"]}
  },
  "definitions": {
    "indicators": {
      "type": ["object", "null"],
      "properties": {
        "thinking": {"type": "boolean"},
        "coding": {"type": "boolean"}
      }
    }
  }
}`

var frameSchema = mustCompile(frameSchemaJSON)

func mustCompile(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("progress: compile frame schema: " + err.Error())
	}
	return schema
}
