package testcase

// Schema is the JSON Schema (Draft 2020-12) for test-case input
// files: a JSON array of test cases.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/tstpatch/test-cases.schema.json",
  "title": "tstpatch Test Cases",
  "description": "Input accepted by tstpatch patch",
  "type": "array",
  "items": { "$ref": "#/$defs/TestCase" },
  "$defs": {
    "ValueMapping": {
      "type": "object",
      "required": ["identifier", "value"],
      "properties": {
        "identifier": {
          "type": "string",
          "minLength": 1,
          "description": "Qualified identifier, e.g. unit.func.arg[0].field"
        },
        "value": {
          "type": "string",
          "description": "Opaque value token"
        }
      }
    },
    "TestCase": {
      "type": "object",
      "required": ["subprogram_name", "input_values"],
      "properties": {
        "test_name": { "type": "string" },
        "test_description": { "type": "string" },
        "unit_name": { "type": "string" },
        "subprogram_name": { "type": "string", "minLength": 1 },
        "input_values": {
          "type": "array",
          "items": { "$ref": "#/$defs/ValueMapping" }
        },
        "expected_values": {
          "type": "array",
          "items": { "$ref": "#/$defs/ValueMapping" }
        },
        "requirement_id": { "type": "string" }
      }
    }
  }
}`
