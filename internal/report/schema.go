package report

// Schema is the JSON Schema (Draft 2020-12) for the tstpatch patch
// JSON output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/tstpatch/patch-report.schema.json",
  "title": "tstpatch Patch Report",
  "description": "Output schema for tstpatch patch --format=json",
  "type": "object",
  "required": ["version", "summary", "results"],
  "properties": {
    "version": {
      "type": "string",
      "description": "tstpatch version"
    },
    "summary": { "$ref": "#/$defs/Summary" },
    "results": {
      "type": "array",
      "items": { "$ref": "#/$defs/Result" }
    }
  },
  "$defs": {
    "Summary": {
      "type": "object",
      "required": ["cases", "changed", "unresolved", "skipped", "insertions"],
      "properties": {
        "cases": { "type": "integer", "minimum": 0 },
        "changed": { "type": "integer", "minimum": 0 },
        "unresolved": { "type": "integer", "minimum": 0 },
        "skipped": { "type": "integer", "minimum": 0 },
        "insertions": { "type": "integer", "minimum": 0 }
      }
    },
    "Result": {
      "type": "object",
      "required": ["original", "patched", "resolved", "insertions"],
      "properties": {
        "original": { "$ref": "#/$defs/TestCase" },
        "patched": { "$ref": "#/$defs/TestCase" },
        "resolved": {
          "type": "boolean",
          "description": "False when the subprogram had no type information"
        },
        "skipped": {
          "type": "boolean",
          "description": "True when configuration excluded the subprogram"
        },
        "insertions": {
          "oneOf": [
            { "type": "array", "items": { "$ref": "#/$defs/Insertion" } },
            { "type": "null" }
          ]
        }
      }
    },
    "Insertion": {
      "type": "object",
      "required": ["mapping", "position", "reason"],
      "properties": {
        "mapping": { "$ref": "#/$defs/ValueMapping" },
        "position": {
          "type": "integer",
          "minimum": 0,
          "description": "Index in the input list at the time of insertion"
        },
        "reason": {
          "type": "string",
          "enum": ["param", "global", "used", "constructor"]
        },
        "class": {
          "type": "string",
          "description": "Class selected for constructor insertions"
        }
      }
    },
    "ValueMapping": {
      "type": "object",
      "required": ["identifier", "value"],
      "properties": {
        "identifier": { "type": "string", "minLength": 1 },
        "value": { "type": "string" }
      }
    },
    "TestCase": {
      "type": "object",
      "required": ["subprogram_name", "input_values"],
      "properties": {
        "test_name": { "type": "string" },
        "test_description": { "type": "string" },
        "unit_name": { "type": "string" },
        "subprogram_name": { "type": "string" },
        "input_values": {
          "oneOf": [
            { "type": "array", "items": { "$ref": "#/$defs/ValueMapping" } },
            { "type": "null" }
          ]
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
