package report

// SchemaID and BatchSchemaID are the $id values of the two schemas.
// BatchSchema refers to Schema through SchemaID.
const (
	SchemaID      = "https://github.com/unbound-force/lfcmap/match-report.schema.json"
	BatchSchemaID = "https://github.com/unbound-force/lfcmap/batch-report.schema.json"
)

// Schema is the JSON Schema (Draft 2020-12) for the output of
// lfcmap match --format=json. It documents the structure written by
// WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/lfcmap/match-report.schema.json",
  "title": "lfcmap Match Report",
  "description": "Output schema for lfcmap match --format=json",
  "type": "object",
  "required": ["version", "mapping", "unmatched", "quality"],
  "properties": {
    "version": {
      "type": "string",
      "description": "lfcmap version that produced the report"
    },
    "source": { "$ref": "#/$defs/TableInfo" },
    "target": { "$ref": "#/$defs/TableInfo" },
    "direction": { "$ref": "#/$defs/Direction" },
    "mapping": { "$ref": "#/$defs/Mapping" },
    "unmatched": {
      "type": "array",
      "description": "Source identifiers without a mapped target, in source order",
      "items": { "type": "string" }
    },
    "quality": { "$ref": "#/$defs/Quality" }
  },
  "$defs": {
    "TableInfo": {
      "type": "object",
      "required": ["path", "id_column", "score_column", "rows", "loaded", "dropped_empty_id", "dropped_bad_score"],
      "properties": {
        "path": { "type": "string" },
        "id_column": { "type": "string" },
        "score_column": { "type": "string" },
        "rows": { "type": "integer", "minimum": 0 },
        "loaded": { "type": "integer", "minimum": 0 },
        "dropped_empty_id": { "type": "integer", "minimum": 0 },
        "dropped_bad_score": { "type": "integer", "minimum": 0 }
      }
    },
    "Trial": {
      "type": "object",
      "required": ["r", "defined", "mapped"],
      "properties": {
        "r": { "type": "number" },
        "defined": { "type": "boolean" },
        "mapped": { "type": "integer", "minimum": 0 }
      }
    },
    "Direction": {
      "type": "object",
      "required": ["negate", "as_is", "negated"],
      "properties": {
        "negate": {
          "type": "boolean",
          "description": "Whether the target scores were negated before matching"
        },
        "as_is": { "$ref": "#/$defs/Trial" },
        "negated": { "$ref": "#/$defs/Trial" }
      }
    },
    "Entry": {
      "type": "object",
      "required": ["source_id", "source_score", "target_id", "target_score", "distance"],
      "properties": {
        "source_id": { "type": "string", "minLength": 1 },
        "source_score": { "type": "number" },
        "target_id": { "type": "string", "minLength": 1 },
        "target_score": { "type": "number" },
        "distance": { "type": "number", "minimum": 0 }
      }
    },
    "Mapping": {
      "type": "object",
      "required": ["mode", "entries"],
      "properties": {
        "mode": { "enum": ["nearest", "optimal"] },
        "tolerance": { "type": "number", "minimum": 0 },
        "entries": {
          "type": "array",
          "description": "Mapped pairs sorted by ascending distance",
          "items": { "$ref": "#/$defs/Entry" }
        }
      }
    },
    "Correlation": {
      "type": "object",
      "required": ["r", "r_squared", "p_value"],
      "properties": {
        "r": { "type": "number", "minimum": -1, "maximum": 1 },
        "r_squared": { "type": "number", "minimum": 0, "maximum": 1 },
        "p_value": { "type": "number", "minimum": 0, "maximum": 1 }
      }
    },
    "Summary": {
      "type": "object",
      "required": ["mean", "median", "std", "min", "max"],
      "properties": {
        "mean": { "type": "number" },
        "median": { "type": "number" },
        "std": { "type": "number", "minimum": 0 },
        "min": { "type": "number" },
        "max": { "type": "number" }
      }
    },
    "Quality": {
      "type": "object",
      "required": ["mapped", "direction_matches", "direction_agreement_pct", "distance", "insufficient_data", "grade"],
      "properties": {
        "mapped": { "type": "integer", "minimum": 1 },
        "pearson": { "$ref": "#/$defs/Correlation" },
        "spearman": { "$ref": "#/$defs/Correlation" },
        "direction_matches": { "type": "integer", "minimum": 0 },
        "direction_agreement_pct": { "type": "number", "minimum": 0, "maximum": 100 },
        "distance": { "$ref": "#/$defs/Summary" },
        "agreement": {
          "type": "object",
          "description": "Bland-Altman statistics of source - target",
          "required": ["mean_diff", "std_diff", "lower_limit", "upper_limit"],
          "properties": {
            "mean_diff": { "type": "number" },
            "std_diff": { "type": "number", "minimum": 0 },
            "lower_limit": { "type": "number" },
            "upper_limit": { "type": "number" }
          }
        },
        "regression": {
          "type": "object",
          "required": ["slope", "intercept"],
          "properties": {
            "slope": { "type": "number" },
            "intercept": { "type": "number" }
          }
        },
        "insufficient_data": { "type": "boolean" },
        "warnings": {
          "type": "array",
          "items": { "type": "string" }
        },
        "grade": { "enum": ["excellent", "good", "acceptable", "poor"] }
      }
    }
  }
}`

// BatchSchema is the JSON Schema (Draft 2020-12) for the output of
// lfcmap batch --format=json.
const BatchSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/lfcmap/batch-report.schema.json",
  "title": "lfcmap Batch Report",
  "description": "Output schema for lfcmap batch --format=json",
  "type": "object",
  "required": ["version", "failed", "results"],
  "properties": {
    "version": { "type": "string" },
    "failed": {
      "type": "integer",
      "minimum": 0,
      "description": "Number of pairs that failed"
    },
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": { "type": "string" },
          "error": { "type": "string" },
          "report": { "$ref": "https://github.com/unbound-force/lfcmap/match-report.schema.json" }
        },
        "oneOf": [
          { "required": ["error"] },
          { "required": ["report"] }
        ]
      }
    }
  }
}`
