package pipeline

import "github.com/santhosh-tekuri/jsonschema/v5"

// resultSchema is the output contract every assembled extraction result must
// satisfy before it leaves the pipeline. Violations are programming errors,
// not document errors.
const resultSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["status", "engine", "fields", "line_items", "confidence", "raw_text"],
	"properties": {
		"status": {"enum": ["success", "error"]},
		"engine": {"type": "string"},
		"message": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"raw_text": {"type": "string"},
		"fields": {
			"type": "object",
			"required": ["vendor_name", "invoice_number", "transaction_date", "amount", "tax_amount"],
			"properties": {
				"vendor_name": {"type": ["string", "null"]},
				"invoice_number": {"type": ["string", "null"]},
				"transaction_date": {"type": ["string", "null"]},
				"amount": {"type": ["number", "null"], "minimum": 0},
				"tax_amount": {"type": ["number", "null"], "minimum": 0}
			}
		},
		"line_items": {
			"type": ["array", "null"],
			"maxItems": 20,
			"items": {
				"type": "object",
				"required": ["description", "quantity", "unit_price", "total"],
				"properties": {
					"description": {"type": "string", "minLength": 1, "maxLength": 63},
					"quantity": {"type": "number", "exclusiveMinimum": 0},
					"unit_price": {"type": "number", "minimum": 0},
					"total": {"type": "number", "minimum": 0}
				}
			}
		}
	}
}`

func compileResultSchema() *jsonschema.Schema {
	return jsonschema.MustCompileString("extraction-result.json", resultSchema)
}
