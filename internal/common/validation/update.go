package validation

// UpdateSchema describes the subset of a Telegram update the webhook accepts.
// An update must carry one of message, edited_message or callback_query.
const UpdateSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["update_id"],
	"properties": {
		"update_id": {"type": "integer"},
		"message": {"$ref": "#/definitions/message"},
		"edited_message": {"$ref": "#/definitions/message"},
		"callback_query": {
			"type": "object",
			"required": ["id", "from"],
			"properties": {
				"id": {"type": "string"},
				"from": {"$ref": "#/definitions/user"},
				"data": {"type": "string"},
				"message": {"$ref": "#/definitions/message"}
			}
		}
	},
	"anyOf": [
		{"required": ["message"]},
		{"required": ["edited_message"]},
		{"required": ["callback_query"]}
	],
	"definitions": {
		"user": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": "integer"},
				"username": {"type": "string"}
			}
		},
		"chat": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": "integer"},
				"type": {"type": "string"}
			}
		},
		"message": {
			"type": "object",
			"required": ["message_id", "date", "chat"],
			"properties": {
				"message_id": {"type": "integer"},
				"date": {"type": "integer"},
				"text": {"type": "string"},
				"chat": {"$ref": "#/definitions/chat"},
				"from": {"$ref": "#/definitions/user"},
				"reply_to_message": {"type": "object"}
			}
		}
	}
}`

var updateSchema = MustCompile(UpdateSchema)

// ValidateUpdate validates a raw webhook body against UpdateSchema.
func ValidateUpdate(body []byte) *ValidationResult {
	return updateSchema.ValidateBytes(body)
}
