package agents

// Output contracts enforced on model responses. Validation failures are
// retried by the gateway; the director additionally tolerates a well-formed
// response with zero recommendations by falling back locally.

const actionListSchema = `{
  "type": "object",
  "required": ["actions"],
  "properties": {
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["description", "scope", "expected_impact", "reasoning", "impact"],
        "properties": {
          "description": {"type": "string", "minLength": 1},
          "scope": {"type": "string", "minLength": 1},
          "expected_impact": {"type": "string"},
          "reasoning": {"type": "string"},
          "impact": {"type": "string", "enum": ["high", "medium", "low"]}
        }
      }
    }
  }
}`

const synthesisSchema = `{
  "type": "object",
  "required": ["summary", "recommendations"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "recommendations": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "description", "category", "impact", "effort", "action_items"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "category": {"type": "string", "enum": ["paid", "organic", "hybrid"]},
          "impact": {"type": "string", "enum": ["high", "medium", "low"]},
          "effort": {"type": "string", "enum": ["high", "medium", "low"]},
          "action_items": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`
