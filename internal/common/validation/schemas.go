package validation

// AssessmentSubmissionSchema is the structural contract shared by the HTTP
// adapter and the compute-assessment worker. Value ranges and question ids
// are checked against the catalog after decoding.
const AssessmentSubmissionSchema = `{
  "type": "object",
  "required": ["answers"],
  "properties": {
    "answers": {
      "type": "array",
      "maxItems": 500,
      "items": {
        "type": "object",
        "required": ["questionId", "value"],
        "properties": {
          "questionId": {"type": "string", "minLength": 1},
          "value": {"type": "number"},
          "rationale": {"type": "string"}
        }
      }
    },
    "org": {
      "type": "object",
      "properties": {
        "industry": {"type": "string"},
        "companySize": {"type": "string"},
        "region": {"type": "string"}
      }
    },
    "catalogVersion": {"type": "string"}
  }
}`

var AssessmentSubmission = MustCompileSchema(AssessmentSubmissionSchema)
