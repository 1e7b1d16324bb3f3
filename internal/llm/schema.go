package llm

// Field keys the prompts ask for. The Korean keys mirror the certificate labels.
const (
	KeyCompanyName        = "상호명"
	KeyAddress            = "사업자주소"
	KeyRegistrationNumber = "사업자등록번호"
	KeyRepresentativeName = "대표자명"
	KeyPhoneNumber        = "phoneNumber"
	KeyOpenTime           = "openTime"
)

// BuildExtractionJSONSchema describes the vision reply. Every field is optional:
// a reply missing fields still counts as an extraction.
func BuildExtractionJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			KeyCompanyName:        looseString(),
			KeyAddress:            looseString(),
			KeyRegistrationNumber: looseString(),
			KeyRepresentativeName: looseString(),
		},
	}
}

// BuildContactJSONSchema describes the phone/opening hours reply.
func BuildContactJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			KeyPhoneNumber: looseString(),
			KeyOpenTime:    looseString(),
		},
	}
}

// BuildReviewJSONSchema describes a single-record review reply.
func BuildReviewJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"correctedData"},
		"properties": map[string]any{
			"needsCorrection": map[string]any{"type": "boolean"},
			"correctedData":   map[string]any{"type": "object"},
			"corrections":     correctionsProp(),
		},
	}
}

// BuildBatchReviewJSONSchema describes a batch review reply.
func BuildBatchReviewJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"correctedData"},
		"properties": map[string]any{
			"correctedData": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
			"corrections": correctionsProp(),
		},
	}
}

func correctionsProp() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"index":     map[string]any{"type": "integer", "minimum": 0},
				"field":     looseString(),
				"original":  looseString(),
				"corrected": looseString(),
				"reason":    looseString(),
			},
		},
	}
}

func looseString() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
}
