package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// DecodeFields turns raw model output into validated PortfolioFields:
// repair the JSON, sanitize it against the schema shape, validate, unmarshal.
// The returned bytes are the sanitized document that actually validated.
func DecodeFields(content []byte, logger *slog.Logger) (PortfolioFields, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repaired, err := RepairJSON(content)
	if err != nil {
		return PortfolioFields{}, content, err
	}

	cleaned, _, err := NormalizeAndSanitizeJSON(repaired, logger)
	if err != nil {
		return PortfolioFields{}, repaired, err
	}

	schema := BuildPortfolioJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		return PortfolioFields{}, cleaned, fmt.Errorf("schema validation failed: %w", err)
	}

	var out PortfolioFields
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return PortfolioFields{}, cleaned, fmt.Errorf("unmarshal fields: %w", err)
	}
	return out, cleaned, nil
}
