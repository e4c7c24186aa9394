package credential

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	registry "github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

// externalURLBase is the public credential viewer. The path is derived from
// stable inputs only, so identical mint requests produce identical documents.
const externalURLBase = "https://credentials.veridity.app"

// BuildMetadata turns raw credential data, a template, and an issuer into the
// canonical metadata document. Output is deterministic for identical inputs:
// attributes follow the template's declared field order, values are formatted
// through a single code path, and the two issuer attributes come last.
//
// Every required field must be present and non-empty, otherwise the returned
// error names the first missing field in template order.
func BuildMetadata(template *registry.CredentialTemplate, fields map[string]any, issuer *registry.Issuer) (models.MetadataDocument, error) {
	for _, name := range template.Required {
		if isMissing(fields[name]) {
			return models.MetadataDocument{}, dErrors.Newf(dErrors.CodeValidation, "missing required field %q", name)
		}
	}

	attributes := make([]models.Attribute, 0, len(template.Schema)+2)
	for _, field := range template.Schema {
		raw, ok := fields[field.Name]
		if !ok || isMissing(raw) {
			continue
		}
		value, err := formatValue(raw, field.Type)
		if err != nil {
			return models.MetadataDocument{}, dErrors.Newf(dErrors.CodeValidation, "field %q: %v", field.Name, err)
		}
		label := field.Label
		if label == "" {
			label = field.Name
		}
		attributes = append(attributes, models.Attribute{
			TraitType:   label,
			Value:       value,
			DisplayType: string(field.Type),
		})
	}

	attributes = append(attributes,
		models.Attribute{TraitType: "Issuer", Value: issuer.Name},
		models.Attribute{TraitType: "Issuer Reputation", Value: formatNumber(issuer.Reputation), DisplayType: string(registry.FieldNumber)},
	)

	subject := ""
	if len(template.Required) > 0 {
		subject, _ = formatValue(fields[template.Required[0]], registry.FieldString)
	}
	name := template.Name
	if subject != "" {
		name = fmt.Sprintf("%s: %s", template.Name, subject)
	}

	return models.MetadataDocument{
		Name:        name,
		Description: fmt.Sprintf("%s credential issued by %s", template.Name, issuer.Name),
		ExternalURL: fmt.Sprintf("%s/%s/%s", externalURLBase, issuer.ID, template.ID),
		Category:    string(template.Category),
		Attributes:  attributes,
	}, nil
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

func formatValue(raw any, fieldType registry.FieldType) (string, error) {
	switch fieldType {
	case registry.FieldNumber:
		switch v := raw.(type) {
		case float64:
			return formatNumber(v), nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case string:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return "", fmt.Errorf("%q is not a number", v)
			}
			return v, nil
		default:
			return "", fmt.Errorf("unsupported number value %T", raw)
		}
	case registry.FieldDate:
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("date must be a string, got %T", raw)
		}
		if _, err := ParseDateValue(s); err != nil {
			return "", err
		}
		return s, nil
	default:
		return fmt.Sprintf("%v", raw), nil
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseDateValue accepts the two date encodings templates use: RFC 3339 and
// date-only.
func ParseDateValue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q is not a date (want RFC 3339 or YYYY-MM-DD)", s)
}
