package items

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinScore     = 0
	MaxScore     = 5
	MaxKeyPoints = 5
)

// ValidationError describes one field that failed a shape or range check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ErrorKind classifies the failure for status mapping.
func (e *ValidationError) ErrorKind() string { return "validation" }

// Validate checks a parsed screening result before it is persisted. All
// failures are reported together.
func Validate(result ScreeningResult) error {
	var errs []error
	scores := []struct {
		field string
		value int
	}{
		{"animal_score", result.AnimalScore},
		{"policy_score", result.PolicyScore},
		{"urgency", result.Urgency},
		{"japan_relevance", result.JapanRelevance},
	}
	for _, s := range scores {
		if s.value < MinScore || s.value > MaxScore {
			errs = append(errs, &ValidationError{
				Field:  s.field,
				Reason: fmt.Sprintf("%d outside %d..%d", s.value, MinScore, MaxScore),
			})
		}
	}
	if _, ok := ParseRisk(string(result.MisinformationRisk)); !ok {
		errs = append(errs, &ValidationError{
			Field:  "misinformation_risk",
			Reason: fmt.Sprintf("%q is not one of low, med, high", result.MisinformationRisk),
		})
	}
	if strings.TrimSpace(result.Summary30s) == "" {
		errs = append(errs, &ValidationError{Field: "summary_30s", Reason: "empty"})
	}
	if len(result.KeyPoints) > MaxKeyPoints {
		errs = append(errs, &ValidationError{
			Field:  "key_points",
			Reason: fmt.Sprintf("%d entries, at most %d allowed", len(result.KeyPoints), MaxKeyPoints),
		})
	}
	for i, point := range result.KeyPoints {
		if strings.TrimSpace(point) == "" {
			errs = append(errs, &ValidationError{Field: fmt.Sprintf("key_points[%d]", i), Reason: "empty"})
		}
	}
	return errors.Join(errs...)
}

// Normalize tidies a parsed result in place: risk is lower-cased and
// blank tags are dropped.
func Normalize(result *ScreeningResult) {
	if risk, ok := ParseRisk(string(result.MisinformationRisk)); ok {
		result.MisinformationRisk = risk
	}
	tags := result.Tags[:0]
	for _, tag := range result.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	result.Tags = tags
	result.Summary30s = strings.TrimSpace(result.Summary30s)
}
