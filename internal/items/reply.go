package items

import (
	"errors"
)

// ScreeningReply is the wire shape of a screening response. Every field is
// a pointer so an omitted or null key is distinguishable from a zero value.
type ScreeningReply struct {
	AnimalScore        *int      `json:"animal_score"`
	PolicyScore        *int      `json:"policy_score"`
	Urgency            *int      `json:"urgency"`
	JapanRelevance     *int      `json:"japan_relevance"`
	MisinformationRisk *Risk     `json:"misinformation_risk"`
	Tags               *[]string `json:"tags"`
	Summary30s         *string   `json:"summary_30s"`
	KeyPoints          *[]string `json:"key_points"`
}

// Result converts the reply, reporting every absent field as a
// ValidationError with reason "missing". No partial result is returned.
func (r ScreeningReply) Result() (ScreeningResult, error) {
	var errs []error
	missing := func(field string, present bool) {
		if !present {
			errs = append(errs, &ValidationError{Field: field, Reason: "missing"})
		}
	}
	missing("animal_score", r.AnimalScore != nil)
	missing("policy_score", r.PolicyScore != nil)
	missing("urgency", r.Urgency != nil)
	missing("japan_relevance", r.JapanRelevance != nil)
	missing("misinformation_risk", r.MisinformationRisk != nil)
	missing("tags", r.Tags != nil)
	missing("summary_30s", r.Summary30s != nil)
	missing("key_points", r.KeyPoints != nil)
	if len(errs) > 0 {
		return ScreeningResult{}, errors.Join(errs...)
	}
	return ScreeningResult{
		AnimalScore:        *r.AnimalScore,
		PolicyScore:        *r.PolicyScore,
		Urgency:            *r.Urgency,
		JapanRelevance:     *r.JapanRelevance,
		MisinformationRisk: *r.MisinformationRisk,
		Tags:               *r.Tags,
		Summary30s:         *r.Summary30s,
		KeyPoints:          *r.KeyPoints,
	}, nil
}
