package items

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an intake item.
type Status string

const (
	StatusNew      Status = "new"
	StatusScreened Status = "screened"
	StatusPromoted Status = "promoted"
	StatusIgnored  Status = "ignored"
	StatusError    Status = "error"
)

var allStatuses = []Status{
	StatusNew,
	StatusScreened,
	StatusPromoted,
	StatusIgnored,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	if _, ok := statusSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// Risk is the misinformation-risk category assigned during screening.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "med"
	RiskHigh   Risk = "high"
)

var riskRank = map[Risk]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}

// ParseRisk converts a string into a known Risk.
func ParseRisk(value string) (Risk, bool) {
	normalized := Risk(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := riskRank[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// AtLeast reports whether r ranks at or above threshold. Unknown values never do.
func (r Risk) AtLeast(threshold Risk) bool {
	rank, ok := riskRank[r]
	if !ok {
		return false
	}
	limit, ok := riskRank[threshold]
	if !ok {
		return false
	}
	return rank >= limit
}

// IntakeItem is a candidate piece of content waiting for screening.
type IntakeItem struct {
	ItemID      string
	FetchedAt   time.Time
	SourceID    string
	Title       string
	URL         string
	PublishedAt time.Time
	Snippet     string
	DedupeKey   string
	Status      Status
	Notes       string
}

// ScreeningResult is the model's assessment of one intake item. The JSON
// tags describe the shape the model is asked to produce.
type ScreeningResult struct {
	ItemID             string   `json:"item_id,omitempty"`
	AnimalScore        int      `json:"animal_score"`
	PolicyScore        int      `json:"policy_score"`
	Urgency            int      `json:"urgency"`
	JapanRelevance     int      `json:"japan_relevance"`
	MisinformationRisk Risk     `json:"misinformation_risk"`
	Tags               []string `json:"tags"`
	Summary30s         string   `json:"summary_30s"`
	KeyPoints          []string `json:"key_points"`
	ModelMeta          string   `json:"model_meta,omitempty"`
}

// CombinedScore is the sum the promotion rule compares against its threshold.
func (r ScreeningResult) CombinedScore() int {
	return r.AnimalScore + r.PolicyScore
}

// TopicStatus tracks a backlog entry.
type TopicStatus string

const (
	// TopicOpen entries were promoted on score.
	TopicOpen TopicStatus = "open"
	// TopicReview entries were flagged for misinformation risk and need a human look.
	TopicReview TopicStatus = "review"
)

// TopicEntry is a promoted or flagged item queued for content production.
type TopicEntry struct {
	TopicID            string
	ItemID             string
	Title              string
	URL                string
	CombinedScore      int
	MisinformationRisk Risk
	Flagged            bool
	Tags               []string
	CreatedAt          time.Time
	Status             TopicStatus
}

// Cycle names a pipeline run kind.
type Cycle string

const (
	CycleIntake    Cycle = "intake"
	CycleScreening Cycle = "screening"
)

// RunLog summarizes one cycle.
type RunLog struct {
	RunID      string
	Cycle      Cycle
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Promoted   int
	Ignored    int
	Failed     int
	Notes      string
}

// Source is a registered content source.
type Source struct {
	SourceID string `yaml:"source_id" json:"source_id"`
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	Kind     string `yaml:"kind" json:"kind"`
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Notes    string `yaml:"notes,omitempty" json:"notes,omitempty"`
}
