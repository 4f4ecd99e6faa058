package items

// Thresholds holds the promotion and flagging limits.
type Thresholds struct {
	PromotionScore int
	HighRisk       Risk
}

// DefaultThresholds matches the shipped configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{PromotionScore: 7, HighRisk: RiskHigh}
}

// Decision is the outcome of applying thresholds to a screening result.
type Decision struct {
	CombinedScore int
	Promote       bool
	Flag          bool
}

// Status is the intake status a screened item moves to.
func (d Decision) Status() Status {
	if d.Promote {
		return StatusPromoted
	}
	return StatusIgnored
}

// Backlog reports whether the item earns a topic backlog row.
func (d Decision) Backlog() bool {
	return d.Promote || d.Flag
}

// TopicStatus is the backlog status for an item that earns a row.
func (d Decision) TopicStatus() TopicStatus {
	if d.Flag {
		return TopicReview
	}
	return TopicOpen
}

// Promotable reports whether the combined score reaches the threshold.
func Promotable(result ScreeningResult, th Thresholds) bool {
	return result.CombinedScore() >= th.PromotionScore
}

// Evaluate applies th to result. Flagging is independent of the score.
func Evaluate(result ScreeningResult, th Thresholds) Decision {
	return Decision{
		CombinedScore: result.CombinedScore(),
		Promote:       Promotable(result, th),
		Flag:          result.MisinformationRisk.AtLeast(th.HighRisk),
	}
}
