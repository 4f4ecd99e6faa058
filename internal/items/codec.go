package items

import (
	"fmt"
	"strings"
	"time"

	"contentsbuilder/internal/records"
)

// TimeLayout is the cell format for timestamps.
const TimeLayout = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func parseTime(rec records.Record, key string) (time.Time, error) {
	raw := strings.TrimSpace(rec.String(key))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// IntakeCodec maps IntakeItem rows.
type IntakeCodec struct{}

func (IntakeCodec) Encode(item IntakeItem) records.Record {
	return records.Of(
		"item_id", item.ItemID,
		"fetched_at", formatTime(item.FetchedAt),
		"source_id", item.SourceID,
		"title", item.Title,
		"url", item.URL,
		"published_at", formatTime(item.PublishedAt),
		"snippet", item.Snippet,
		"dedupe_key", item.DedupeKey,
		"status", string(item.Status),
		"notes", item.Notes,
	)
}

func (IntakeCodec) Decode(rec records.Record) (IntakeItem, error) {
	item := IntakeItem{
		ItemID:    rec.String("item_id"),
		SourceID:  rec.String("source_id"),
		Title:     rec.String("title"),
		URL:       rec.String("url"),
		Snippet:   rec.String("snippet"),
		DedupeKey: rec.String("dedupe_key"),
		Notes:     rec.String("notes"),
	}
	var err error
	if item.FetchedAt, err = parseTime(rec, "fetched_at"); err != nil {
		return IntakeItem{}, fmt.Errorf("intake item %s: %w", item.ItemID, err)
	}
	if item.PublishedAt, err = parseTime(rec, "published_at"); err != nil {
		return IntakeItem{}, fmt.Errorf("intake item %s: %w", item.ItemID, err)
	}
	status, ok := ParseStatus(rec.String("status"))
	if !ok {
		return IntakeItem{}, fmt.Errorf("intake item %s: unknown status %q", item.ItemID, rec.String("status"))
	}
	item.Status = status
	return item, nil
}

// StatusUpdate is the partial record that moves an item to status with notes.
func StatusUpdate(status Status, notes string) records.Record {
	return records.Of("status", string(status), "notes", notes)
}

// ScreeningCodec maps ScreeningResult rows.
type ScreeningCodec struct{}

func (ScreeningCodec) Encode(r ScreeningResult) records.Record {
	return records.Of(
		"item_id", r.ItemID,
		"animal_score", r.AnimalScore,
		"policy_score", r.PolicyScore,
		"urgency", r.Urgency,
		"japan_relevance", r.JapanRelevance,
		"misinformation_risk", string(r.MisinformationRisk),
		"tags", nonNil(r.Tags),
		"summary_30s", r.Summary30s,
		"key_points", nonNil(r.KeyPoints),
		"model_meta", r.ModelMeta,
	)
}

func (ScreeningCodec) Decode(rec records.Record) (ScreeningResult, error) {
	out := ScreeningResult{
		ItemID:     rec.String("item_id"),
		Summary30s: rec.String("summary_30s"),
		ModelMeta:  rec.String("model_meta"),
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"animal_score", &out.AnimalScore},
		{"policy_score", &out.PolicyScore},
		{"urgency", &out.Urgency},
		{"japan_relevance", &out.JapanRelevance},
	}
	for _, field := range ints {
		v, err := rec.Int(field.key)
		if err != nil {
			return ScreeningResult{}, fmt.Errorf("screening %s: %w", out.ItemID, err)
		}
		*field.dst = v
	}
	if raw := rec.String("misinformation_risk"); raw != "" {
		risk, ok := ParseRisk(raw)
		if !ok {
			return ScreeningResult{}, fmt.Errorf("screening %s: unknown risk %q", out.ItemID, raw)
		}
		out.MisinformationRisk = risk
	}
	var err error
	if out.Tags, err = rec.Strings("tags"); err != nil {
		return ScreeningResult{}, fmt.Errorf("screening %s: %w", out.ItemID, err)
	}
	if out.KeyPoints, err = rec.Strings("key_points"); err != nil {
		return ScreeningResult{}, fmt.Errorf("screening %s: %w", out.ItemID, err)
	}
	return out, nil
}

// TopicCodec maps TopicEntry rows.
type TopicCodec struct{}

func (TopicCodec) Encode(t TopicEntry) records.Record {
	return records.Of(
		"topic_id", t.TopicID,
		"item_id", t.ItemID,
		"title", t.Title,
		"url", t.URL,
		"combined_score", t.CombinedScore,
		"misinformation_risk", string(t.MisinformationRisk),
		"flagged", t.Flagged,
		"tags", nonNil(t.Tags),
		"created_at", formatTime(t.CreatedAt),
		"status", string(t.Status),
	)
}

func (TopicCodec) Decode(rec records.Record) (TopicEntry, error) {
	out := TopicEntry{
		TopicID:            rec.String("topic_id"),
		ItemID:             rec.String("item_id"),
		Title:              rec.String("title"),
		URL:                rec.String("url"),
		MisinformationRisk: Risk(lower(rec.String("misinformation_risk"))),
		Status:             TopicStatus(lower(rec.String("status"))),
	}
	var err error
	if out.CombinedScore, err = rec.Int("combined_score"); err != nil {
		return TopicEntry{}, fmt.Errorf("topic %s: %w", out.TopicID, err)
	}
	if out.Flagged, err = rec.Bool("flagged"); err != nil {
		return TopicEntry{}, fmt.Errorf("topic %s: %w", out.TopicID, err)
	}
	if out.Tags, err = rec.Strings("tags"); err != nil {
		return TopicEntry{}, fmt.Errorf("topic %s: %w", out.TopicID, err)
	}
	if out.CreatedAt, err = parseTime(rec, "created_at"); err != nil {
		return TopicEntry{}, fmt.Errorf("topic %s: %w", out.TopicID, err)
	}
	return out, nil
}

// RunLogCodec maps RunLog rows.
type RunLogCodec struct{}

func (RunLogCodec) Encode(r RunLog) records.Record {
	return records.Of(
		"run_id", r.RunID,
		"cycle", string(r.Cycle),
		"started_at", formatTime(r.StartedAt),
		"finished_at", formatTime(r.FinishedAt),
		"processed", r.Processed,
		"promoted", r.Promoted,
		"ignored", r.Ignored,
		"failed", r.Failed,
		"notes", r.Notes,
	)
}

func (RunLogCodec) Decode(rec records.Record) (RunLog, error) {
	out := RunLog{
		RunID: rec.String("run_id"),
		Cycle: Cycle(lower(rec.String("cycle"))),
		Notes: rec.String("notes"),
	}
	var err error
	if out.StartedAt, err = parseTime(rec, "started_at"); err != nil {
		return RunLog{}, fmt.Errorf("run %s: %w", out.RunID, err)
	}
	if out.FinishedAt, err = parseTime(rec, "finished_at"); err != nil {
		return RunLog{}, fmt.Errorf("run %s: %w", out.RunID, err)
	}
	counts := []struct {
		key string
		dst *int
	}{
		{"processed", &out.Processed},
		{"promoted", &out.Promoted},
		{"ignored", &out.Ignored},
		{"failed", &out.Failed},
	}
	for _, c := range counts {
		if *c.dst, err = rec.Int(c.key); err != nil {
			return RunLog{}, fmt.Errorf("run %s: %w", out.RunID, err)
		}
	}
	return out, nil
}

// SourceCodec maps Source rows.
type SourceCodec struct{}

func (SourceCodec) Encode(s Source) records.Record {
	return records.Of(
		"source_id", s.SourceID,
		"name", s.Name,
		"url", s.URL,
		"kind", s.Kind,
		"enabled", s.Enabled,
		"notes", s.Notes,
	)
}

func (SourceCodec) Decode(rec records.Record) (Source, error) {
	enabled, err := rec.Bool("enabled")
	if err != nil {
		return Source{}, fmt.Errorf("source %s: %w", rec.String("source_id"), err)
	}
	return Source{
		SourceID: rec.String("source_id"),
		Name:     rec.String("name"),
		URL:      rec.String("url"),
		Kind:     rec.String("kind"),
		Enabled:  enabled,
		Notes:    rec.String("notes"),
	}, nil
}
