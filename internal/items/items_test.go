package items_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"contentsbuilder/internal/items"
	"contentsbuilder/internal/records"
	"contentsbuilder/internal/tabular"
)

func TestPromotionThreshold(t *testing.T) {
	th := items.DefaultThresholds()
	cases := []struct {
		name    string
		result  items.ScreeningResult
		promote bool
		flag    bool
		status  items.Status
	}{
		{
			name:    "sum at threshold",
			result:  items.ScreeningResult{AnimalScore: 4, PolicyScore: 3, MisinformationRisk: items.RiskLow},
			promote: true,
			status:  items.StatusPromoted,
		},
		{
			name:   "sum below threshold",
			result: items.ScreeningResult{AnimalScore: 4, PolicyScore: 2, MisinformationRisk: items.RiskLow},
			status: items.StatusIgnored,
		},
		{
			name:   "high risk flags regardless of sum",
			result: items.ScreeningResult{AnimalScore: 1, PolicyScore: 1, MisinformationRisk: items.RiskHigh},
			flag:   true,
			status: items.StatusIgnored,
		},
		{
			name:   "medium risk does not flag",
			result: items.ScreeningResult{AnimalScore: 0, PolicyScore: 0, MisinformationRisk: items.RiskMedium},
			status: items.StatusIgnored,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := items.Evaluate(tc.result, th)
			if d.Promote != tc.promote || d.Flag != tc.flag {
				t.Fatalf("Evaluate = %+v, want promote=%v flag=%v", d, tc.promote, tc.flag)
			}
			if d.Status() != tc.status {
				t.Fatalf("Status = %s, want %s", d.Status(), tc.status)
			}
			if d.Backlog() != (tc.promote || tc.flag) {
				t.Fatalf("Backlog = %v", d.Backlog())
			}
		})
	}
}

func TestFlaggedEntriesGoToReview(t *testing.T) {
	d := items.Evaluate(items.ScreeningResult{AnimalScore: 5, PolicyScore: 5, MisinformationRisk: items.RiskHigh}, items.DefaultThresholds())
	if d.TopicStatus() != items.TopicReview {
		t.Fatalf("TopicStatus = %s", d.TopicStatus())
	}
}

func TestTransition(t *testing.T) {
	allowed := [][2]items.Status{
		{items.StatusNew, items.StatusScreened},
		{items.StatusScreened, items.StatusPromoted},
		{items.StatusScreened, items.StatusIgnored},
		{items.StatusPromoted, items.StatusError},
		{items.StatusNew, items.StatusError},
		{items.StatusError, items.StatusNew},
	}
	for _, pair := range allowed {
		if err := items.Transition(pair[0], pair[1]); err != nil {
			t.Fatalf("Transition(%s, %s): %v", pair[0], pair[1], err)
		}
	}
	denied := [][2]items.Status{
		{items.StatusNew, items.StatusPromoted},
		{items.StatusIgnored, items.StatusScreened},
		{items.StatusPromoted, items.StatusNew},
		{items.StatusNew, items.Status("archived")},
	}
	for _, pair := range denied {
		err := items.Transition(pair[0], pair[1])
		if !errors.Is(err, items.ErrIllegalTransition) {
			t.Fatalf("Transition(%s, %s) = %v, want ErrIllegalTransition", pair[0], pair[1], err)
		}
	}
}

func TestParseStatusAndRisk(t *testing.T) {
	if s, ok := items.ParseStatus(" Screened "); !ok || s != items.StatusScreened {
		t.Fatalf("ParseStatus = %q, %v", s, ok)
	}
	if _, ok := items.ParseStatus("done"); ok {
		t.Fatal("expected unknown status to fail")
	}
	if r, ok := items.ParseRisk("HIGH"); !ok || r != items.RiskHigh {
		t.Fatalf("ParseRisk = %q, %v", r, ok)
	}
	if items.RiskMedium.AtLeast(items.RiskHigh) || !items.RiskHigh.AtLeast(items.RiskMedium) {
		t.Fatal("risk ordering broken")
	}
}

func validResult() items.ScreeningResult {
	return items.ScreeningResult{
		AnimalScore:        3,
		PolicyScore:        4,
		Urgency:            2,
		JapanRelevance:     5,
		MisinformationRisk: items.RiskLow,
		Tags:               []string{"wildlife"},
		Summary30s:         "A short summary.",
		KeyPoints:          []string{"one", "two"},
	}
}

func TestValidateAcceptsWellFormedResult(t *testing.T) {
	if err := items.Validate(validResult()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	r := validResult()
	r.AnimalScore = 6
	r.Urgency = -1
	r.MisinformationRisk = "unknown"
	r.Summary30s = "  "
	r.KeyPoints = []string{"a", "b", "c", "d", "e", "f"}

	err := items.Validate(r)
	if err == nil {
		t.Fatal("expected validation error")
	}
	want := map[string]bool{"animal_score": true, "urgency": true, "misinformation_risk": true, "summary_30s": true, "key_points": true}
	got := map[string]bool{}
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *items.ValidationError
		if !errors.As(e, &ve) {
			t.Fatalf("unexpected error type %T", e)
		}
		got[ve.Field] = true
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
}

func TestScreeningReplyReportsMissingFields(t *testing.T) {
	var reply items.ScreeningReply
	if err := json.Unmarshal([]byte(`{"misinformation_risk":"low","summary_30s":"s","tags":null}`), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	result, err := reply.Result()
	if err == nil {
		t.Fatalf("expected missing fields, got %+v", result)
	}
	if !reflect.DeepEqual(result, items.ScreeningResult{}) {
		t.Fatalf("expected zero result, got %+v", result)
	}
	got := map[string]string{}
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *items.ValidationError
		if !errors.As(e, &ve) {
			t.Fatalf("unexpected error type %T", e)
		}
		got[ve.Field] = ve.Reason
	}
	want := map[string]string{
		"animal_score":    "missing",
		"policy_score":    "missing",
		"urgency":         "missing",
		"japan_relevance": "missing",
		"tags":            "missing",
		"key_points":      "missing",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
}

func TestScreeningReplyKeepsExplicitZeros(t *testing.T) {
	var reply items.ScreeningReply
	doc := `{"animal_score":0,"policy_score":0,"urgency":0,"japan_relevance":0,` +
		`"misinformation_risk":"low","tags":[],"summary_30s":"s","key_points":[]}`
	if err := json.Unmarshal([]byte(doc), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	result, err := reply.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.CombinedScore() != 0 || result.Tags == nil || result.Summary30s != "s" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if err := items.Validate(result); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNormalizeTrimsTagsAndRisk(t *testing.T) {
	r := validResult()
	r.MisinformationRisk = "MED"
	r.Tags = []string{" cats ", "", "policy"}
	items.Normalize(&r)
	if r.MisinformationRisk != items.RiskMedium {
		t.Fatalf("risk = %q", r.MisinformationRisk)
	}
	if !reflect.DeepEqual(r.Tags, []string{"cats", "policy"}) {
		t.Fatalf("tags = %v", r.Tags)
	}
}

func TestScreeningCodecThroughStore(t *testing.T) {
	ctx := context.Background()
	mem := tabular.NewMemory()
	names := items.DefaultTableNames()
	repo := items.NewRepository(records.NewWorkbook(mem, records.PolicyStrict, nil), names)

	result := validResult()
	result.ItemID = "item-1"
	result.KeyPoints = []string{}
	result.ModelMeta = "model=gemini-3-flash;prompt=p-2026-01-20-01"
	if err := repo.Screening.Add(ctx, result); err != nil {
		t.Fatalf("Add: %v", err)
	}

	grid, err := mem.ReadRange(ctx, names.Screening, 1, 1, 2, len(items.ScreeningColumns))
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	for i, column := range items.ScreeningColumns {
		if grid[0][i] != column {
			t.Fatalf("header[%d] = %v, want %s", i, grid[0][i], column)
		}
	}
	if grid[1][6] != `["wildlife"]` || grid[1][8] != `[]` {
		t.Fatalf("list cells = %v, %v", grid[1][6], grid[1][8])
	}

	got, err := repo.Screening.Find(ctx, "item-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !reflect.DeepEqual(got, result) {
		t.Fatalf("decoded = %+v\nwant      %+v", got, result)
	}
}

func TestIntakeCodecRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := items.NewRepository(records.NewWorkbook(tabular.NewMemory(), records.PolicyStrict, nil), items.DefaultTableNames())
	fetched := time.Date(2026, 1, 20, 7, 30, 0, 0, time.UTC)
	item := items.IntakeItem{
		ItemID:    "A",
		FetchedAt: fetched,
		SourceID:  "src",
		Title:     "X",
		URL:       "https://example.com/a",
		DedupeKey: "x|example.com/a",
		Status:    items.StatusNew,
	}
	if err := repo.Intake.Add(ctx, item); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Intake.Update(ctx, "A", items.StatusUpdate(items.StatusScreened, "")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.Intake.Find(ctx, "A")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	item.Status = items.StatusScreened
	if !reflect.DeepEqual(got, item) {
		t.Fatalf("decoded = %+v, want %+v", got, item)
	}
}

func TestTopicAndRunCodecs(t *testing.T) {
	created := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	topic := items.TopicEntry{
		TopicID:            "t1",
		ItemID:             "A",
		Title:              "X",
		CombinedScore:      8,
		MisinformationRisk: items.RiskHigh,
		Flagged:            true,
		Tags:               []string{"a"},
		CreatedAt:          created,
		Status:             items.TopicReview,
	}
	decoded, err := items.TopicCodec{}.Decode(items.TopicCodec{}.Encode(topic))
	if err != nil || !reflect.DeepEqual(decoded, topic) {
		t.Fatalf("topic round trip = %+v, %v", decoded, err)
	}

	run := items.RunLog{RunID: "r1", Cycle: items.CycleScreening, StartedAt: created, FinishedAt: created.Add(time.Minute), Processed: 3, Promoted: 1, Ignored: 1, Failed: 1}
	gotRun, err := items.RunLogCodec{}.Decode(items.RunLogCodec{}.Encode(run))
	if err != nil || !reflect.DeepEqual(gotRun, run) {
		t.Fatalf("run round trip = %+v, %v", gotRun, err)
	}
}

func TestIntakeDecodeRejectsUnknownStatus(t *testing.T) {
	_, err := items.IntakeCodec{}.Decode(records.Of("item_id", "A", "status", "archived"))
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestTableLookup(t *testing.T) {
	names := items.DefaultTableNames()
	if def, ok := names.Lookup("intake"); !ok || def.Name != "IntakeQueue" {
		t.Fatalf("Lookup(intake) = %+v, %v", def, ok)
	}
	if def, ok := names.Lookup("TopicBacklog"); !ok || def.PrimaryKey != "topic_id" {
		t.Fatalf("Lookup(TopicBacklog) = %+v, %v", def, ok)
	}
	if _, ok := names.Lookup("Outputs"); ok {
		t.Fatal("unexpected table")
	}
}
