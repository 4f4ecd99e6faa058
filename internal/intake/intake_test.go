package intake_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contentsbuilder/internal/intake"
	"contentsbuilder/internal/items"
	"contentsbuilder/internal/testsupport"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 1, 20, 7, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
}

func TestDedupeKeyNormalizesTitleAndURL(t *testing.T) {
	cases := []struct {
		title, url string
		want       string
	}{
		{"Stray  Cats\tRescued", "https://www.Example.com/news/a/?utm=1#top", "stray cats rescued|example.com/news/a"},
		{"ＡＢＣ Shelter", "http://example.com/x", "abc shelter|example.com/x"},
		{"Title", "not a url/", "title|not a url"},
	}
	for _, tc := range cases {
		if got := intake.DedupeKey(tc.title, tc.url); got != tc.want {
			t.Fatalf("DedupeKey(%q, %q) = %q, want %q", tc.title, tc.url, got, tc.want)
		}
	}
	if intake.DedupeKey("Dog Law", "https://example.com/a") != intake.DedupeKey("dog law", "http://EXAMPLE.com/a/") {
		t.Fatal("expected scheme, case, and trailing slash to be ignored")
	}
}

func TestCleanSnippetStripsMarkup(t *testing.T) {
	raw := `<p>New <b>animal welfare</b> bill</p><script>track()</script><p>passes &amp; moves on</p>`
	if got := intake.CleanSnippet(raw); got != "New animal welfare bill passes & moves on" {
		t.Fatalf("CleanSnippet = %q", got)
	}
	if got := intake.CleanSnippet("  plain\n text "); got != "plain text" {
		t.Fatalf("CleanSnippet plain = %q", got)
	}
	long := strings.Repeat("a", intake.MaxSnippetRunes+10)
	if got := []rune(intake.CleanSnippet(long)); len(got) != intake.MaxSnippetRunes+1 {
		t.Fatalf("expected truncated snippet, got %d runes", len(got))
	}
}

func TestEnqueueSkipsDuplicatesAndRejectsInvalid(t *testing.T) {
	repo, _ := testsupport.NewMemoryRepository(t)
	testsupport.SeedIntake(t, repo, items.IntakeItem{
		ItemID:    "existing",
		Title:     "Shelter Opens",
		URL:       "https://example.com/shelter",
		DedupeKey: intake.DedupeKey("Shelter Opens", "https://example.com/shelter"),
	})

	svc := intake.NewService(repo, intake.WithClock(fixedClock()), intake.WithIDGenerator(sequentialIDs()))
	result, err := svc.Enqueue(context.Background(), []intake.Candidate{
		{SourceID: "news", Title: "shelter opens", URL: "https://www.example.com/shelter/"},
		{SourceID: "news", Title: "New Bill", URL: "https://example.com/bill", Snippet: "<i>draft</i> text", PublishedAt: "2026-01-19"},
		{SourceID: "news", Title: "New Bill", URL: "https://example.com/bill"},
		{SourceID: "news", Title: "", URL: "https://example.com/empty"},
		{SourceID: "news", Title: "Bad date", URL: "https://example.com/d", PublishedAt: "yesterday"},
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if result.RunID != "id-01" {
		t.Fatalf("unexpected run id %q", result.RunID)
	}
	if len(result.Added) != 1 || result.Duplicates != 2 || len(result.Rejected) != 2 {
		t.Fatalf("unexpected result: added=%d dup=%d rejected=%+v", len(result.Added), result.Duplicates, result.Rejected)
	}

	added := testsupport.MustFindIntake(t, repo, result.Added[0].ItemID)
	if added.Status != items.StatusNew {
		t.Fatalf("expected status new, got %q", added.Status)
	}
	if added.Snippet != "draft text" {
		t.Fatalf("unexpected snippet %q", added.Snippet)
	}
	if !added.FetchedAt.Equal(fixedClock()()) {
		t.Fatalf("unexpected fetched_at %v", added.FetchedAt)
	}
	if added.PublishedAt.Format("2006-01-02") != "2026-01-19" {
		t.Fatalf("unexpected published_at %v", added.PublishedAt)
	}

	runs, err := repo.Runs.All(context.Background())
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Cycle != items.CycleIntake || runs[0].Processed != 5 || runs[0].Failed != 2 || runs[0].Ignored != 2 {
		t.Fatalf("unexpected run log: %+v", runs)
	}
}

func TestImportRegistersSourcesAndItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	testsupport.WriteFile(t, path, `
sources:
  - source_id: env-ministry
    name: Ministry of the Environment
    url: https://www.env.go.jp/
    kind: rss
    enabled: true
items:
  - source_id: env-ministry
    title: Pet welfare guideline revised
    url: https://www.env.go.jp/press/1
    published_at: 2026-01-18T09:00:00Z
`)
	file, err := intake.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	repo, _ := testsupport.NewMemoryRepository(t)
	svc := intake.NewService(repo, intake.WithClock(fixedClock()))
	result, err := svc.Import(context.Background(), file)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.SourcesAdded != 1 || result.SourcesUpdated != 0 || len(result.Added) != 1 {
		t.Fatalf("unexpected import result: %+v", result)
	}

	file.Sources[0].Enabled = false
	result, err = svc.Import(context.Background(), file)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if result.SourcesUpdated != 1 || len(result.Added) != 0 || result.Duplicates != 1 {
		t.Fatalf("unexpected second import: %+v", result)
	}
	src, err := repo.Sources.Find(context.Background(), "env-ministry")
	if err != nil {
		t.Fatalf("find source: %v", err)
	}
	if src.Enabled {
		t.Fatal("expected source update to persist")
	}
}

func TestParseFileAcceptsJSONAndRejectsUnknownKeys(t *testing.T) {
	file, err := intake.ParseFile([]byte(`{"items":[{"title":"A","url":"https://example.com/a"}]}`))
	if err != nil {
		t.Fatalf("ParseFile json: %v", err)
	}
	if len(file.Items) != 1 || file.Items[0].Title != "A" {
		t.Fatalf("unexpected file: %+v", file)
	}
	if _, err := intake.ParseFile([]byte("items:\n  - titel: typo\n")); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
	if _, err := intake.ParseFile([]byte("sources:\n  - name: missing id\n")); err == nil {
		t.Fatal("expected missing source_id to be rejected")
	}
}
