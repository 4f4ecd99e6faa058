package screening

import (
	"fmt"
	"strings"

	"contentsbuilder/internal/items"
)

// SystemPrompt instructs the model on the screening rubric and output shape.
const SystemPrompt = `You screen news items for an animal welfare content channel focused on Japan.
Score the item and answer with a single JSON object and nothing else:
{
  "animal_score": integer 0-5, how directly the item concerns animal welfare,
  "policy_score": integer 0-5, how much it concerns law, regulation, or public policy,
  "urgency": integer 0-5, how time-sensitive it is,
  "japan_relevance": integer 0-5, how relevant it is to a Japanese audience,
  "misinformation_risk": one of "low", "med", "high",
  "tags": array of short lowercase topic tags,
  "summary_30s": a summary that can be read aloud in about 30 seconds,
  "key_points": array of at most 5 short key points
}
Do not wrap the JSON in code fences.`

// BuildPrompt renders the user prompt for one intake item.
func BuildPrompt(item items.IntakeItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "URL: %s\n", item.URL)
	if item.SourceID != "" {
		fmt.Fprintf(&b, "Source: %s\n", item.SourceID)
	}
	if !item.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", item.PublishedAt.UTC().Format("2006-01-02"))
	}
	if snippet := strings.TrimSpace(item.Snippet); snippet != "" {
		fmt.Fprintf(&b, "Snippet: %s\n", snippet)
	}
	return b.String()
}
