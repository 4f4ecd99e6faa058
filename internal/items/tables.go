package items

import "contentsbuilder/internal/records"

// TableNames maps each logical table to its sheet name.
type TableNames struct {
	SourceRegistry string
	IntakeQueue    string
	Screening      string
	TopicBacklog   string
	RunLogs        string
}

// DefaultTableNames returns the sheet names used when configuration is silent.
func DefaultTableNames() TableNames {
	return TableNames{
		SourceRegistry: "SourceRegistry",
		IntakeQueue:    "IntakeQueue",
		Screening:      "Screening",
		TopicBacklog:   "TopicBacklog",
		RunLogs:        "RunLogs",
	}
}

// Column orders. Codecs encode fields in this order, so the first row written
// to an empty table produces exactly this header.
var (
	SourceColumns    = []string{"source_id", "name", "url", "kind", "enabled", "notes"}
	IntakeColumns    = []string{"item_id", "fetched_at", "source_id", "title", "url", "published_at", "snippet", "dedupe_key", "status", "notes"}
	ScreeningColumns = []string{"item_id", "animal_score", "policy_score", "urgency", "japan_relevance", "misinformation_risk", "tags", "summary_30s", "key_points", "model_meta"}
	TopicColumns     = []string{"topic_id", "item_id", "title", "url", "combined_score", "misinformation_risk", "flagged", "tags", "created_at", "status"}
	RunLogColumns    = []string{"run_id", "cycle", "started_at", "finished_at", "processed", "promoted", "ignored", "failed", "notes"}
)

func (n TableNames) Sources() records.Definition {
	return records.Definition{Name: n.SourceRegistry, PrimaryKey: "source_id"}
}

func (n TableNames) Intake() records.Definition {
	return records.Definition{Name: n.IntakeQueue, PrimaryKey: "item_id"}
}

func (n TableNames) ScreeningResults() records.Definition {
	return records.Definition{
		Name:       n.Screening,
		PrimaryKey: "item_id",
		Kinds: map[string]records.Kind{
			"tags":       records.KindStringList,
			"key_points": records.KindStringList,
		},
	}
}

func (n TableNames) Topics() records.Definition {
	return records.Definition{
		Name:       n.TopicBacklog,
		PrimaryKey: "topic_id",
		Kinds:      map[string]records.Kind{"tags": records.KindStringList},
	}
}

func (n TableNames) Runs() records.Definition {
	return records.Definition{Name: n.RunLogs, PrimaryKey: "run_id"}
}

// Lookup returns the definition for a sheet name, case-insensitively on the
// logical name as well ("intake" finds IntakeQueue).
func (n TableNames) Lookup(name string) (records.Definition, bool) {
	for _, def := range n.All() {
		if def.Name == name {
			return def, true
		}
	}
	aliases := map[string]records.Definition{
		"sources":   n.Sources(),
		"intake":    n.Intake(),
		"screening": n.ScreeningResults(),
		"topics":    n.Topics(),
		"backlog":   n.Topics(),
		"runs":      n.Runs(),
		"runlogs":   n.Runs(),
	}
	def, ok := aliases[lower(name)]
	return def, ok
}

// All returns every table definition in a stable order.
func (n TableNames) All() []records.Definition {
	return []records.Definition{n.Sources(), n.Intake(), n.ScreeningResults(), n.Topics(), n.Runs()}
}

// Repository bundles typed stores for every pipeline table.
type Repository struct {
	Names     TableNames
	Sources   *records.Typed[Source]
	Intake    *records.Typed[IntakeItem]
	Screening *records.Typed[ScreeningResult]
	Topics    *records.Typed[TopicEntry]
	Runs      *records.Typed[RunLog]
}

// NewRepository opens typed stores over wb.
func NewRepository(wb *records.Workbook, names TableNames) *Repository {
	return &Repository{
		Names:     names,
		Sources:   records.NewTyped[Source](wb.Table(names.Sources()), SourceCodec{}),
		Intake:    records.NewTyped[IntakeItem](wb.Table(names.Intake()), IntakeCodec{}),
		Screening: records.NewTyped[ScreeningResult](wb.Table(names.ScreeningResults()), ScreeningCodec{}),
		Topics:    records.NewTyped[TopicEntry](wb.Table(names.Topics()), TopicCodec{}),
		Runs:      records.NewTyped[RunLog](wb.Table(names.Runs()), RunLogCodec{}),
	}
}
