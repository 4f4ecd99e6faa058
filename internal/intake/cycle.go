package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"contentsbuilder/internal/items"
	"contentsbuilder/internal/logging"
	"contentsbuilder/internal/records"
	"contentsbuilder/internal/services"
)

// Service runs intake cycles against a repository.
type Service struct {
	repo   *items.Repository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for fetched_at and run logs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides item and run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService builds an intake service over repo.
func NewService(repo *items.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "intake")
	return s
}

// Rejection records a candidate that could not be enqueued.
type Rejection struct {
	Index  int
	Title  string
	Reason string
}

// Result summarizes one intake cycle.
type Result struct {
	RunID          string
	Added          []items.IntakeItem
	Duplicates     int
	Rejected       []Rejection
	SourcesAdded   int
	SourcesUpdated int
}

// Import registers the file's sources and enqueues its items as one cycle.
func (s *Service) Import(ctx context.Context, file File) (Result, error) {
	added, updated, err := s.RegisterSources(ctx, file.Sources)
	if err != nil {
		return Result{}, err
	}
	result, err := s.Enqueue(ctx, file.Items)
	result.SourcesAdded = added
	result.SourcesUpdated = updated
	return result, err
}

// RegisterSources adds unknown sources and overwrites known ones by source_id.
func (s *Service) RegisterSources(ctx context.Context, sources []items.Source) (added, updated int, err error) {
	for _, src := range sources {
		src.SourceID = strings.TrimSpace(src.SourceID)
		if src.SourceID == "" {
			return added, updated, errors.New("source_id is required")
		}
		_, findErr := s.repo.Sources.Find(ctx, src.SourceID)
		switch {
		case errors.Is(findErr, records.ErrNotFound):
			if err := s.repo.Sources.Add(ctx, src); err != nil {
				return added, updated, fmt.Errorf("add source %s: %w", src.SourceID, err)
			}
			added++
		case findErr != nil:
			return added, updated, fmt.Errorf("lookup source %s: %w", src.SourceID, findErr)
		default:
			if err := s.repo.Sources.Update(ctx, src.SourceID, items.SourceCodec{}.Encode(src)); err != nil {
				return added, updated, fmt.Errorf("update source %s: %w", src.SourceID, err)
			}
			updated++
		}
		s.logger.Debug("source registered", logging.String("source_id", src.SourceID))
	}
	return added, updated, nil
}

// Enqueue adds candidates to the intake queue with status new, skipping any
// whose dedupe key is already queued or repeats earlier in the batch. A run
// log row is written even when nothing was added.
func (s *Service) Enqueue(ctx context.Context, candidates []Candidate) (Result, error) {
	result := Result{RunID: s.newID()}
	ctx = services.WithRunID(ctx, result.RunID)
	ctx = services.WithCycle(ctx, string(items.CycleIntake))
	logger := logging.WithContext(ctx, s.logger)
	started := s.now()

	existing, err := s.repo.Intake.All(ctx)
	if err != nil {
		return result, fmt.Errorf("load intake queue: %w", err)
	}
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, item := range existing {
		key := item.DedupeKey
		if key == "" {
			key = DedupeKey(item.Title, item.URL)
		}
		seen[key] = struct{}{}
	}

	for i, cand := range candidates {
		item, reason := s.prepare(cand)
		if reason != "" {
			result.Rejected = append(result.Rejected, Rejection{Index: i, Title: cand.Title, Reason: reason})
			logger.Warn("candidate rejected", logging.Int("index", i), logging.String("reason", reason))
			continue
		}
		if _, dup := seen[item.DedupeKey]; dup {
			result.Duplicates++
			logger.Debug("duplicate candidate skipped", logging.String("dedupe_key", item.DedupeKey))
			continue
		}
		if err := s.repo.Intake.Add(ctx, item); err != nil {
			return result, fmt.Errorf("enqueue %q: %w", item.Title, err)
		}
		seen[item.DedupeKey] = struct{}{}
		result.Added = append(result.Added, item)
		logger.Info("item enqueued",
			logging.String(logging.FieldItemID, item.ItemID),
			logging.String("source_id", item.SourceID),
		)
	}

	run := items.RunLog{
		RunID:      result.RunID,
		Cycle:      items.CycleIntake,
		StartedAt:  started,
		FinishedAt: s.now(),
		Processed:  len(candidates),
		Ignored:    result.Duplicates,
		Failed:     len(result.Rejected),
		Notes:      fmt.Sprintf("added=%d duplicates=%d rejected=%d", len(result.Added), result.Duplicates, len(result.Rejected)),
	}
	if err := s.repo.Runs.Add(ctx, run); err != nil {
		return result, fmt.Errorf("write run log: %w", err)
	}
	logger.Info("intake cycle complete",
		logging.Int("added", len(result.Added)),
		logging.Int("duplicates", result.Duplicates),
		logging.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

func (s *Service) prepare(cand Candidate) (items.IntakeItem, string) {
	title := strings.TrimSpace(cand.Title)
	rawURL := strings.TrimSpace(cand.URL)
	if title == "" {
		return items.IntakeItem{}, "title is required"
	}
	if rawURL == "" {
		return items.IntakeItem{}, "url is required"
	}
	published, err := cand.Published()
	if err != nil {
		return items.IntakeItem{}, err.Error()
	}
	return items.IntakeItem{
		ItemID:      s.newID(),
		FetchedAt:   s.now().UTC(),
		SourceID:    strings.TrimSpace(cand.SourceID),
		Title:       title,
		URL:         rawURL,
		PublishedAt: published,
		Snippet:     CleanSnippet(cand.Snippet),
		DedupeKey:   DedupeKey(title, rawURL),
		Status:      items.StatusNew,
	}, ""
}
