package screening

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"contentsbuilder/internal/items"
	"contentsbuilder/internal/logging"
	"contentsbuilder/internal/notifications"
	"contentsbuilder/internal/records"
	"contentsbuilder/internal/runlock"
	"contentsbuilder/internal/services"
	"contentsbuilder/internal/services/gemini"
)

// Settings tune a screening cycle.
type Settings struct {
	Model       string
	ModelMeta   string
	Thresholds  items.Thresholds
	Concurrency int
	// BatchSize caps how many new items one cycle screens. Zero means all.
	BatchSize int
	Retry     RetryPolicy
	// LockPath is the cross-process cycle lock. Empty disables locking.
	LockPath string
}

// Summary reports what one cycle did.
type Summary struct {
	RunID     string
	Processed int
	Promoted  int
	Ignored   int
	Flagged   int
	Failed    int
	Duration  time.Duration
}

// Runner executes screening cycles.
type Runner struct {
	repo     *items.Repository
	gen      gemini.Generator
	notifier notifications.Service
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	// persist serializes every workbook write of a cycle.
	persist sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotifier sets the service that announces promoted and flagged items.
func WithNotifier(n notifications.Service) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides run and topic id generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewRunner builds a runner. gen is required.
func NewRunner(repo *items.Repository, gen gemini.Generator, settings Settings, opts ...Option) (*Runner, error) {
	if repo == nil {
		return nil, errors.New("screening: repository is required")
	}
	if gen == nil {
		return nil, errors.New("screening: generator is required")
	}
	if settings.Model == "" {
		return nil, errors.New("screening: model is required")
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = 1
	}
	r := &Runner{
		repo:     repo,
		gen:      gen,
		notifier: notifications.NewService(nil),
		settings: settings,
		logger:   logging.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "screening")
	return r, nil
}

// outcome is the per-item result folded into the summary.
type outcome int

const (
	outcomeFailed outcome = iota
	outcomePromoted
	outcomeIgnored
)

// Run screens pending items once. Item-level failures are recorded on the
// item and counted; only workbook, lock, and cancellation errors end the
// cycle early. A run log row is written in both cases when the workbook is
// still reachable.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.settings.LockPath != "" {
		lock, err := runlock.TryAcquire(r.settings.LockPath)
		if err != nil {
			return Summary{}, err
		}
		defer lock.Release()
	}

	started := r.now()
	summary := Summary{RunID: r.newID()}
	ctx = services.WithRunID(ctx, summary.RunID)
	ctx = services.WithCycle(ctx, string(items.CycleScreening))
	logger := logging.WithContext(ctx, r.logger)

	pending, err := r.pending(ctx)
	if err != nil {
		return summary, err
	}
	logger.Info("screening cycle started", logging.Int("pending", len(pending)))

	var counts sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.settings.Concurrency)
	for _, item := range pending {
		group.Go(func() error {
			result, flagged, err := r.screenItem(groupCtx, item)
			if err != nil {
				return err
			}
			counts.Lock()
			defer counts.Unlock()
			summary.Processed++
			if flagged {
				summary.Flagged++
			}
			switch result {
			case outcomePromoted:
				summary.Promoted++
			case outcomeIgnored:
				summary.Ignored++
			default:
				summary.Failed++
			}
			return nil
		})
	}
	runErr := group.Wait()
	summary.Duration = r.now().Sub(started)

	if err := r.writeRunLog(context.WithoutCancel(ctx), summary, started, runErr); err != nil {
		logger.Error("write run log failed", logging.Error(err))
		if runErr == nil {
			runErr = err
		}
	}

	attrs := []logging.Attr{
		logging.Int("processed", summary.Processed),
		logging.Int("promoted", summary.Promoted),
		logging.Int("ignored", summary.Ignored),
		logging.Int("flagged", summary.Flagged),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
	}
	if runErr != nil {
		logging.ErrorWithContext(logger, "screening cycle aborted", "screening_aborted", append(attrs, logging.Error(runErr))...)
		return summary, runErr
	}
	logger.Info("screening cycle complete", logging.Args(attrs...)...)
	r.publish(ctx, notifications.EventCycleCompleted, notifications.Payload{
		"cycle":     string(items.CycleScreening),
		"processed": summary.Processed,
		"promoted":  summary.Promoted,
		"ignored":   summary.Ignored,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	})
	return summary, nil
}

func (r *Runner) pending(ctx context.Context) ([]items.IntakeItem, error) {
	all, skipped, err := r.repo.Intake.Decodable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load intake queue: %w", err)
	}
	for _, rowErr := range skipped {
		logging.WithContext(ctx, r.logger).Warn("intake row skipped",
			logging.String(logging.FieldTable, rowErr.Table),
			logging.Int("row", rowErr.Row),
			logging.String(logging.FieldErrorHint, "fix the row in the workbook"),
			logging.Error(rowErr.Err),
		)
	}
	pending := make([]items.IntakeItem, 0, len(all))
	for _, item := range all {
		if item.Status != items.StatusNew {
			continue
		}
		pending = append(pending, item)
		if r.settings.BatchSize > 0 && len(pending) == r.settings.BatchSize {
			break
		}
	}
	return pending, nil
}

// screenItem returns a non-nil error only when the cycle must stop.
func (r *Runner) screenItem(ctx context.Context, item items.IntakeItem) (outcome, bool, error) {
	ctx = services.WithItemID(ctx, item.ItemID)
	logger := logging.WithContext(ctx, r.logger)

	var result items.ScreeningResult
	reply, err := r.generate(ctx, logger, item)
	if err == nil {
		result, err = reply.Result()
	}
	if err == nil {
		items.Normalize(&result)
		err = items.Validate(result)
	}
	if err != nil {
		if ctx.Err() != nil {
			return outcomeFailed, false, ctx.Err()
		}
		return outcomeFailed, false, r.fail(ctx, logger, item, err)
	}

	result.ItemID = item.ItemID
	result.ModelMeta = r.settings.ModelMeta
	decision := items.Evaluate(result, r.settings.Thresholds)

	entry, err := r.record(ctx, item, result, decision)
	if err != nil {
		return outcomeFailed, false, err
	}

	logger.Info("item screened",
		logging.String("status", string(decision.Status())),
		logging.Int("combined_score", decision.CombinedScore),
		logging.String("misinformation_risk", string(result.MisinformationRisk)),
		logging.Bool("flagged", decision.Flag),
	)
	if entry != nil {
		r.announce(ctx, *entry)
	}
	if decision.Promote {
		return outcomePromoted, decision.Flag, nil
	}
	return outcomeIgnored, decision.Flag, nil
}

func (r *Runner) generate(ctx context.Context, logger *slog.Logger, item items.IntakeItem) (items.ScreeningReply, error) {
	prompt := BuildPrompt(item)
	attempts := r.settings.Retry.attempts()
	for attempt := 1; ; attempt++ {
		reply, err := gemini.GenerateStructured[items.ScreeningReply](ctx, r.gen, r.settings.Model, SystemPrompt, prompt)
		if err == nil {
			return reply, nil
		}
		var parseErr *gemini.ParseError
		if errors.As(err, &parseErr) {
			logger.Warn("screening response not parseable",
				logging.String(logging.FieldModel, r.settings.Model),
				logging.String("raw_snippet", parseErr.Snippet()),
				logging.Error(err),
			)
		}
		wait, retry := r.settings.Retry.delay(ctx, err, attempt)
		if !retry {
			return items.ScreeningReply{}, err
		}
		logger.Warn("generation failed; retrying",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("backoff", wait),
			logging.Error(err),
		)
		if err := sleepWithContext(ctx, wait); err != nil {
			return items.ScreeningReply{}, err
		}
	}
}

// record persists a valid result and moves the item through screened to its
// final status. It returns the backlog entry when one was written.
func (r *Runner) record(ctx context.Context, item items.IntakeItem, result items.ScreeningResult, decision items.Decision) (*items.TopicEntry, error) {
	r.persist.Lock()
	defer r.persist.Unlock()

	if err := items.Transition(item.Status, items.StatusScreened); err != nil {
		return nil, err
	}
	if err := r.upsertResult(ctx, result); err != nil {
		return nil, fmt.Errorf("write screening result %s: %w", item.ItemID, err)
	}
	if err := r.repo.Intake.Update(ctx, item.ItemID, items.StatusUpdate(items.StatusScreened, "")); err != nil {
		return nil, fmt.Errorf("mark %s screened: %w", item.ItemID, err)
	}

	final := decision.Status()
	if err := items.Transition(items.StatusScreened, final); err != nil {
		return nil, err
	}
	if err := r.repo.Intake.Update(ctx, item.ItemID, items.StatusUpdate(final, decisionNote(decision, result))); err != nil {
		return nil, fmt.Errorf("mark %s %s: %w", item.ItemID, final, err)
	}
	if !decision.Backlog() {
		return nil, nil
	}

	entry := items.TopicEntry{
		TopicID:            r.newID(),
		ItemID:             item.ItemID,
		Title:              item.Title,
		URL:                item.URL,
		CombinedScore:      decision.CombinedScore,
		MisinformationRisk: result.MisinformationRisk,
		Flagged:            decision.Flag,
		Tags:               result.Tags,
		CreatedAt:          r.now().UTC(),
		Status:             decision.TopicStatus(),
	}
	if err := r.repo.Topics.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("add topic for %s: %w", item.ItemID, err)
	}
	return &entry, nil
}

// upsertResult replaces an earlier result for a requeued item instead of
// appending a second row.
func (r *Runner) upsertResult(ctx context.Context, result items.ScreeningResult) error {
	err := r.repo.Screening.Update(ctx, result.ItemID, items.ScreeningCodec{}.Encode(result))
	if errors.Is(err, records.ErrNotFound) {
		return r.repo.Screening.Add(ctx, result)
	}
	return err
}

func decisionNote(decision items.Decision, result items.ScreeningResult) string {
	note := fmt.Sprintf("score=%d", decision.CombinedScore)
	if decision.Flag {
		note += fmt.Sprintf("; flagged: misinformation_risk=%s", result.MisinformationRisk)
	}
	return note
}

// fail records err on the item. The returned error is non-nil only when the
// workbook write itself fails.
func (r *Runner) fail(ctx context.Context, logger *slog.Logger, item items.IntakeItem, cause error) error {
	logger.Warn("item screening failed",
		logging.String("kind", services.Kind(cause)),
		logging.String(logging.FieldErrorHint, "requeue the item after fixing the cause"),
		logging.Error(cause),
	)
	r.persist.Lock()
	defer r.persist.Unlock()
	if err := items.Transition(item.Status, items.StatusError); err != nil {
		return err
	}
	if err := r.repo.Intake.Update(ctx, item.ItemID, items.StatusUpdate(items.StatusError, services.FailureNote(cause))); err != nil {
		return fmt.Errorf("mark %s error: %w", item.ItemID, err)
	}
	return nil
}

func (r *Runner) announce(ctx context.Context, entry items.TopicEntry) {
	payload := notifications.Payload{
		"title": entry.Title,
		"url":   entry.URL,
		"score": entry.CombinedScore,
		"risk":  string(entry.MisinformationRisk),
	}
	if entry.Flagged {
		r.publish(ctx, notifications.EventFlagged, payload)
		return
	}
	r.publish(ctx, notifications.EventPromoted, payload)
}

func (r *Runner) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := r.notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, r.logger).Warn("notification failed",
			logging.String(logging.FieldEventType, string(event)),
			logging.Error(err),
		)
	}
}

func (r *Runner) writeRunLog(ctx context.Context, summary Summary, started time.Time, runErr error) error {
	notes := fmt.Sprintf("flagged=%d", summary.Flagged)
	if runErr != nil {
		notes += "; aborted: " + services.FailureNote(runErr)
	}
	return r.repo.Runs.Add(ctx, items.RunLog{
		RunID:      summary.RunID,
		Cycle:      items.CycleScreening,
		StartedAt:  started,
		FinishedAt: started.Add(summary.Duration),
		Processed:  summary.Processed,
		Promoted:   summary.Promoted,
		Ignored:    summary.Ignored,
		Failed:     summary.Failed,
		Notes:      notes,
	})
}

// Requeue moves an item in error back to new and clears its note.
func Requeue(ctx context.Context, repo *items.Repository, itemID string) error {
	item, err := repo.Intake.Find(ctx, itemID)
	if err != nil {
		return err
	}
	if err := items.Transition(item.Status, items.StatusNew); err != nil {
		return fmt.Errorf("requeue %s: %w", itemID, err)
	}
	return repo.Intake.Update(ctx, itemID, items.StatusUpdate(items.StatusNew, ""))
}
