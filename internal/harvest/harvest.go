// Package harvest contains the loop that scrolls the activity feed, scans the
// newly rendered elements and turns watched items into records.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/watchharvest/watchharvest/internal/classify"
	"github.com/watchharvest/watchharvest/internal/date"
	"github.com/watchharvest/watchharvest/internal/dedup"
	"github.com/watchharvest/watchharvest/internal/fetch"
	"github.com/watchharvest/watchharvest/internal/log"
	"github.com/watchharvest/watchharvest/internal/types"
	"github.com/watchharvest/watchharvest/internal/utils"
)

// BoundaryMode selects which elements are compared with the end date.
type BoundaryMode string

const (
	// BoundaryHeader stops at the first date header before the end date.
	BoundaryHeader BoundaryMode = "header"
	// BoundaryRecord stops at the first record before the end date.
	BoundaryRecord BoundaryMode = "record"
	// BoundaryBoth applies both checks.
	BoundaryBoth BoundaryMode = "both"
)

// ParseBoundaryMode validates s. The empty string means BoundaryHeader.
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	switch m := BoundaryMode(s); m {
	case "":
		return BoundaryHeader, nil
	case BoundaryHeader, BoundaryRecord, BoundaryBoth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown boundary mode %q, must be one of header, record, both", s)
	}
}

func (m BoundaryMode) checkHeaders() bool {
	return m == BoundaryHeader || m == BoundaryBoth || m == ""
}

func (m BoundaryMode) checkRecords() bool {
	return m == BoundaryRecord || m == BoundaryBoth
}

// Config configures the harvest loop.
type Config struct {
	ScrollsPerRound int          `yaml:"scrolls_per_round" env:"HARVEST_SCROLLS_PER_ROUND" env-default:"2"`
	IdleRoundLimit  int          `yaml:"idle_round_limit" env:"HARVEST_IDLE_ROUND_LIMIT" env-default:"3"`
	MaxRounds       int          `yaml:"max_rounds,omitempty" env:"HARVEST_MAX_ROUNDS"`
	BoundaryMode    BoundaryMode `yaml:"boundary_mode" env:"HARVEST_BOUNDARY_MODE" env-default:"header"`
	DebugDir        string       `yaml:"debug_dir,omitempty" env:"HARVEST_DEBUG_DIR" env-default:"debug"`
}

// PageGrowth makes the feed render more elements.
type PageGrowth interface {
	TriggerScroll(ctx context.Context) (bool, error)
}

// ElementSource returns all feed elements rendered so far, in page order.
type ElementSource interface {
	ListElements(ctx context.Context) ([]types.Element, error)
}

// Classifier tells what kind of feed entry an element is.
type Classifier interface {
	Classify(el types.Element) (classify.Classification, error)
}

// RecordWriter persists accepted records.
type RecordWriter interface {
	Append(r types.ActivityRecord) error
}

// Options are the per run settings.
type Options struct {
	// EndDate is the oldest day to harvest, as labelled midnight. Nil means
	// harvest until the feed is exhausted.
	EndDate *time.Time
	// Today is the reference day for relative dates, as labelled midnight.
	Today time.Time
}

// Result describes a run that terminated normally.
type Result struct {
	Reason types.StopReason
	Stats  types.HarvestStats
}

// Harvester runs the harvest loop against its collaborators.
type Harvester struct {
	config     Config
	growth     PageGrowth
	source     ElementSource
	classifier Classifier
	writer     RecordWriter
}

// NewHarvester returns a harvester. Zero config values are replaced by the
// defaults.
func NewHarvester(config Config, growth PageGrowth, source ElementSource, classifier Classifier, writer RecordWriter) *Harvester {
	if config.ScrollsPerRound <= 0 {
		config.ScrollsPerRound = 2
	}
	if config.IdleRoundLimit <= 0 {
		config.IdleRoundLimit = 3
	}
	if config.BoundaryMode == "" {
		config.BoundaryMode = BoundaryHeader
	}
	return &Harvester{
		config:     config,
		growth:     growth,
		source:     source,
		classifier: classifier,
		writer:     writer,
	}
}

// state is everything a single run mutates.
type state struct {
	dateContext string
	registry    *dedup.Registry
	cursor      Cursor[types.Element]
	idleRounds  int
	stats       types.HarvestStats
}

// Run scrolls and scans until the feed is exhausted or the end date is
// reached. Errors of the collaborators and context cancellation abort the run;
// the returned Result then still carries the statistics collected so far.
func (h *Harvester) Run(ctx context.Context, opts Options) (Result, error) {
	logger := log.LoggerFromContext(ctx)
	if opts.Today.IsZero() {
		opts.Today = date.Today(time.Now())
	}
	st := &state{registry: dedup.NewRegistry()}
	st.stats.HarvestStart = time.Now()

	if opts.EndDate != nil {
		logger.Info(fmt.Sprintf("harvesting until %s (%s), boundary mode %s", opts.EndDate.Format("2006/01/02"), date.Weekday(*opts.EndDate), h.config.BoundaryMode))
	}

	for {
		if err := ctx.Err(); err != nil {
			return h.finish(st, ""), err
		}
		if h.config.MaxRounds > 0 && st.stats.Rounds >= h.config.MaxRounds {
			logger.Info(fmt.Sprintf("reached the maximum of %d rounds", h.config.MaxRounds))
			return h.finish(st, types.StopMaxRounds), nil
		}
		st.stats.Rounds++
		roundLogger := logger.With(slog.Int("round", st.stats.Rounds))
		roundCtx := log.ContextWithLogger(ctx, roundLogger)

		if err := h.scroll(roundCtx, st); err != nil {
			return h.finish(st, ""), err
		}

		found, total, reason, err := h.scan(roundCtx, st, opts)
		if err != nil {
			return h.finish(st, ""), err
		}
		if reason != "" {
			return h.finish(st, reason), nil
		}

		if found > 0 {
			st.idleRounds = 0
			roundLogger.Info(fmt.Sprintf("harvested %d new records, %d in total", found, st.stats.Records),
				slog.Int("elements", total), slog.Duration("elapsed", time.Since(st.stats.HarvestStart).Round(time.Second)))
			continue
		}
		st.idleRounds++
		roundLogger.Info(fmt.Sprintf("no new records (%d/%d)", st.idleRounds, h.config.IdleRoundLimit))
		if st.idleRounds >= h.config.IdleRoundLimit {
			logger.Info("no more content found, the feed seems to be exhausted")
			return h.finish(st, types.StopExhausted), nil
		}
	}
}

func (h *Harvester) finish(st *state, reason types.StopReason) Result {
	st.stats.StopReason = reason
	st.stats.HarvestEnd = time.Now()
	return Result{Reason: reason, Stats: st.stats}
}

func (h *Harvester) scroll(ctx context.Context, st *state) error {
	logger := log.LoggerFromContext(ctx)
	for i := 0; i < h.config.ScrollsPerRound; i++ {
		grew, err := h.growth.TriggerScroll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load more content: %w", err)
		}
		st.stats.Scrolls++
		if grew {
			st.stats.GrownScrolls++
		}
		logger.Debug("scrolled", slog.Int("scroll", i+1), slog.Bool("grew", grew))
	}
	return nil
}

// scan processes the elements rendered since the last round. It returns the
// number of new records, the number of rendered elements and a non-empty
// reason if the run has to stop.
func (h *Harvester) scan(ctx context.Context, st *state, opts Options) (int, int, types.StopReason, error) {
	logger := log.LoggerFromContext(ctx)
	elements, err := h.source.ListElements(ctx)
	if err != nil {
		return 0, 0, "", fmt.Errorf("failed to list feed elements: %w", err)
	}
	total := len(elements)
	unseen, next := st.cursor.Slice(elements)
	logger.Debug(fmt.Sprintf("scanning %d new of %d elements", len(unseen), len(elements)))

	found := 0
	for _, el := range unseen {
		st.stats.Elements++
		c, err := h.classifier.Classify(el)
		if err != nil {
			st.stats.Errors++
			logger.Warn(fmt.Sprintf("failed to classify element: %v", err))
			h.dump(ctx, "error", el)
			continue
		}

		switch c.Kind {
		case classify.Header:
			if h.handleHeader(ctx, st, c.Text, opts) {
				return found, total, types.StopHeaderBoundary, nil
			}
		case classify.SearchActivity:
			if st.registry.Observe(dedup.SearchActivities, c.Text) {
				st.stats.SearchActivity++
				logger.Debug("ignoring search activity", slog.String("text", utils.ShortenString(c.Text, 60)))
			}
		case classify.ViewedLog:
			if st.registry.Observe(dedup.ViewedLogs, c.Text) {
				st.stats.ViewedLogs++
				logger.Debug("ignoring viewed log", slog.String("text", utils.ShortenString(c.Text, 60)))
			}
		case classify.Content:
			accepted, reason, err := h.handleContent(ctx, st, el, c.Content, opts)
			if err != nil {
				return found, total, "", err
			}
			if reason != "" {
				return found, total, reason, nil
			}
			if accepted {
				found++
			}
		default:
			st.stats.Skipped++
			logger.Debug("skipping unrecognized element", slog.String("text", utils.ShortenString(c.Text, 60)))
			h.dump(ctx, "unrecognized", el)
		}
	}
	st.cursor.Advance(next)
	return found, total, "", nil
}

// handleHeader registers a date header and reports whether it ends the run.
func (h *Harvester) handleHeader(ctx context.Context, st *state, text string, opts Options) bool {
	logger := log.LoggerFromContext(ctx)
	if text == "" {
		st.stats.Skipped++
		return false
	}
	if !st.registry.Observe(dedup.Headers, text) {
		return false
	}
	st.stats.Headers++
	if text == st.dateContext {
		return false
	}
	st.dateContext = text
	logger.Info(fmt.Sprintf("processing date %s", text))

	if opts.EndDate == nil || !h.config.BoundaryMode.checkHeaders() {
		return false
	}
	d, err := date.ParseHeaderDate(text, opts.Today)
	if err != nil {
		logger.Warn(fmt.Sprintf("failed to evaluate the end date for header %q: %v", text, err))
		return false
	}
	if d.Before(*opts.EndDate) {
		logger.Info(fmt.Sprintf("header %s (%s) is before the end date %s, stopping", d.Format("2006/01/02"), date.Weekday(d), opts.EndDate.Format("2006/01/02")))
		return true
	}
	return false
}

// handleContent turns a content candidate into a record. It reports whether
// a record was written and a non-empty reason if the run has to stop.
func (h *Harvester) handleContent(ctx context.Context, st *state, el types.Element, cand *classify.ContentCandidate, opts Options) (bool, types.StopReason, error) {
	logger := log.LoggerFromContext(ctx)
	if cand == nil {
		st.stats.Skipped++
		return false, "", nil
	}
	if missing := cand.Missing(); len(missing) > 0 {
		st.stats.Skipped++
		logger.Debug("skipping incomplete item", slog.Any("missing", missing), slog.String("title", utils.ShortenString(cand.Title, 40)))
		return false, "", nil
	}
	if !st.registry.Observe(dedup.Records, cand.Key()) {
		st.stats.Duplicates++
		return false, "", nil
	}
	if st.dateContext == "" {
		st.stats.Skipped++
		logger.Warn(fmt.Sprintf("no date header seen before %q, skipping", utils.ShortenString(cand.Title, 40)))
		return false, "", nil
	}

	composite := st.dateContext + " " + cand.RawTimeLabel
	t, ok := date.Normalize(composite, opts.Today)
	if !ok {
		st.stats.Skipped++
		logger.Warn(fmt.Sprintf("failed to parse time %q, skipping %q", composite, utils.ShortenString(cand.Title, 40)))
		h.dump(ctx, "time", el)
		return false, "", nil
	}
	if opts.EndDate != nil && h.config.BoundaryMode.checkRecords() && t.Before(*opts.EndDate) {
		logger.Info(fmt.Sprintf("%q was watched at %s, before the end date %s, stopping", utils.ShortenString(cand.Title, 40), date.FormatInstant(t), opts.EndDate.Format("2006/01/02")))
		return false, types.StopRecordBoundary, nil
	}

	rec := types.NewActivityRecord(cand.Title, cand.TitleURL, cand.Channel, date.FormatInstant(t))
	if err := h.writer.Append(rec); err != nil {
		return false, "", fmt.Errorf("failed to write record %q: %w", cand.Key(), err)
	}
	st.stats.Records++
	channel := ""
	if cand.Channel != nil {
		channel = cand.Channel.Name
	}
	logger.Info("harvested item", slog.String("title", utils.ShortenString(rec.Title, 40)), slog.String("channel", channel), slog.String("time", rec.Time))
	return true, "", nil
}

func (h *Harvester) dump(ctx context.Context, name string, el types.Element) {
	if !log.Debug || h.config.DebugDir == "" {
		return
	}
	fetch.WriteHTMLToFile(ctx, name, el.HTML, h.config.DebugDir)
}
