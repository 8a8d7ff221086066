// Package orchestrator builds one week's content calendar end to end:
// week window, optional replace, theme rotation, per-slot generation with
// novelty checks, video linkage and the grouping pass.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/orbitplan/internal/catalog"
	"github.com/ppiankov/orbitplan/internal/generate"
	"github.com/ppiankov/orbitplan/internal/metrics"
	"github.com/ppiankov/orbitplan/internal/novelty"
	"github.com/ppiankov/orbitplan/internal/scoring"
	"github.com/ppiankov/orbitplan/internal/store"
	"github.com/ppiankov/orbitplan/internal/weekplan"
)

// ErrInvalidRequest marks request parameters that prevent a run.
var ErrInvalidRequest = errors.New("invalid request")

// Generation modes.
const (
	ModeTemplate = "template"
	ModeLLM      = "llm"
)

const defaultMaxRetries = 1

// Store is the persistence the orchestrator writes through.
type Store interface {
	InsertPost(ctx context.Context, in store.PostInput) (store.Post, error)
	PostsInRange(ctx context.Context, start, end string) ([]store.Post, error)
	WeekThemeName(ctx context.Context, start, end string) (string, error)
	SetPostGroup(ctx context.Context, id int64, groupKey string, basePostID int64) error
	DeleteWeek(ctx context.Context, start, end string) (store.WeekDeletion, error)
	UpsertVideoScript(ctx context.Context, in store.VideoScriptInput) (store.VideoScript, error)
	VideoScriptFor(ctx context.Context, facetTitle, date string) (store.VideoScript, error)
	VideoScriptsInRange(ctx context.Context, start, end string) ([]store.VideoScript, error)
	UpsertVideoJob(ctx context.Context, in store.VideoJobInput) (store.VideoJob, error)
}

// Rotation picks themes, angles and secondary themes from durable history.
type Rotation interface {
	NextThemeIndex(ctx context.Context) (int, error)
	RecordThemeUsage(ctx context.Context, themeID string) error
	AngleForTopic(ctx context.Context, topic string, asOf time.Time) (string, error)
	RecordAngle(ctx context.Context, topic, angle string, at time.Time) error
	SelectSecondaryTheme(ctx context.Context, primaryID string, date time.Time) (catalog.Theme, error)
	RecordSecondaryUsage(ctx context.Context, primaryID, secondaryID string, date time.Time) error
}

// Scorer supplies content category weights.
type Scorer interface {
	ContentTypeWeights(ctx context.Context, windowDays int) (map[string]scoring.CategoryScore, error)
	SuppressedCategories(ctx context.Context, windowDays int) ([]string, error)
	Seeds() *scoring.SeedTable
}

// Options wires an Orchestrator.
type Options struct {
	Catalog  *catalog.Catalog
	Store    Store
	Rotation Rotation
	Scorer   Scorer

	// Generators by mode. The template mode is always available.
	Generators  map[string]generate.Generator
	DefaultMode string
	Validator   generate.Validator
	Fallback    generate.FallbackBuilder
	MaxRetries  int

	Novelty    novelty.Options
	WindowDays int

	Metrics *metrics.Metrics
	Log     logrus.FieldLogger
	Now     func() time.Time
}

// Orchestrator runs weekly batches. Runs for the same week are serialised.
type Orchestrator struct {
	opts  Options
	log   logrus.FieldLogger
	now   func() time.Time
	locks sync.Map
}

// New validates opts and creates an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Catalog == nil || len(opts.Catalog.Themes) == 0 {
		return nil, errors.New("catalog with at least one theme is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Rotation == nil {
		return nil, errors.New("rotation tracker is required")
	}
	if opts.Fallback == nil {
		opts.Fallback = generate.Templates{}
	}
	gens := make(map[string]generate.Generator, len(opts.Generators)+1)
	for mode, g := range opts.Generators {
		if g != nil {
			gens[mode] = g
		}
	}
	if _, ok := gens[ModeTemplate]; !ok {
		gens[ModeTemplate] = generate.Template{Builder: opts.Fallback}
	}
	opts.Generators = gens
	if opts.DefaultMode == "" {
		opts.DefaultMode = ModeTemplate
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = scoring.DefaultWindowDays
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{opts: opts, log: log, now: now}, nil
}

// Request triggers one batch.
type Request struct {
	WeekStart              string `json:"weekStart,omitempty"`
	CurrentWeek            bool   `json:"currentWeek,omitempty"`
	Mode                   string `json:"mode,omitempty"`
	ReplaceExisting        bool   `json:"replaceExisting,omitempty"`
	IncludeSecondaryThemes bool   `json:"includeSecondaryThemes,omitempty"`
}

// PlanDay is one day of the summary's week plan.
type PlanDay struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Facet   string `json:"facet"`
	Theme   string `json:"theme"`
	Source  string `json:"source"`
}

// Counts tallies a run. Partial failure shows as Failed > 0.
type Counts struct {
	Slots         int   `json:"slots"`
	Saved         int   `json:"saved"`
	Failed        int   `json:"failed"`
	Fallbacks     int   `json:"fallbacks"`
	Collisions    int   `json:"collisions"`
	Regenerations int   `json:"regenerations"`
	VideoScripts  int   `json:"videoScripts"`
	VideoJobs     int   `json:"videoJobs"`
	VideoSkipped  int   `json:"videoSkipped"`
	Groups        int   `json:"groups"`
	DeletedPosts  int64 `json:"deletedPosts"`
}

// Summary is the structured result of a run.
type Summary struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	RunID     string    `json:"runId"`
	Mode      string    `json:"mode"`
	Theme     string    `json:"theme"`
	WeekStart string    `json:"weekStart"`
	WeekRange string    `json:"weekRange"`
	WeekPlan  []PlanDay `json:"weekPlan"`
	SavedIDs  []int64   `json:"savedIds"`
	Counts    Counts    `json:"counts"`
}

// Run executes one batch. Only invalid requests and failures that prevent
// planning the week return an error; per-slot problems are logged and
// counted.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := o.now()
	runID := uuid.NewString()
	mode := req.Mode
	if mode == "" {
		mode = o.opts.DefaultMode
	}
	sum := Summary{RunID: runID, Mode: mode, SavedIDs: []int64{}}

	gen, ok := o.opts.Generators[mode]
	if !ok {
		err := fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, mode)
		return o.fail(sum, mode, started, err)
	}
	week, err := weekplan.ResolveWeek(req.WeekStart, req.CurrentWeek, started)
	if err != nil {
		return o.fail(sum, mode, started, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}
	sum.WeekStart = week.StartKey()
	sum.WeekRange = week.Range()

	unlock := o.lockWeek(week.StartKey())
	defer unlock()

	log := o.log.WithFields(logrus.Fields{
		"run_id":     runID,
		"week_start": week.StartKey(),
		"mode":       mode,
	})
	r := o.newRun(log, week, gen, &sum)

	forced := -1
	if req.ReplaceExisting {
		forced, err = r.replace(ctx)
		if err != nil {
			return o.fail(sum, mode, started, err)
		}
	}

	plan, err := r.selectPlan(ctx, forced)
	if err != nil {
		return o.fail(sum, mode, started, err)
	}
	sum.Theme = plan.Theme.Name

	days := plan.Days
	if req.CurrentWeek && week.Contains(started) {
		days = weekplan.FilterFrom(days, weekplan.Offset(started))
	}
	for _, d := range days {
		sum.WeekPlan = append(sum.WeekPlan, PlanDay{
			Date:    d.DateKey(),
			Weekday: d.Date.Weekday().String(),
			Facet:   d.Topic(),
			Theme:   d.ThemeName(),
			Source:  string(d.Source),
		})
	}

	r.loadCategories(ctx, plan)
	slots := weekplan.Slots(days, weekplan.SlotOptions{IncludeSecondary: req.IncludeSecondaryThemes})
	sum.Counts.Slots = len(slots)
	r.totalParts = len(days)
	for i, d := range days {
		r.parts[d.DateKey()] = i + 1
	}
	for _, slot := range slots {
		r.generateSlot(ctx, plan, slot)
	}

	if err := r.group(ctx); err != nil {
		log.WithError(err).Warn("grouping pass failed")
	}

	sum.Success = true
	sum.Message = fmt.Sprintf("saved %d of %d posts for %s (%s)", sum.Counts.Saved, sum.Counts.Slots, sum.Theme, sum.WeekRange)
	log.WithFields(logrus.Fields{
		"theme":     sum.Theme,
		"saved":     sum.Counts.Saved,
		"failed":    sum.Counts.Failed,
		"fallbacks": sum.Counts.Fallbacks,
	}).Info("weekly batch complete")
	o.opts.Metrics.ObserveRun(mode, true, o.now().Sub(started))
	return sum, nil
}

func (o *Orchestrator) newRun(log logrus.FieldLogger, week weekplan.Week, gen generate.Generator, sum *Summary) *run {
	return &run{
		o:        o,
		log:      log,
		week:     week,
		resolver: generate.CopyResolver{Generator: gen, Validator: o.opts.Validator, Fallback: o.opts.Fallback},
		window:   novelty.NewWindow(o.opts.Novelty),
		intents:  weekplan.NewIntentRotation(),
		scripts:  make(map[string]scriptState),
		parts:    make(map[string]int),
		reuse:    newPriorPicks(),
		summary:  sum,
	}
}

func (o *Orchestrator) fail(sum Summary, mode string, started time.Time, err error) (Summary, error) {
	sum.Success = false
	sum.Message = err.Error()
	o.opts.Metrics.ObserveRun(mode, false, o.now().Sub(started))
	return sum, err
}

func (o *Orchestrator) lockWeek(weekStart string) func() {
	v, _ := o.locks.LoadOrStore(weekStart, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
