package orchestrator

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/orbitplan/internal/catalog"
	"github.com/ppiankov/orbitplan/internal/generate"
	"github.com/ppiankov/orbitplan/internal/scoring"
	"github.com/ppiankov/orbitplan/internal/store"
	"github.com/ppiankov/orbitplan/internal/weekplan"
)

// scriptState is the per-date video script outcome of this run.
type scriptState struct {
	script  store.VideoScript
	ready   bool
	skipped bool
}

// videoSlot makes sure the day's script and job exist, then writes the
// caption post for the slot's video platform.
func (r *run) videoSlot(ctx context.Context, plan weekplan.Plan, slot weekplan.Slot) {
	state := r.ensureScript(ctx, plan, slot.Day)
	if state.skipped {
		r.summary.Counts.VideoSkipped++
		return
	}
	if !state.ready {
		r.failed(slot)
		return
	}

	day := slot.Day
	base := r.base(slot, day.Topic(), day.ThemeName(), day.Category(), day.Facet)
	pack := generate.VideoCaption{
		Base:       base,
		Hook:       state.script.HookText,
		Part:       state.script.PartNumber,
		TotalParts: state.script.TotalParts,
	}
	c := r.produce(ctx, pack)
	r.save(ctx, slot, store.PostInput{
		Content:         c.Content,
		Platform:        slot.Platform,
		PostType:        string(slot.PostType),
		Topic:           day.Topic(),
		ThemeName:       day.ThemeName(),
		ScheduledDate:   day.DateKey(),
		ScheduledTime:   slot.Time,
		ContentCategory: state.script.ContentCategory,
		Hashtags:        c.Hashtags,
		SourceType:      SourceVideo,
		SourceID:        state.script.FacetTitle,
		SourceTitle:     state.script.HookText,
	})
}

// ensureScript generates or refreshes the script for day once per run. A
// date whose script already has a rendered video is skipped.
func (r *run) ensureScript(ctx context.Context, plan weekplan.Plan, day weekplan.Day) scriptState {
	key := day.DateKey()
	if st, ok := r.scripts[key]; ok {
		return st
	}
	st := r.buildScript(ctx, plan, day)
	r.scripts[key] = st
	return st
}

func (r *run) buildScript(ctx context.Context, plan weekplan.Plan, day weekplan.Day) scriptState {
	st := r.o.opts.Store
	log := r.log.WithFields(logrus.Fields{"date": day.DateKey(), "topic": day.Topic()})

	existing, err := st.VideoScriptFor(ctx, day.Topic(), day.DateKey())
	switch {
	case err == nil && existing.VideoURL != "":
		log.WithField("video_url", existing.VideoURL).Info("video already rendered, skipping")
		return scriptState{script: existing, skipped: true}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		log.WithError(err).Warn("load video script failed")
	}

	angle, err := r.angleFor(ctx, day)
	if err != nil {
		log.WithError(err).Warn("angle lookup failed, using first angle")
		angle = catalog.Angles[0]
	}
	category := r.pickCategory(plan, day)

	pack := generate.VideoScript{
		Base: generate.Base{
			Platform:  weekplan.TikTok,
			Date:      day.DateKey(),
			Topic:     day.Topic(),
			ThemeName: day.ThemeName(),
			Category:  day.Category(),
			Facet:     day.Facet,
		},
		Angle:           angle,
		Aspect:          catalog.AspectForAngle(angle),
		ContentCategory: category,
		Part:            r.parts[day.DateKey()],
		TotalParts:      r.totalParts,
	}
	c := r.resolve(ctx, pack, "", r.o.opts.MaxRetries)
	hook, body := splitScript(c.Content)

	script, err := st.UpsertVideoScript(ctx, store.VideoScriptInput{
		FacetTitle:      day.Topic(),
		ScheduledDate:   day.DateKey(),
		ThemeName:       day.ThemeName(),
		Topic:           day.Topic(),
		ContentCategory: category,
		Angle:           angle,
		Aspect:          pack.Aspect,
		HookText:        hook,
		Body:            body,
		PartNumber:      pack.Part,
		TotalParts:      pack.TotalParts,
	})
	if err != nil {
		log.WithError(err).Warn("save video script failed, video slots skipped")
		return scriptState{}
	}
	r.summary.Counts.VideoScripts++

	if err := r.o.opts.Rotation.RecordAngle(ctx, day.Topic(), angle, day.Date); err != nil {
		log.WithError(err).Warn("record angle failed")
	}

	if _, err := st.UpsertVideoJob(ctx, store.VideoJobInput{
		ScriptID:  script.ID,
		WeekStart: r.week.StartKey(),
		DateKey:   day.DateKey(),
		Topic:     day.Topic(),
	}); err != nil {
		log.WithError(err).Warn("queue video job failed")
	} else {
		r.summary.Counts.VideoJobs++
		r.o.opts.Metrics.VideoJobQueued()
	}
	return scriptState{script: script, ready: true}
}

// angleFor reuses the replaced script's angle for day, else asks rotation.
func (r *run) angleFor(ctx context.Context, day weekplan.Day) (string, error) {
	if a, ok := r.reuse.angles[angleKey(day.DateKey(), day.Topic())]; ok && slices.Contains(catalog.Angles, a) {
		return a, nil
	}
	return r.o.opts.Rotation.AngleForTopic(ctx, day.Topic(), day.Date)
}

func (r *run) pickCategory(plan weekplan.Plan, day weekplan.Day) string {
	if r.picker == nil {
		return ""
	}
	cat, ok := r.picker.Pick(scoring.SlotSeed(plan.Week.StartKey(), day.DateKey(), day.Topic()))
	if !ok {
		return ""
	}
	return cat
}

// splitScript separates the hook line from the body.
func splitScript(content string) (string, string) {
	content = strings.TrimSpace(content)
	hook, body, _ := strings.Cut(content, "\n")
	return strings.TrimSpace(hook), strings.TrimSpace(body)
}
