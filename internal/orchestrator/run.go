package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/orbitplan/internal/catalog"
	"github.com/ppiankov/orbitplan/internal/generate"
	"github.com/ppiankov/orbitplan/internal/novelty"
	"github.com/ppiankov/orbitplan/internal/scoring"
	"github.com/ppiankov/orbitplan/internal/store"
	"github.com/ppiankov/orbitplan/internal/weekplan"
)

// Post source types.
const (
	SourceTheme     = "theme"
	SourceSabbat    = "sabbat"
	SourceSecondary = "secondary"
	SourceClosing   = "closing"
	SourceVideo     = "video_script"
)

const closingTopic = "Sunday Closing Ritual"

var closingTags = catalog.Hashtags{Domain: "#closingritual", Topic: "#sundaypause", Third: "#lunarbreath"}

// run is the state of one invocation. The novelty window and intent
// rotation live only here.
type run struct {
	o        *Orchestrator
	log      logrus.FieldLogger
	week     weekplan.Week
	resolver generate.CopyResolver
	window   *novelty.Window
	intents  *weekplan.IntentRotation
	summary  *Summary

	picker     *scoring.WeeklyPicker
	scripts    map[string]scriptState
	parts      map[string]int
	totalParts int
	reuse      priorPicks
}

// priorPicks holds the secondary themes and video angles of a week that is
// being replaced, so the rerun makes the same choices.
type priorPicks struct {
	secondary map[string]string // date -> secondary theme id
	angles    map[string]string // date|topic -> angle
}

func newPriorPicks() priorPicks {
	return priorPicks{secondary: make(map[string]string), angles: make(map[string]string)}
}

func angleKey(date, topic string) string { return date + "|" + topic }

// replace captures the week's theme and clears the window. It returns the
// forced theme index or -1.
func (r *run) replace(ctx context.Context) (int, error) {
	st := r.o.opts.Store
	forced := -1
	name, err := st.WeekThemeName(ctx, r.week.StartKey(), r.week.EndKey())
	switch {
	case err == nil:
		forced = r.o.opts.Catalog.ThemeIndexByName(name)
		if forced < 0 {
			r.log.WithField("theme", name).Warn("existing theme not in catalog, rotating")
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return -1, fmt.Errorf("capture week theme: %w", err)
	}

	r.capturePicks(ctx)

	del, err := st.DeleteWeek(ctx, r.week.StartKey(), r.week.EndKey())
	if err != nil {
		return -1, fmt.Errorf("clear week: %w", err)
	}
	r.summary.Counts.DeletedPosts = del.Posts
	r.log.WithFields(logrus.Fields{
		"posts":          del.Posts,
		"scripts":        del.Scripts,
		"jobs":           del.Jobs,
		"angle_uses":     del.AngleUses,
		"secondary_uses": del.SecondaryUses,
	}).Info("cleared existing week")
	return forced, nil
}

// capturePicks records the week's secondary themes and script angles before
// they are deleted. Lookup failures only cost the reuse.
func (r *run) capturePicks(ctx context.Context) {
	st := r.o.opts.Store
	start, end := r.week.StartKey(), r.week.EndKey()

	posts, err := st.PostsInRange(ctx, start, end)
	if err != nil {
		r.log.WithError(err).Warn("load existing posts failed, secondary themes reselected")
	}
	for _, p := range posts {
		if p.SourceType == SourceSecondary && p.SourceID != "" {
			if _, seen := r.reuse.secondary[p.ScheduledDate]; !seen {
				r.reuse.secondary[p.ScheduledDate] = p.SourceID
			}
		}
	}

	scripts, err := st.VideoScriptsInRange(ctx, start, end)
	if err != nil {
		r.log.WithError(err).Warn("load existing scripts failed, angles reselected")
	}
	for _, vs := range scripts {
		if vs.Angle != "" {
			r.reuse.angles[angleKey(vs.ScheduledDate, vs.FacetTitle)] = vs.Angle
		}
	}
}

// secondaryTheme returns the replaced week's pick for day when it is still
// valid, else asks rotation.
func (r *run) secondaryTheme(ctx context.Context, plan weekplan.Plan, day weekplan.Day) (catalog.Theme, error) {
	if id, ok := r.reuse.secondary[day.DateKey()]; ok && id != plan.Theme.ID {
		if th, ok := r.o.opts.Catalog.ThemeByID(id); ok {
			return th, nil
		}
	}
	return r.o.opts.Rotation.SelectSecondaryTheme(ctx, plan.Theme.ID, day.Date)
}

// selectPlan picks the theme through rotation unless forced and builds the
// day plan.
func (r *run) selectPlan(ctx context.Context, forced int) (weekplan.Plan, error) {
	cat := r.o.opts.Catalog
	if forced >= 0 {
		return weekplan.Build(cat, r.week, forced), nil
	}
	idx, err := r.o.opts.Rotation.NextThemeIndex(ctx)
	if err != nil {
		return weekplan.Plan{}, fmt.Errorf("select theme: %w", err)
	}
	plan := weekplan.Build(cat, r.week, idx)
	if err := r.o.opts.Rotation.RecordThemeUsage(ctx, plan.Theme.ID); err != nil {
		r.log.WithError(err).Warn("record theme usage failed")
	}
	return plan, nil
}

// loadCategories sets up the weekly category picker for video scripts.
func (r *run) loadCategories(ctx context.Context, plan weekplan.Plan) {
	sc := r.o.opts.Scorer
	if sc == nil {
		return
	}
	scores, err := sc.ContentTypeWeights(ctx, r.o.opts.WindowDays)
	if err != nil {
		r.log.WithError(err).Warn("content weights unavailable, scripts carry no category")
		return
	}
	suppressed, err := sc.SuppressedCategories(ctx, r.o.opts.WindowDays)
	if err != nil {
		r.log.WithError(err).Warn("suppressed categories unavailable")
	}
	r.picker = scoring.NewWeeklyPicker(scores, sc.Seeds(), suppressed)
	r.o.opts.Metrics.SetWeights(scoring.Weights(scores))
}

func (r *run) generateSlot(ctx context.Context, plan weekplan.Plan, slot weekplan.Slot) {
	if slot.PostType == weekplan.PostVideo {
		r.videoSlot(ctx, plan, slot)
		return
	}

	day := slot.Day
	in, pack, ok := r.textPack(ctx, plan, slot)
	if !ok {
		return
	}
	c := r.produce(ctx, pack)
	in.Content = c.Content
	in.Hashtags = c.Hashtags
	if r.save(ctx, slot, in) && slot.PostType == weekplan.PostSecondary {
		if err := r.o.opts.Rotation.RecordSecondaryUsage(ctx, plan.Theme.ID, in.SourceID, day.Date); err != nil {
			r.slotLog(slot).WithError(err).Warn("record secondary usage failed")
		}
	}
}

// textPack builds the post skeleton and source pack for a text slot.
func (r *run) textPack(ctx context.Context, plan weekplan.Plan, slot weekplan.Slot) (store.PostInput, generate.Pack, bool) {
	day := slot.Day
	in := store.PostInput{
		Platform:      slot.Platform,
		PostType:      string(slot.PostType),
		Topic:         day.Topic(),
		ThemeName:     day.ThemeName(),
		ScheduledDate: day.DateKey(),
		ScheduledTime: slot.Time,
		SourceType:    SourceTheme,
		SourceID:      plan.Theme.ID,
		SourceTitle:   day.Facet.GrimoireSlug,
	}
	if day.Source == weekplan.SourceSabbat {
		in.SourceType = SourceSabbat
		in.SourceID = day.LeadUp.Sabbat.ID
	}
	base := r.base(slot, day.Topic(), day.ThemeName(), day.Category(), day.Facet)

	switch slot.PostType {
	case weekplan.PostEducational:
		opening := r.opening(ctx, base)
		return in, generate.EducationalIntro{Base: base, LongForm: weekplan.IsLongForm(slot.Platform), Opening: opening}, true

	case weekplan.PostQuestion:
		q := generate.Question{Base: base}
		if len(day.Facet.Threads) > 0 {
			q.Thread = day.Facet.Threads[0]
		}
		return in, q, true

	case weekplan.PostSabbat:
		sb := day.LeadUp.Sabbat
		in.SourceType = SourceSabbat
		in.SourceID = sb.ID
		return in, generate.SabbatCrossPost{Base: base, Sabbat: sb}, true

	case weekplan.PostSecondary:
		sec, err := r.secondaryTheme(ctx, plan, day)
		if err != nil || len(sec.Facets) == 0 {
			r.slotLog(slot).WithError(err).Warn("no secondary theme, slot skipped")
			r.failed(slot)
			return in, nil, false
		}
		facet := sec.Facets[day.Offset%len(sec.Facets)]
		in.Topic = facet.Title
		in.ThemeName = sec.Name
		in.SourceType = SourceSecondary
		in.SourceID = sec.ID
		in.SourceTitle = facet.GrimoireSlug
		b := r.base(slot, facet.Title, sec.Name, sec.Category, facet)
		return in, generate.SecondaryTheme{Base: b, PrimaryTheme: plan.Theme.Name}, true

	case weekplan.PostClosingRitual:
		in.Topic = closingTopic
		in.ThemeName = plan.Theme.Name
		in.SourceType = SourceClosing
		in.SourceTitle = ""
		b := r.base(slot, closingTopic, plan.Theme.Name, plan.Theme.Category, day.Facet)
		b.Topic = ""
		b.Hashtags = closingTags.ForPlatform(slot.Platform)
		var topics []string
		for _, d := range r.summary.WeekPlan {
			topics = append(topics, d.Facet)
		}
		return in, generate.ClosingRitual{Base: b, LongForm: weekplan.IsLongForm(slot.Platform), WeekTopics: topics}, true
	}

	r.slotLog(slot).Warn("unknown post type, slot skipped")
	return in, nil, false
}

func (r *run) base(slot weekplan.Slot, topic, themeName string, category catalog.Category, facet catalog.Facet) generate.Base {
	date := slot.Day.DateKey()
	return generate.Base{
		Platform:  slot.Platform,
		Date:      date,
		Topic:     topic,
		ThemeName: themeName,
		Category:  category,
		Facet:     facet,
		Hashtags:  catalog.HashtagsFor(category, facet.Title).ForPlatform(slot.Platform),
		Avoid:     r.window.Avoid(date, slot.Platform, themeName),
	}
}

// opening asks for a distinguishing first line using the topic's next
// opening intent.
func (r *run) opening(ctx context.Context, base generate.Base) string {
	intent := r.intents.Next(base.Topic)
	c := r.resolve(ctx, generate.OpeningLine{Base: base, Intent: intent}, "", r.o.opts.MaxRetries)
	return strings.TrimSpace(c.Content)
}

// produce resolves copy for pack and applies the novelty guard: one
// regeneration on collision, then accept.
func (r *run) produce(ctx context.Context, pack generate.Pack) generate.Copy {
	base := pack.Common()
	c := r.resolve(ctx, pack, "", r.o.opts.MaxRetries)

	verdict := r.window.Check(base.Date, base.Platform, c.Content)
	if verdict.Collides {
		r.summary.Counts.Collisions++
		r.summary.Counts.Regenerations++
		r.o.opts.Metrics.Collision(base.Platform)
		r.log.WithFields(logrus.Fields{
			"platform":   base.Platform,
			"date":       base.Date,
			"topic":      base.Topic,
			"similarity": verdict.MaxSimilarity,
		}).Debug("novelty collision, regenerating")

		retry := generate.WithVariant(pack, base.Variant+1)
		c = r.resolve(ctx, retry, novelty.CollisionInstruction(verdict.AvoidBigrams), 0)
	}
	r.window.Accept(base.Date, base.Platform, base.ThemeName, c.Content)
	return c
}

func (r *run) resolve(ctx context.Context, pack generate.Pack, extra string, retries int) generate.Copy {
	c, out := r.resolver.Resolve(ctx, pack, extra, retries)
	if out.Fallback {
		r.summary.Counts.Fallbacks++
		r.o.opts.Metrics.Fallback(pack.Kind())
		entry := r.log.WithFields(logrus.Fields{
			"kind":     pack.Kind(),
			"platform": pack.Common().Platform,
			"date":     pack.Common().Date,
			"topic":    pack.Common().Topic,
			"attempts": out.Attempts,
		})
		if out.Err != nil {
			entry = entry.WithError(out.Err)
		}
		if len(out.Issues) > 0 {
			entry = entry.WithField("issues", strings.Join(out.Issues, "; "))
		}
		entry.Info("using template copy")
	}
	return c
}

func (r *run) save(ctx context.Context, slot weekplan.Slot, in store.PostInput) bool {
	post, err := r.o.opts.Store.InsertPost(ctx, in)
	if err != nil {
		r.slotLog(slot).WithError(err).Warn("save post failed, slot skipped")
		r.failed(slot)
		return false
	}
	r.summary.Counts.Saved++
	r.summary.SavedIDs = append(r.summary.SavedIDs, post.ID)
	r.o.opts.Metrics.PostSaved(slot.Platform, string(slot.PostType))
	return true
}

func (r *run) failed(slot weekplan.Slot) {
	r.summary.Counts.Failed++
	r.o.opts.Metrics.SlotFailed(slot.Platform, string(slot.PostType))
}

func (r *run) slotLog(slot weekplan.Slot) logrus.FieldLogger {
	return r.log.WithFields(logrus.Fields{
		"platform":  slot.Platform,
		"post_type": string(slot.PostType),
		"date":      slot.Day.DateKey(),
		"topic":     slot.Day.Topic(),
	})
}
