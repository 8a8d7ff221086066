// Package rotation picks the next theme, angle and secondary theme so that
// options repeat only after every alternative has been used.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/ppiankov/orbitplan/internal/catalog"
	"github.com/ppiankov/orbitplan/internal/store"
)

const (
	DefaultSecondaryCooldownDays = 10
	DefaultAngleHistory          = 10
)

// Store is the durable rotation state.
type Store interface {
	RotationUsage(ctx context.Context, rotationType string) ([]store.RotationUsage, error)
	RecordRotation(ctx context.Context, rotationType, itemID string, at time.Time) error
	RecentAngles(ctx context.Context, topic string, asOf time.Time, limit int) ([]store.AngleUse, error)
	InsertAngle(ctx context.Context, a store.AngleUse) error
	SecondaryUses(ctx context.Context, primaryID string) ([]store.SecondaryUse, error)
	InsertSecondaryUse(ctx context.Context, u store.SecondaryUse) error
}

// Options tunes a Tracker. Zero values take defaults.
type Options struct {
	SecondaryCooldownDays int
	AngleHistory          int
	// Rand picks an angle when a topic has no history. Defaults to a
	// time-seeded source.
	Rand *rand.Rand
}

// Tracker reads and writes rotation state for one catalog.
type Tracker struct {
	store    Store
	catalog  *catalog.Catalog
	cooldown time.Duration
	history  int
	rng      *rand.Rand
	now      func() time.Time
}

// New creates a tracker.
func New(st Store, cat *catalog.Catalog, opts Options) (*Tracker, error) {
	if st == nil {
		return nil, errors.New("rotation store is required")
	}
	if cat == nil || len(cat.Themes) == 0 {
		return nil, errors.New("catalog with at least one theme is required")
	}
	if opts.SecondaryCooldownDays <= 0 {
		opts.SecondaryCooldownDays = DefaultSecondaryCooldownDays
	}
	if opts.AngleHistory <= 0 {
		opts.AngleHistory = DefaultAngleHistory
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Tracker{
		store:    st,
		catalog:  cat,
		cooldown: time.Duration(opts.SecondaryCooldownDays) * 24 * time.Hour,
		history:  opts.AngleHistory,
		rng:      rng,
		now:      time.Now,
	}, nil
}

type usageRank struct {
	index    int
	count    int
	lastUsed time.Time
}

// less orders by count, then last use with never-used first, then index.
func (a usageRank) less(b usageRank) bool {
	if a.count != b.count {
		return a.count < b.count
	}
	if !a.lastUsed.Equal(b.lastUsed) {
		return a.lastUsed.Before(b.lastUsed)
	}
	return a.index < b.index
}

func usageMap(rows []store.RotationUsage) map[string]store.RotationUsage {
	m := make(map[string]store.RotationUsage, len(rows))
	for _, r := range rows {
		m[r.ItemID] = r
	}
	return m
}

// NextThemeIndex returns the catalog index of the least used theme.
func (t *Tracker) NextThemeIndex(ctx context.Context) (int, error) {
	rows, err := t.store.RotationUsage(ctx, store.RotationTheme)
	if err != nil {
		return 0, fmt.Errorf("load theme usage: %w", err)
	}
	usage := usageMap(rows)

	best := usageRank{index: -1}
	for i, th := range t.catalog.Themes {
		u := usage[th.ID]
		r := usageRank{index: i, count: u.UseCount, lastUsed: u.LastUsedAt}
		if best.index < 0 || r.less(best) {
			best = r
		}
	}
	return best.index, nil
}

// RecordThemeUsage marks a theme as used now.
func (t *Tracker) RecordThemeUsage(ctx context.Context, themeID string) error {
	if err := t.store.RecordRotation(ctx, store.RotationTheme, themeID, t.now()); err != nil {
		return fmt.Errorf("record theme usage: %w", err)
	}
	return nil
}

// AngleForTopic returns the first canonical angle missing from the topic's
// recent history. When all appear, the one whose latest use is oldest wins.
// With no history the angle is random.
func (t *Tracker) AngleForTopic(ctx context.Context, topic string, asOf time.Time) (string, error) {
	recent, err := t.store.RecentAngles(ctx, topic, asOf, t.history)
	if err != nil {
		return "", fmt.Errorf("load angle history: %w", err)
	}
	if len(recent) == 0 {
		return catalog.Angles[t.rng.IntN(len(catalog.Angles))], nil
	}

	latest := make(map[string]time.Time, len(recent))
	for _, a := range recent {
		if prev, ok := latest[a.Angle]; !ok || a.UsedAt.After(prev) {
			latest[a.Angle] = a.UsedAt
		}
	}
	for _, a := range catalog.Angles {
		if _, used := latest[a]; !used {
			return a, nil
		}
	}

	pick := catalog.Angles[0]
	for _, a := range catalog.Angles[1:] {
		if latest[a].Before(latest[pick]) {
			pick = a
		}
	}
	return pick, nil
}

// RecordAngle appends an angle use for topic.
func (t *Tracker) RecordAngle(ctx context.Context, topic, angle string, at time.Time) error {
	if at.IsZero() {
		at = t.now()
	}
	if err := t.store.InsertAngle(ctx, store.AngleUse{Topic: topic, Angle: angle, UsedAt: at}); err != nil {
		return fmt.Errorf("record angle: %w", err)
	}
	return nil
}

// SelectSecondaryTheme picks a theme other than the primary that has not
// been paired with it within the cooldown before date. Pairings dated after
// date are ignored. If every candidate is cooling down, the one paired
// longest ago is returned.
func (t *Tracker) SelectSecondaryTheme(ctx context.Context, primaryID string, date time.Time) (catalog.Theme, error) {
	var candidates []int
	for i, th := range t.catalog.Themes {
		if th.ID != primaryID {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return catalog.Theme{}, errors.New("no secondary theme candidates")
	}

	history, err := t.store.SecondaryUses(ctx, primaryID)
	if err != nil {
		return catalog.Theme{}, fmt.Errorf("load secondary history: %w", err)
	}
	lastPaired := make(map[string]time.Time, len(history))
	for _, h := range history {
		if h.UsedAt.After(date) {
			continue
		}
		if prev, ok := lastPaired[h.SecondaryID]; !ok || h.UsedAt.After(prev) {
			lastPaired[h.SecondaryID] = h.UsedAt
		}
	}

	cutoff := date.Add(-t.cooldown)
	var eligible []int
	for _, i := range candidates {
		last, ok := lastPaired[t.catalog.Themes[i].ID]
		if !ok || !last.After(cutoff) {
			eligible = append(eligible, i)
		}
	}

	if len(eligible) == 0 {
		sort.SliceStable(candidates, func(a, b int) bool {
			return lastPaired[t.catalog.Themes[candidates[a]].ID].Before(lastPaired[t.catalog.Themes[candidates[b]].ID])
		})
		return t.catalog.Themes[candidates[0]], nil
	}

	rows, err := t.store.RotationUsage(ctx, store.RotationSecondaryTheme)
	if err != nil {
		return catalog.Theme{}, fmt.Errorf("load secondary usage: %w", err)
	}
	usage := usageMap(rows)

	best := usageRank{index: -1}
	for _, i := range eligible {
		u := usage[t.catalog.Themes[i].ID]
		r := usageRank{index: i, count: u.UseCount, lastUsed: u.LastUsedAt}
		if best.index < 0 || r.less(best) {
			best = r
		}
	}
	return t.catalog.Themes[best.index], nil
}

// RecordSecondaryUsage pairs a secondary theme with a primary on date.
func (t *Tracker) RecordSecondaryUsage(ctx context.Context, primaryID, secondaryID string, date time.Time) error {
	if date.IsZero() {
		date = t.now()
	}
	if err := t.store.InsertSecondaryUse(ctx, store.SecondaryUse{
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
		UsedAt:      date,
	}); err != nil {
		return fmt.Errorf("record secondary usage: %w", err)
	}
	return nil
}

// ThemeUsage returns the theme usage rows in catalog order, including
// themes that were never used.
func (t *Tracker) ThemeUsage(ctx context.Context) ([]store.RotationUsage, error) {
	rows, err := t.store.RotationUsage(ctx, store.RotationTheme)
	if err != nil {
		return nil, fmt.Errorf("load theme usage: %w", err)
	}
	usage := usageMap(rows)
	out := make([]store.RotationUsage, 0, len(t.catalog.Themes))
	for _, th := range t.catalog.Themes {
		u, ok := usage[th.ID]
		if !ok {
			u = store.RotationUsage{Type: store.RotationTheme, ItemID: th.ID}
		}
		out = append(out, u)
	}
	return out, nil
}
