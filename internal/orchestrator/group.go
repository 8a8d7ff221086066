package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/orbitplan/internal/store"
)

// Group is a set of platform variants of one conceptual post.
type Group struct {
	Key     string
	BaseID  int64
	PostIDs []int64
}

// GroupKey joins date, post type, topic and theme.
func GroupKey(p store.Post) string {
	return strings.Join([]string{p.ScheduledDate, p.PostType, p.Topic, p.ThemeName}, "|")
}

// GroupPosts groups posts by GroupKey. The base of each group is its lowest
// id. Groups are ordered by base id.
func GroupPosts(posts []store.Post) []Group {
	byKey := make(map[string]*Group)
	var order []string
	for _, p := range posts {
		key := GroupKey(p)
		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, BaseID: p.ID}
			byKey[key] = g
			order = append(order, key)
		}
		if p.ID < g.BaseID {
			g.BaseID = p.ID
		}
		g.PostIDs = append(g.PostIDs, p.ID)
	}

	out := make([]Group, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		sort.Slice(g.PostIDs, func(i, j int) bool { return g.PostIDs[i] < g.PostIDs[j] })
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BaseID < out[j].BaseID })
	return out
}

// group backfills base_group_key and base_post_id for the week.
func (r *run) group(ctx context.Context) error {
	st := r.o.opts.Store
	posts, err := st.PostsInRange(ctx, r.week.StartKey(), r.week.EndKey())
	if err != nil {
		return fmt.Errorf("load week posts: %w", err)
	}
	groups := GroupPosts(posts)
	for _, g := range groups {
		for _, id := range g.PostIDs {
			if err := st.SetPostGroup(ctx, id, g.Key, g.BaseID); err != nil {
				r.log.WithError(err).WithField("post_id", id).Warn("set post group failed")
			}
		}
	}
	r.summary.Counts.Groups = len(groups)
	return nil
}
