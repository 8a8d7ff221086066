package weekplan

import "time"

// Platforms.
const (
	LinkedIn  = "linkedin"
	Pinterest = "pinterest"
	Facebook  = "facebook"
	Twitter   = "twitter"
	Bluesky   = "bluesky"
	Threads   = "threads"
	TikTok    = "tiktok"
	Instagram = "instagram"
	YouTube   = "youtube"
)

var (
	LongForm  = []string{LinkedIn, Pinterest, Facebook}
	ShortForm = []string{Twitter, Bluesky, Threads}
	Video     = []string{TikTok, Instagram, YouTube}
)

// TextPlatforms returns long-form then short-form platforms.
func TextPlatforms() []string {
	out := make([]string, 0, len(LongForm)+len(ShortForm))
	out = append(out, LongForm...)
	return append(out, ShortForm...)
}

// IsLongForm reports whether platform takes long-form copy.
func IsLongForm(platform string) bool {
	for _, p := range LongForm {
		if p == platform {
			return true
		}
	}
	return false
}

// PostType is the kind of post a slot produces.
type PostType string

const (
	PostEducational   PostType = "educational"
	PostQuestion      PostType = "question"
	PostClosingRitual PostType = "closing_ritual"
	PostSabbat        PostType = "sabbat_crosspost"
	PostSecondary     PostType = "secondary_educational"
	PostVideo         PostType = "video"
)

var educationalTimes = map[string]string{
	LinkedIn:  "09:00",
	Pinterest: "10:00",
	Facebook:  "11:00",
	Twitter:   "12:00",
	Bluesky:   "13:00",
	Threads:   "14:00",
}

var videoTimes = map[string]string{
	TikTok:    "18:00",
	Instagram: "19:00",
	YouTube:   "19:30",
}

const (
	sabbatTime    = "08:00"
	secondaryTime = "15:00"
	questionTime  = "17:00"
	closingTime   = "20:00"
)

// Slot is one (day, platform, post type) unit of generation.
type Slot struct {
	Day      Day
	Platform string
	PostType PostType
	Time     string
}

// SlotOptions toggles optional slots.
type SlotOptions struct {
	IncludeSecondary bool
}

// Slots lays out the week's slots in day order. Within a day the order is
// sabbat cross-posts, educational posts, questions, secondary posts, video
// posts and finally the Sunday closing ritual.
func Slots(days []Day, opts SlotOptions) []Slot {
	var out []Slot
	for _, d := range days {
		if d.SabbatDay {
			for _, p := range LongForm {
				out = append(out, Slot{Day: d, Platform: p, PostType: PostSabbat, Time: sabbatTime})
			}
		}
		for _, p := range TextPlatforms() {
			out = append(out, Slot{Day: d, Platform: p, PostType: PostEducational, Time: educationalTimes[p]})
		}
		if wd := d.Date.Weekday(); wd == time.Wednesday || wd == time.Saturday {
			out = append(out, Slot{Day: d, Platform: Threads, PostType: PostQuestion, Time: questionTime})
		}
		if opts.IncludeSecondary {
			out = append(out, Slot{Day: d, Platform: Twitter, PostType: PostSecondary, Time: secondaryTime})
		}
		for _, p := range Video {
			out = append(out, Slot{Day: d, Platform: p, PostType: PostVideo, Time: videoTimes[p]})
		}
		if d.Date.Weekday() == time.Sunday {
			for _, p := range TextPlatforms() {
				out = append(out, Slot{Day: d, Platform: p, PostType: PostClosingRitual, Time: closingTime})
			}
		}
	}
	return out
}
