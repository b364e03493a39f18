// Package stats records usage of the render service: how many videos were
// produced and downloaded, by whom and when.
//
// Three [Store] backends share one data model: [FileStore] keeps a JSON file,
// [RedisStore] and [MongoStore] let several server instances share counters.
// Recording is best-effort; use [Record] from request handlers so a failing
// backend is logged and never fails the request.
package stats

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/overlay3d/pkg/observability"
)

// Action labels stored with each activity.
const (
	ActionVideo    = "Video Oluşturuldu"
	ActionDownload = "Video İndirildi"
)

// Defaults for anonymous activity.
const (
	AnonymousName = "Anonim"
	UnknownIP     = "unknown"
)

// MaxActivities bounds the activity log.
const MaxActivities = 100

// Kind selects which counter an event increments.
type Kind int

const (
	KindVideo Kind = iota
	KindDownload
)

// Action returns the activity label for k.
func (k Kind) Action() string {
	if k == KindDownload {
		return ActionDownload
	}
	return ActionVideo
}

// Activity is one recorded event.
type Activity struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	IP        string    `json:"ip" bson:"ip"`
	Name      string    `json:"name" bson:"name"`
	Action    string    `json:"action" bson:"action"`
}

// Stats is the full record.
type Stats struct {
	TotalVideos    int64            `json:"totalVideos" bson:"totalVideos"`
	TotalDownloads int64            `json:"totalDownloads" bson:"totalDownloads"`
	UniqueIPs      []string         `json:"uniqueIPs" bson:"uniqueIPs"`
	Names          map[string]int64 `json:"names" bson:"-"`
	Activities     []Activity       `json:"activities" bson:"activities"`
	HourlyStats    map[string]int64 `json:"hourlyStats" bson:"hourlyStats"`
	DailyStats     map[string]int64 `json:"dailyStats" bson:"dailyStats"`
}

// Empty returns a Stats with initialized collections.
func Empty() Stats {
	return Stats{
		UniqueIPs:   []string{},
		Names:       map[string]int64{},
		Activities:  []Activity{},
		HourlyStats: map[string]int64{},
		DailyStats:  map[string]int64{},
	}
}

// normalize fills nil collections so partially stored records behave like Empty.
func (s *Stats) normalize() {
	if s.UniqueIPs == nil {
		s.UniqueIPs = []string{}
	}
	if s.Names == nil {
		s.Names = map[string]int64{}
	}
	if s.Activities == nil {
		s.Activities = []Activity{}
	}
	if s.HourlyStats == nil {
		s.HourlyStats = map[string]int64{}
	}
	if s.DailyStats == nil {
		s.DailyStats = map[string]int64{}
	}
}

// Store persists stats.
type Store interface {
	// AddVideo records a produced video.
	AddVideo(ctx context.Context, ip, name string) error
	// AddDownload records a downloaded video.
	AddDownload(ctx context.Context, ip, name string) error
	// Snapshot returns the current record.
	Snapshot(ctx context.Context) (Stats, error)
	// Close releases backend resources.
	Close() error
}

// event is a normalized activity with its bucket keys.
type event struct {
	kind Kind
	act  Activity
	hour string
	day  string
}

func newEvent(kind Kind, now time.Time, ip, name string) event {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = UnknownIP
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = AnonymousName
	}
	return event{
		kind: kind,
		act:  Activity{Timestamp: now.UTC(), IP: ip, Name: name, Action: kind.Action()},
		hour: strconv.Itoa(now.Hour()),
		day:  now.UTC().Format(time.DateOnly),
	}
}

// apply adds e to s in memory. Names and time buckets count produced videos.
func (s *Stats) apply(e event) {
	s.normalize()
	switch e.kind {
	case KindVideo:
		s.TotalVideos++
		s.Names[e.act.Name]++
		s.HourlyStats[e.hour]++
		s.DailyStats[e.day]++
	case KindDownload:
		s.TotalDownloads++
	}
	if e.act.IP != UnknownIP && !slices.Contains(s.UniqueIPs, e.act.IP) {
		s.UniqueIPs = append(s.UniqueIPs, e.act.IP)
	}
	s.Activities = append(s.Activities, e.act)
	if over := len(s.Activities) - MaxActivities; over > 0 {
		s.Activities = slices.Delete(s.Activities, 0, over)
	}
}

// NameCount is one entry of Summary.TopNames.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Bucket is one hourly or daily counter.
type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Summary is the public view returned by the API.
type Summary struct {
	TotalVideos    int64       `json:"totalVideos"`
	TotalDownloads int64       `json:"totalDownloads"`
	UniqueIPs      int         `json:"uniqueIPs"`
	TopNames       []NameCount `json:"topNames"`
	RecentActivity []Activity  `json:"recentActivity"`
	HourlyStats    []Bucket    `json:"hourlyStats"`
	DailyStats     []Bucket    `json:"dailyStats"`
}

// Summarize sorts names by count and returns the newest activities first.
// topN and recent limit the lists; zero or less means no limit.
func Summarize(s Stats, topN, recent int) Summary {
	s.normalize()
	sum := Summary{
		TotalVideos:    s.TotalVideos,
		TotalDownloads: s.TotalDownloads,
		UniqueIPs:      len(s.UniqueIPs),
		TopNames:       []NameCount{},
		RecentActivity: []Activity{},
	}
	for name, n := range s.Names {
		sum.TopNames = append(sum.TopNames, NameCount{Name: name, Count: n})
	}
	slices.SortFunc(sum.TopNames, func(a, b NameCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	if topN > 0 && len(sum.TopNames) > topN {
		sum.TopNames = sum.TopNames[:topN]
	}

	for i := len(s.Activities) - 1; i >= 0; i-- {
		if recent > 0 && len(sum.RecentActivity) == recent {
			break
		}
		sum.RecentActivity = append(sum.RecentActivity, s.Activities[i])
	}

	sum.HourlyStats = buckets(s.HourlyStats, func(a, b string) int {
		x, _ := strconv.Atoi(a)
		y, _ := strconv.Atoi(b)
		return cmp.Compare(x, y)
	})
	sum.DailyStats = buckets(s.DailyStats, strings.Compare)
	return sum
}

func buckets(m map[string]int64, less func(a, b string) int) []Bucket {
	out := make([]Bucket, 0, len(m))
	for k, n := range m {
		out = append(out, Bucket{Key: k, Count: n})
	}
	slices.SortFunc(out, func(a, b Bucket) int { return less(a.Key, b.Key) })
	return out
}

// Record adds an event and logs a failure instead of returning it.
func Record(ctx context.Context, store Store, logger *log.Logger, kind Kind, ip, name string) {
	if store == nil {
		return
	}
	var err error
	switch kind {
	case KindDownload:
		err = store.AddDownload(ctx, ip, name)
	default:
		err = store.AddVideo(ctx, ip, name)
	}
	observability.Stats().OnRecord(ctx, kind.Action(), err)
	if err != nil && logger != nil {
		logger.Warn("stats not recorded", "action", kind.Action(), "err", err)
	}
}
