package stats

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "stats.json"))
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestFileStoreAddVideo(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	must(t, s.AddVideo(ctx, "1.2.3.4", "Ayşe"))
	must(t, s.AddVideo(ctx, "1.2.3.4", ""))
	must(t, s.AddDownload(ctx, "5.6.7.8", "Ayşe"))

	st, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalVideos != 2 || st.TotalDownloads != 1 {
		t.Errorf("totals = %d/%d", st.TotalVideos, st.TotalDownloads)
	}
	if len(st.UniqueIPs) != 2 {
		t.Errorf("UniqueIPs = %v", st.UniqueIPs)
	}
	if st.Names["Ayşe"] != 1 || st.Names[AnonymousName] != 1 {
		t.Errorf("Names = %v", st.Names)
	}
	if st.HourlyStats["15"] != 2 || st.DailyStats["2026-03-14"] != 2 {
		t.Errorf("buckets = %v %v", st.HourlyStats, st.DailyStats)
	}
	if len(st.Activities) != 3 || st.Activities[2].Action != ActionDownload || st.Activities[1].Name != AnonymousName {
		t.Errorf("Activities = %+v", st.Activities)
	}
}

func TestFileStoreUnknownIP(t *testing.T) {
	s := newFileStore(t)
	must(t, s.AddVideo(context.Background(), " ", "x"))
	st, _ := s.Snapshot(context.Background())
	if len(st.UniqueIPs) != 0 || st.Activities[0].IP != UnknownIP {
		t.Errorf("unknown ip recorded: %+v", st)
	}
}

func TestFileStoreActivityCap(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)
	for i := range MaxActivities + 5 {
		must(t, s.AddVideo(ctx, "ip", fmt.Sprint("n", i)))
	}
	st, _ := s.Snapshot(ctx)
	if len(st.Activities) != MaxActivities {
		t.Fatalf("activities = %d", len(st.Activities))
	}
	if st.Activities[0].Name != "n5" {
		t.Errorf("oldest kept = %q, want n5", st.Activities[0].Name)
	}
}

func TestFileStoreMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	st, err := s.Snapshot(ctx)
	if err != nil || st.TotalVideos != 0 || st.Names == nil {
		t.Errorf("missing file snapshot = %+v, %v", st, err)
	}

	if err := os.WriteFile(s.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	st, err = s.Snapshot(ctx)
	if err != nil || st.TotalVideos != 0 {
		t.Errorf("corrupt file snapshot = %+v, %v", st, err)
	}
	must(t, s.AddVideo(ctx, "ip", "a"))
	st, _ = s.Snapshot(ctx)
	if st.TotalVideos != 1 {
		t.Error("corrupt file should be replaced on write")
	}

	// Partial records keep their values and gain empty collections.
	if err := os.WriteFile(s.Path(), []byte(`{"totalVideos": 7}`), 0644); err != nil {
		t.Fatal(err)
	}
	st, _ = s.Snapshot(ctx)
	if st.TotalVideos != 7 || st.DailyStats == nil {
		t.Errorf("partial = %+v", st)
	}
}

func TestSummarize(t *testing.T) {
	st := Empty()
	for _, name := range []string{"b", "a", "b", "c", "b", "a"} {
		st.apply(newEvent(KindVideo, fixedNow, "ip-"+name, name))
	}
	st.HourlyStats["9"] = 1
	st.HourlyStats["10"] = 1

	sum := Summarize(st, 2, 3)
	if sum.TotalVideos != 6 || sum.UniqueIPs != 3 {
		t.Errorf("sum = %+v", sum)
	}
	want := []NameCount{{"b", 3}, {"a", 2}}
	if len(sum.TopNames) != 2 || sum.TopNames[0] != want[0] || sum.TopNames[1] != want[1] {
		t.Errorf("TopNames = %v", sum.TopNames)
	}
	if len(sum.RecentActivity) != 3 || sum.RecentActivity[0].Name != "a" {
		t.Errorf("RecentActivity = %+v", sum.RecentActivity)
	}
	keys := make([]string, len(sum.HourlyStats))
	for i, b := range sum.HourlyStats {
		keys[i] = b.Key
	}
	if strings.Join(keys, ",") != "9,10,15" {
		t.Errorf("hourly order = %v", keys)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(Stats{}, 10, 10)
	if sum.TopNames == nil || sum.RecentActivity == nil || sum.HourlyStats == nil {
		t.Error("empty summary should use empty lists")
	}
}

type failingStore struct{ Store }

func (failingStore) AddVideo(context.Context, string, string) error {
	return errors.New("backend down")
}

func TestRecordLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	Record(context.Background(), failingStore{}, log.New(&buf), KindVideo, "ip", "name")
	if !strings.Contains(buf.String(), "backend down") {
		t.Errorf("log = %q", buf.String())
	}
	Record(context.Background(), nil, nil, KindVideo, "ip", "name")
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	s, err := Open(context.Background(), Options{File: path})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open default = %T", s)
	}
	if _, err := Open(context.Background(), Options{Backend: "sqlite"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
