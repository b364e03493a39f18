//go:build integration

package stats

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	must(t, s.AddVideo(ctx, "10.0.0.1", "Ali"))
	must(t, s.AddVideo(ctx, "10.0.0.2", ""))
	must(t, s.AddDownload(ctx, "10.0.0.1", "Ali"))

	st, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalVideos != 2 || st.TotalDownloads != 1 || len(st.UniqueIPs) != 2 {
		t.Errorf("snapshot = %+v", st)
	}
	if st.Names["Ali"] != 1 || st.Names[AnonymousName] != 1 {
		t.Errorf("names = %v", st.Names)
	}
	if len(st.Activities) != 3 || st.Activities[0].Name != "Ali" {
		t.Errorf("activities = %+v", st.Activities)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("OVERLAY3D_TEST_REDIS_URL")
	if url == "" {
		t.Skip("OVERLAY3D_TEST_REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url, "overlay3d:test:"+uuid.NewString()+":")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("OVERLAY3D_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("OVERLAY3D_TEST_MONGO_URI not set")
	}
	db := "overlay3d_test_" + uuid.NewString()[:8]
	s, err := NewMongoStore(context.Background(), uri, db)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = s.client.Database(db).Drop(context.Background())
		s.Close()
	}()
	exercise(t, s)
}
