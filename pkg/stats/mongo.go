package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo collection names and the id of the single stats document.
const (
	MongoStatsCollection = "stats"
	MongoNamesCollection = "stat_names"
	mongoStatsID         = "global"
)

// MongoStore keeps counters in one document and per-name counts in a separate
// collection, so user-supplied names never become field paths.
type MongoStore struct {
	client *mongo.Client
	stats  *mongo.Collection
	names  *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects to uri and uses database db.
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return NewMongoStoreFromClient(client, db), nil
}

// NewMongoStoreFromClient uses an existing client.
func NewMongoStoreFromClient(client *mongo.Client, db string) *MongoStore {
	d := client.Database(db)
	return &MongoStore{
		client: client,
		stats:  d.Collection(MongoStatsCollection),
		names:  d.Collection(MongoNamesCollection),
		now:    time.Now,
	}
}

func (s *MongoStore) AddVideo(ctx context.Context, ip, name string) error {
	return s.add(ctx, newEvent(KindVideo, s.now(), ip, name))
}

func (s *MongoStore) AddDownload(ctx context.Context, ip, name string) error {
	return s.add(ctx, newEvent(KindDownload, s.now(), ip, name))
}

func (s *MongoStore) add(ctx context.Context, e event) error {
	inc := bson.M{}
	switch e.kind {
	case KindVideo:
		inc["totalVideos"] = 1
		inc["hourlyStats."+e.hour] = 1
		inc["dailyStats."+e.day] = 1
	case KindDownload:
		inc["totalDownloads"] = 1
	}
	update := bson.M{
		"$inc": inc,
		"$push": bson.M{"activities": bson.M{
			"$each":  bson.A{e.act},
			"$slice": -MaxActivities,
		}},
	}
	if e.act.IP != UnknownIP {
		update["$addToSet"] = bson.M{"uniqueIPs": e.act.IP}
	}

	upsert := options.Update().SetUpsert(true)
	if _, err := s.stats.UpdateByID(ctx, mongoStatsID, update, upsert); err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	if e.kind == KindVideo {
		_, err := s.names.UpdateByID(ctx, e.act.Name, bson.M{"$inc": bson.M{"count": 1}}, upsert)
		if err != nil {
			return fmt.Errorf("update name count: %w", err)
		}
	}
	return nil
}

type nameDoc struct {
	Name  string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (s *MongoStore) Snapshot(ctx context.Context) (Stats, error) {
	st := Empty()
	err := s.stats.FindOne(ctx, bson.M{"_id": mongoStatsID}).Decode(&st)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}
	st.normalize()

	cur, err := s.names.Find(ctx, bson.M{})
	if err != nil {
		return Stats{}, fmt.Errorf("read names: %w", err)
	}
	var docs []nameDoc
	if err := cur.All(ctx, &docs); err != nil {
		return Stats{}, fmt.Errorf("decode names: %w", err)
	}
	for _, d := range docs {
		st.Names[d.Name] = d.Count
	}
	return st, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
