package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

const DefaultMongoDatabase = "sentrix"

// MongoStore keeps reports, sessions and chat messages in three collections.
type MongoStore struct {
	client   *mongo.Client
	reports  *mongo.Collection
	sessions *mongo.Collection
	chats    *mongo.Collection
}

type mongoMessage struct {
	SessionID             string `bson:"session_id"`
	contracts.ChatMessage `bson:",inline"`
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		reports:  db.Collection("reports"),
		sessions: db.Collection("sessions"),
		chats:    db.Collection("chats"),
	}
	if err := s.createIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create mongodb indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	if _, err := s.reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
	}); err != nil {
		return err
	}
	if _, err := s.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}); err != nil {
		return err
	}
	_, err := s.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveReport(ctx context.Context, r contracts.RiskReport) error {
	_, err := s.reports.ReplaceOne(ctx, bson.M{"_id": r.ReportID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *MongoStore) GetReport(ctx context.Context, id string) (contracts.RiskReport, error) {
	var r contracts.RiskReport
	if err := s.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return contracts.RiskReport{}, ErrNotFound
		}
		return contracts.RiskReport{}, fmt.Errorf("find report: %w", err)
	}
	return r, nil
}

func (s *MongoStore) ListReports(ctx context.Context) ([]contracts.RiskReport, error) {
	return s.findReports(ctx, bson.M{})
}

func (s *MongoStore) ListSessionReports(ctx context.Context, sessionID string) ([]contracts.RiskReport, error) {
	return s.findReports(ctx, bson.M{"session_id": sessionID})
}

func (s *MongoStore) CountSessionReports(ctx context.Context, sessionID string) (int, error) {
	n, err := s.reports.CountDocuments(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return 0, fmt.Errorf("count session reports: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) findReports(ctx context.Context, filter bson.M) ([]contracts.RiskReport, error) {
	cursor, err := s.reports.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]contracts.RiskReport, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return reports, nil
}

func (s *MongoStore) CreateSession(ctx context.Context, sess contracts.Session) error {
	_, err := s.sessions.ReplaceOne(ctx, bson.M{"_id": sess.SessionID}, sess, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *MongoStore) GetSession(ctx context.Context, id string) (contracts.Session, error) {
	var sess contracts.Session
	if err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return contracts.Session{}, ErrNotFound
		}
		return contracts.Session{}, fmt.Errorf("find session: %w", err)
	}
	return sess, nil
}

func (s *MongoStore) ListSessions(ctx context.Context) ([]contracts.Session, error) {
	cursor, err := s.sessions.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := make([]contracts.Session, 0)
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *MongoStore) UpdateSession(ctx context.Context, sess contracts.Session) error {
	res, err := s.sessions.ReplaceOne(ctx, bson.M{"_id": sess.SessionID}, sess)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AppendMessages(ctx context.Context, sessionID string, msgs ...contracts.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(msgs))
	for _, m := range msgs {
		docs = append(docs, mongoMessage{SessionID: sessionID, ChatMessage: m})
	}
	if _, err := s.chats.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("insert chat messages: %w", err)
	}
	return nil
}

func (s *MongoStore) ListMessages(ctx context.Context, sessionID string) ([]contracts.ChatMessage, error) {
	cursor, err := s.chats.Find(ctx, bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find chat messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoMessage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode chat messages: %w", err)
	}
	msgs := make([]contracts.ChatMessage, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, d.ChatMessage)
	}
	return msgs, nil
}
