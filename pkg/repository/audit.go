package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/latchjack/burger/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Audited actions.
const (
	ActionSignUp         = "sign_up"
	ActionSetIngredients = "set_ingredients"
	ActionCreateOrder    = "create_order"
)

// HistoryLimit caps the entries returned for one order.
const HistoryLimit = 20

// AuditEntry records who did what to an order, an account or the stock.
type AuditEntry struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Service   string    `bson:"service" json:"service"`
	Action    string    `bson:"action" json:"action"`
	Subject   string    `bson:"subject" json:"subject"`
	UserID    string    `bson:"user_id,omitempty" json:"userId,omitempty"`
	Data      bson.M    `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// AuditStore is the audit trail kept in a MongoDB collection.
type AuditStore struct {
	coll *mongo.Collection
}

func NewAuditStore(ctx context.Context, cfg *config.MongoDBConfig) (*AuditStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return newAuditStore(client.Database(cfg.Database).Collection(cfg.Collection)), nil
}

func newAuditStore(coll *mongo.Collection) *AuditStore {
	return &AuditStore{coll: coll}
}

// EnsureIndexes creates the index OrderHistory reads through.
func (s *AuditStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "subject", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("subject_created_at"),
	})
	if err != nil {
		return fmt.Errorf("failed to create audit index: %w", err)
	}
	return nil
}

// Record stores entry, stamping CreatedAt when unset.
func (s *AuditStore) Record(ctx context.Context, entry *AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record %s: %w", entry.Action, err)
	}
	return nil
}

// OrderHistory returns the oldest HistoryLimit entries about an order,
// oldest first.
func (s *AuditStore) OrderHistory(ctx context.Context, orderID string) ([]*AuditEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(HistoryLimit)

	cursor, err := s.coll.Find(ctx, bson.M{"subject": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read order history: %w", err)
	}
	defer cursor.Close(ctx)

	history := []*AuditEntry{}
	if err := cursor.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("failed to decode order history: %w", err)
	}
	return history, nil
}

func (s *AuditStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *AuditStore) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}
