package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollection = "marketplace_audit"

// AuditLogger appends marketplace actions to a MongoDB collection.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
	now    func() time.Time
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection(auditCollection),
		logger: logger,
		now:    time.Now,
	}
}

type AuditEntry struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	Actor     string    `bson:"actor"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data,omitempty"`
}

// EnsureIndexes creates the actor/time index used by Recent.
func (a *AuditLogger) EnsureIndexes(ctx context.Context) error {
	_, err := a.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "actor", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return errors.Wrap(err, "audit index")
}

func (a *AuditLogger) Record(ctx context.Context, action, actor string, data map[string]interface{}) error {
	entry := AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Timestamp: a.now().UTC(),
		Data:      bson.M(data),
	}
	if _, err := a.coll.InsertOne(ctx, entry); err != nil {
		a.logger.WithField("action", action).Error("failed to insert audit entry: ", err)
		return errors.Wrap(err, "audit insert")
	}
	return nil
}

// Recent returns the latest entries for actor, newest first.
func (a *AuditLogger) Recent(ctx context.Context, actor string, limit int64) ([]AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cur, err := a.coll.Find(ctx, bson.M{"actor": actor}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "audit find")
	}
	entries := []AuditEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(err, "audit decode")
	}
	return entries, nil
}
