package repository

import (
	"context"
	"time"

	"dailybread/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollection = "audit_events"

type MongoAuditRepo struct {
	DB *mongo.Database
}

func NewMongoAuditRepo(db *mongo.Database) *MongoAuditRepo {
	return &MongoAuditRepo{DB: db}
}

// EnsureIndexes creates the index backing List.
func (r *MongoAuditRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.DB.Collection(auditCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	return err
}

// auditDoc keeps the ObjectID typed in storage while models.AuditEvent
// carries it as a hex string.
type auditDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Action    models.AuditAction `bson:"action"`
	ActorID   int64              `bson:"actor_id"`
	ChurchID  *int64             `bson:"church_id,omitempty"`
	Detail    string             `bson:"detail,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *MongoAuditRepo) Record(ctx context.Context, e *models.AuditEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	doc := auditDoc{
		ID:        primitive.NewObjectID(),
		Action:    e.Action,
		ActorID:   e.ActorID,
		ChurchID:  e.ChurchID,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
	if _, err := r.DB.Collection(auditCollection).InsertOne(ctx, doc); err != nil {
		return err
	}
	e.ID = doc.ID.Hex()
	return nil
}

func (r *MongoAuditRepo) List(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.DB.Collection(auditCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	events := make([]*models.AuditEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &models.AuditEvent{
			ID:        d.ID.Hex(),
			Action:    d.Action,
			ActorID:   d.ActorID,
			ChurchID:  d.ChurchID,
			Detail:    d.Detail,
			CreatedAt: d.CreatedAt,
		})
	}
	return events, nil
}
