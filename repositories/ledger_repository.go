// repositories/ledger_repository.go
package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
)

// LedgerRepository is the MongoDB implementation of the read-only
// ledger store the reporting aggregator scans
type LedgerRepository struct {
	db *mongo.Database
}

// NewLedgerRepository creates a ledger repository on a database handle
func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) ListActivationsInRange(ctx context.Context, from, to time.Time) ([]models.ActivationRecord, error) {
	filter := bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}}
	cursor, err := r.db.Collection("activations").Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.ActivationRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *LedgerRepository) ListRechargesInRange(ctx context.Context, from, to time.Time) ([]models.RechargeRecord, error) {
	filter := bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}}
	cursor, err := r.db.Collection("recharges").Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.RechargeRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *LedgerRepository) GetUserNames(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	cursor, err := r.db.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	for _, u := range users {
		name := u.BusinessName
		if name == "" {
			name = u.FullName
		}
		names[u.ID] = name
	}
	return names, nil
}

var _ services.LedgerStore = (*LedgerRepository)(nil)
