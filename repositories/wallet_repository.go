// repositories/wallet_repository.go
package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nexvia/nexvia_portal_backend/config"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
)

// WalletRepository is the MongoDB implementation of the wallet store.
// Mutations run inside mongo multi-document transactions.
type WalletRepository struct {
	client *mongo.Client
}

// NewWalletRepository creates a wallet repository on a client handle
func NewWalletRepository(client *mongo.Client) *WalletRepository {
	return &WalletRepository{client: client}
}

// WithTransaction runs fn inside a mongo session transaction; the
// context passed to fn carries the session
func (r *WalletRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *WalletRepository) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := config.GetCollection(r.client, "users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, userID primitive.ObjectID, newBalance float64) error {
	_, err := config.GetCollection(r.client, "users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"balance": newBalance}},
	)
	return err
}

func (r *WalletRepository) InsertWalletTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	_, err := config.GetCollection(r.client, "wallet_transactions").InsertOne(ctx, tx)
	return err
}

func (r *WalletRepository) ListWalletTransactions(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.WalletTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := config.GetCollection(r.client, "wallet_transactions").Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	txs := []models.WalletTransaction{}
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

var _ services.WalletStore = (*WalletRepository)(nil)
