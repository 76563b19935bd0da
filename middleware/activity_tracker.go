// middleware/activity_tracker.go
package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/config"
)

// ActivityTracker updates the user's lastActivityAt on each
// authenticated request
func ActivityTracker(db *mongo.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := ExtractUserID(c)
			if userID == "" {
				return next(c)
			}

			objID, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				return next(c)
			}

			// Update in background so the request is never blocked
			go func() {
				collection := config.GetCollection(db, "users")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				now := time.Now()
				_, _ = collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{
					"lastActivityAt": now,
					"updatedAt":      now,
				}})
			}()

			return next(c)
		}
	}
}
