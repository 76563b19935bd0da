// utils/audit.go
package utils

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/config"
	"github.com/nexvia/nexvia_portal_backend/models"
)

// WriteAuditLog records a mutating operation in the audit trail. Audit
// failures are logged and never fail the request that triggered them.
func WriteAuditLog(db *mongo.Client, actorID, actorRole, action, entity, entityID, detail string) {
	objID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		log.Printf("Audit log skipped, invalid actor ID %q: %v", actorID, err)
		return
	}

	entry := models.AuditLog{
		ActorID:   objID,
		ActorRole: actorRole,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    detail,
		CreatedAt: time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := config.GetCollection(db, "audit_logs").InsertOne(ctx, entry)
		if err != nil {
			log.Printf("Failed to write audit log for %s: %v", action, err)
		}
	}()
}
