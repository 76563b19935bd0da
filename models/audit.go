// models/audit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog records a mutating operation performed through the API
type AuditLog struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ActorID   primitive.ObjectID `json:"actorId" bson:"actorId"`
	ActorRole string             `json:"actorRole" bson:"actorRole"`
	Action    string             `json:"action" bson:"action"` // e.g. "plan.create", "wallet.transfer"
	Entity    string             `json:"entity" bson:"entity"`
	EntityID  string             `json:"entityId,omitempty" bson:"entityId,omitempty"`
	Detail    string             `json:"detail,omitempty" bson:"detail,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
