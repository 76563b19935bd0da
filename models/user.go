// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleRetailer = "retailer"
)

// User model
type User struct {
	ID                primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email             string              `json:"email" bson:"email"`
	Password          string              `json:"password,omitempty" bson:"password"`
	FullName          string              `json:"fullName" bson:"fullName"`
	Role              string              `json:"role" bson:"role"` // "admin", "employee", "retailer"
	Phone             string              `json:"phone,omitempty" bson:"phone,omitempty"`
	BusinessName      string              `json:"businessName,omitempty" bson:"businessName,omitempty"`
	EmployeeID        string              `json:"employeeId,omitempty" bson:"employeeId,omitempty"`
	CommissionGroupID *primitive.ObjectID `json:"commissionGroupId,omitempty" bson:"commissionGroupId,omitempty"`
	Balance           float64             `json:"balance" bson:"balance"`
	IsActive          bool                `json:"isActive" bson:"isActive"`
	LastActivityAt    time.Time           `json:"lastActivityAt" bson:"lastActivityAt"`
	CreatedAt         time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and session information
type LoginResponse struct {
	Token        string `json:"token"`
	SessionToken string `json:"sessionToken"`
	User         User   `json:"user"`
}

// CreateUserRequest is the admin request for creating retailers and employees
type CreateUserRequest struct {
	Email             string  `json:"email" validate:"required,email"`
	Password          string  `json:"password" validate:"required,min=8"`
	FullName          string  `json:"fullName" validate:"required"`
	Role              string  `json:"role" validate:"required,oneof=admin employee retailer"`
	Phone             string  `json:"phone,omitempty"`
	BusinessName      string  `json:"businessName,omitempty"`
	EmployeeID        string  `json:"employeeId,omitempty"`
	CommissionGroupID string  `json:"commissionGroupId,omitempty"`
	Balance           float64 `json:"balance,omitempty" validate:"gte=0"`
}

// UpdateUserRequest is the admin request for updating a user
type UpdateUserRequest struct {
	FullName     string `json:"fullName,omitempty"`
	Phone        string `json:"phone,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	IsActive     *bool  `json:"isActive,omitempty"`
}

// AssignCommissionGroupRequest assigns a retailer to a commission group
type AssignCommissionGroupRequest struct {
	CommissionGroupID string `json:"commissionGroupId" validate:"required"`
}

// EmployeeVerificationRequest is the secondary verification step for
// employee-initiated sensitive operations
type EmployeeVerificationRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
