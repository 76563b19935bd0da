// utils/auth.go
package utils

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexvia/nexvia_portal_backend/config"
	"github.com/nexvia/nexvia_portal_backend/models"
)

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ErrEmployeeIDMismatch is returned when the supplied employee ID does
// not match the stored employee record
var ErrEmployeeIDMismatch = errors.New("employee ID verification failed")

// VerifyEmployeeID checks the supplied employee ID against the stored
// employee record. Sensitive employee-initiated operations call this as
// a secondary verification step before proceeding.
func VerifyEmployeeID(db *mongo.Client, userID string, employeeID string) error {
	if employeeID == "" {
		return ErrEmployeeIDMismatch
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.New("invalid user ID format")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = config.GetCollection(db, "users").FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return errors.New("employee not found")
		}
		return err
	}

	if user.Role != models.RoleEmployee && user.Role != models.RoleAdmin {
		return ErrEmployeeIDMismatch
	}
	if user.EmployeeID == "" || user.EmployeeID != employeeID {
		return ErrEmployeeIDMismatch
	}

	return nil
}

// GetUserByID loads a user document by its hex ID
func GetUserByID(db *mongo.Client, userID string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errors.New("invalid user ID format")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = config.GetCollection(db, "users").FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("user not found")
		}
		return nil, err
	}

	user.Password = ""
	return &user, nil
}
