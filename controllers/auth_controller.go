// controllers/auth_controller.go
package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/config"
	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/utils"
)

// AuthController handles login, logout and session validation
type AuthController struct {
	DB       *mongo.Client
	Sessions *middleware.SessionStore

	loginAttemptsMu sync.RWMutex
	loginAttempts   map[string]loginAttempt
}

type loginAttempt struct {
	count       int
	lastAttempt time.Time
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client, sessions *middleware.SessionStore) *AuthController {
	return &AuthController{
		DB:            db,
		Sessions:      sessions,
		loginAttempts: make(map[string]loginAttempt),
	}
}

// Login authenticates a user and issues a JWT plus a server-side session
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var loginReq models.LoginRequest
	if err := c.Bind(&loginReq); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&loginReq); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	email, err := utils.SanitizeEmail(loginReq.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	ac.loginAttemptsMu.RLock()
	attempts, exists := ac.loginAttempts[email]
	ac.loginAttemptsMu.RUnlock()

	if exists && attempts.count >= 5 && time.Since(attempts.lastAttempt) < 30*time.Minute {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many failed login attempts. Please try again later.",
		})
	}

	collection := config.GetCollection(ac.DB, "users")

	var user models.User
	err = collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find user",
		})
	}

	if err := utils.CheckPassword(loginReq.Password, user.Password); err != nil {
		ac.loginAttemptsMu.Lock()
		if !exists {
			ac.loginAttempts[email] = loginAttempt{count: 1, lastAttempt: time.Now()}
		} else {
			ac.loginAttempts[email] = loginAttempt{count: attempts.count + 1, lastAttempt: time.Now()}
		}
		ac.loginAttemptsMu.Unlock()

		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	if !user.IsActive {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is deactivated",
		})
	}

	ac.loginAttemptsMu.Lock()
	delete(ac.loginAttempts, email)
	ac.loginAttemptsMu.Unlock()

	token, _, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	session, err := ac.Sessions.Create(ctx, user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		c.Logger().Errorf("Failed to create session: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create session",
		})
	}

	now := time.Now()
	_, err = collection.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"lastActivityAt": now, "updatedAt": now}},
	)
	if err != nil {
		c.Logger().Warnf("Failed to update last activity: %v", err)
	}

	utils.WriteAuditLog(ac.DB, user.ID.Hex(), user.Role, "auth.login", "user", user.ID.Hex(), "")

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token:        token,
			SessionToken: session.Token,
			User:         user,
		},
	})
}

// Logout destroys the server-side session and blacklists the JWT
func (ac *AuthController) Logout(c echo.Context) error {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Not authenticated",
		})
	}

	if token := c.Request().Header.Get(middleware.SessionHeader); token != "" {
		if err := ac.Sessions.Delete(c.Request().Context(), token); err != nil {
			c.Logger().Warnf("Failed to delete session: %v", err)
		}
	}

	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		expiry := time.Now().Add(24 * time.Hour)
		if claims.ExpiresAt > 0 {
			expiry = time.Unix(claims.ExpiresAt, 0)
		}
		middleware.BlacklistToken(authHeader[7:], expiry)
	}

	utils.WriteAuditLog(ac.DB, claims.UserID, claims.Role, "auth.logout", "user", claims.UserID, "")

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// ValidateSession reports whether the presented session token is still live
func (ac *AuthController) ValidateSession(c echo.Context) error {
	token := c.Request().Header.Get(middleware.SessionHeader)
	if token == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Session token is required",
		})
	}

	session, err := ac.Sessions.Get(c.Request().Context(), token)
	if err != nil {
		if err == middleware.ErrSessionNotFound {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Session has expired or been destroyed",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve session",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Session is valid",
		Data:    session,
	})
}

// GetProfile returns the authenticated user's own record
func (ac *AuthController) GetProfile(c echo.Context) error {
	userID := middleware.ExtractUserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Not authenticated",
		})
	}

	user, err := utils.GetUserByID(ac.DB, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    user,
	})
}
