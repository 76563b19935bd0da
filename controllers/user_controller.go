// controllers/user_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/utils"
)

// UserController handles user administration
type UserController struct {
	DB     *mongo.Database
	Client *mongo.Client
}

// NewUserController creates a new user controller
func NewUserController(client *mongo.Client, db *mongo.Database) *UserController {
	return &UserController{DB: db, Client: client}
}

// GetUsers lists users, optionally filtered by role. Admin only.
func (uc *UserController) GetUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if role := c.QueryParam("role"); role != "" {
		filter["role"] = role
	}

	opts := options.Find().SetProjection(bson.M{"password": 0}).SetSort(bson.M{"createdAt": -1})
	cursor, err := uc.DB.Collection("users").Find(ctx, filter, opts)
	if err != nil {
		log.Printf("Error finding users: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve users",
		})
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve users",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data:    users,
	})
}

// GetUser returns a single user by ID. Admin only.
func (uc *UserController) GetUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var user models.User
	err = uc.DB.Collection("users").FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"password": 0})).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve user",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User retrieved successfully",
		Data:    user,
	})
}

// CreateUser creates a retailer, employee or admin account. Admin only.
func (uc *UserController) CreateUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	if req.Role == models.RoleEmployee && req.EmployeeID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Employee accounts require an employee ID",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number",
		})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create user",
		})
	}

	now := time.Now()
	user := models.User{
		Email:        email,
		Password:     hashed,
		FullName:     utils.SanitizeInput(req.FullName),
		Role:         req.Role,
		Phone:        phone,
		BusinessName: utils.SanitizeInput(req.BusinessName),
		EmployeeID:   utils.SanitizeInput(req.EmployeeID),
		Balance:      utils.RoundCents(req.Balance),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.CommissionGroupID != "" {
		if req.Role != models.RoleRetailer {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Only retailers can be assigned a commission group",
			})
		}
		groupID, err := primitive.ObjectIDFromHex(req.CommissionGroupID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid commission group ID",
			})
		}
		count, err := uc.DB.Collection("commission_groups").CountDocuments(ctx, bson.M{"_id": groupID})
		if err != nil || count == 0 {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Commission group not found",
			})
		}
		user.CommissionGroupID = &groupID
	}

	result, err := uc.DB.Collection("users").InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "A user with this email already exists",
			})
		}
		log.Printf("Error creating user: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create user",
		})
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	user.Password = ""

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(uc.Client, claims.UserID, claims.Role, "user.create", "user", user.ID.Hex(), user.Email+" ("+user.Role+")")
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "User created successfully",
		Data:    user,
	})
}

// UpdateUser updates a user's profile fields and active flag. Admin only.
func (uc *UserController) UpdateUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.FullName != "" {
		set["fullName"] = utils.SanitizeInput(req.FullName)
	}
	if req.Phone != "" {
		phone, err := utils.SanitizePhone(req.Phone)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid phone number",
			})
		}
		set["phone"] = phone
	}
	if req.BusinessName != "" {
		set["businessName"] = utils.SanitizeInput(req.BusinessName)
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}

	result, err := uc.DB.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update user",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(uc.Client, claims.UserID, claims.Role, "user.update", "user", userID.Hex(), "")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User updated successfully",
	})
}

// AssignCommissionGroup assigns a retailer to a commission group,
// changing which pricing overrides apply to them. Admin only.
func (uc *UserController) AssignCommissionGroup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.AssignCommissionGroupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	groupID, err := primitive.ObjectIDFromHex(req.CommissionGroupID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid commission group ID",
		})
	}

	count, err := uc.DB.Collection("commission_groups").CountDocuments(ctx, bson.M{"_id": groupID})
	if err != nil || count == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Commission group not found",
		})
	}

	result, err := uc.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID, "role": models.RoleRetailer},
		bson.M{"$set": bson.M{"commissionGroupId": groupID, "updatedAt": time.Now()}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to assign commission group",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Retailer not found",
		})
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(uc.Client, claims.UserID, claims.Role, "user.assign_commission_group", "user", userID.Hex(), "group="+groupID.Hex())
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission group assigned successfully",
	})
}

// UnassignCommissionGroup removes the retailer's commission group. The
// retailer falls back to uncommissioned self-service pricing. Admin only.
func (uc *UserController) UnassignCommissionGroup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	result, err := uc.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$unset": bson.M{"commissionGroupId": ""}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to unassign commission group",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	claims := middleware.GetUserFromToken(c)
	if claims != nil {
		utils.WriteAuditLog(uc.Client, claims.UserID, claims.Role, "user.unassign_commission_group", "user", userID.Hex(), "")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission group unassigned successfully",
	})
}
