// controllers/activation_controller.go
package controllers

import (
	"context"
	"errors"
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
	"github.com/nexvia/nexvia_portal_backend/services"
	"github.com/nexvia/nexvia_portal_backend/utils"
	ws "github.com/nexvia/nexvia_portal_backend/websocket"
)

// ActivationController handles SIM activation submissions
type ActivationController struct {
	DB      *mongo.Database
	Client  *mongo.Client
	Pricing *services.PricingService
	Wallet  *services.WalletService
	Email   *services.EmailService
	Hub     *ws.Hub
}

// NewActivationController creates a new activation controller
func NewActivationController(client *mongo.Client, db *mongo.Database, pricing *services.PricingService, wallet *services.WalletService, email *services.EmailService, hub *ws.Hub) *ActivationController {
	return &ActivationController{
		DB:      db,
		Client:  client,
		Pricing: pricing,
		Wallet:  wallet,
		Email:   email,
		Hub:     hub,
	}
}

// SubmitActivation submits a SIM activation for the authenticated
// retailer. The wallet debit at the resolved retailer price and the
// activation record insert happen in one transaction; the retailer is
// charged exactly once or not at all.
func (ac *ActivationController) SubmitActivation(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.ExtractUserID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.ActivationRequest
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

	if !utils.IsValidSimNumber(req.SimNumber) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid SIM number",
		})
	}
	if req.PortIn && req.PortInNumber == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Port-in requests require the number being ported",
		})
	}

	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plan ID",
		})
	}

	resolved, err := ac.Pricing.ResolvePlanForRetailer(ctx, userID, planID)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: verr.Error(),
			})
		case errors.Is(err, services.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Plan is not available for this account",
			})
		default:
			log.Printf("Error resolving plan %s for retailer %s: %v", planID.Hex(), userID.Hex(), err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to resolve plan pricing",
			})
		}
	}
	if models.IsRechargeServiceType(resolved.ServiceType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Recharge plans cannot be activated, use the recharge endpoint",
		})
	}
	if carrier := c.Param("carrier"); carrier != "" && carrier != models.CarrierSegmentForServiceType(resolved.ServiceType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Plan does not belong to this carrier",
		})
	}

	now := time.Now()
	record := models.ActivationRecord{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		PlanID:         planID,
		Carrier:        resolved.Carrier,
		ServiceType:    resolved.ServiceType,
		CustomerName:   utils.SanitizeInput(req.CustomerName),
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		SimNumber:      req.SimNumber,
		AreaCode:       utils.SanitizeInput(req.AreaCode),
		PortIn:         req.PortIn,
		PortInNumber:   utils.SanitizeInput(req.PortInNumber),
		OurCost:        resolved.OurCost,
		RetailerPrice:  resolved.RetailerPrice,
		CustomerPrice:  resolved.CustomerPrice,
		RetailerProfit: resolved.RetailerProfit,
		PriceSource:    resolved.PriceSource,
		Status:         models.ActivationStatusPending,
		ReceiptNumber:  utils.GenerateReceiptNumber(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	newBalance, err := ac.Wallet.DebitAndRecord(ctx, userID, resolved.RetailerPrice,
		record.ReceiptNumber, "activation "+resolved.Name,
		func(txCtx context.Context) error {
			_, err := ac.DB.Collection("activations").InsertOne(txCtx, record)
			return err
		})
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) {
			return c.JSON(http.StatusPaymentRequired, models.Response{
				Status:  http.StatusPaymentRequired,
				Message: "Insufficient wallet balance",
			})
		}
		log.Printf("Error submitting activation for retailer %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit activation",
		})
	}

	utils.WriteAuditLog(ac.Client, userID.Hex(), middleware.ExtractRole(c), "activation.submit", "activation", record.ID.Hex(), record.ReceiptNumber)

	if err := ac.Hub.NotifyWalletUpdate(userID, map[string]interface{}{"balance": newBalance}); err != nil {
		log.Printf("Wallet notification failed for %s: %v", userID.Hex(), err)
	}
	if record.CustomerEmail != "" && ac.Email.Enabled() {
		go func(rec models.ActivationRecord) {
			if err := ac.Email.SendActivationReceipt(rec.CustomerEmail, rec); err != nil {
				log.Printf("Failed to email activation receipt %s: %v", rec.ReceiptNumber, err)
			}
		}(record)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Activation submitted successfully",
		Data: models.ActivationReceipt{
			ReceiptNumber: record.ReceiptNumber,
			Activation:    record,
			NewBalance:    newBalance,
		},
	})
}

// GetActivations lists activations. Retailers see their own; admins and
// employees see everything and can filter by retailer or status.
func (ac *ActivationController) GetActivations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	role := middleware.ExtractRole(c)
	if role == models.RoleRetailer {
		userID, err := primitive.ObjectIDFromHex(middleware.ExtractUserID(c))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Authentication failed",
			})
		}
		filter["userId"] = userID
	} else if retailerParam := c.QueryParam("retailerId"); retailerParam != "" {
		retailerID, err := primitive.ObjectIDFromHex(retailerParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid retailer ID",
			})
		}
		filter["userId"] = retailerID
	}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}
	if serviceType := c.QueryParam("serviceType"); serviceType != "" {
		filter["serviceType"] = serviceType
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(200)
	cursor, err := ac.DB.Collection("activations").Find(ctx, filter, opts)
	if err != nil {
		log.Printf("Error finding activations: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve activations",
		})
	}
	defer cursor.Close(ctx)

	activations := []models.ActivationRecord{}
	if err = cursor.All(ctx, &activations); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve activations",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Activations retrieved successfully",
		Data:    activations,
	})
}

// GetActivation returns a single activation. Retailers can only read
// their own records.
func (ac *ActivationController) GetActivation(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	activationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid activation ID",
		})
	}

	filter := bson.M{"_id": activationID}
	if middleware.ExtractRole(c) == models.RoleRetailer {
		userID, err := primitive.ObjectIDFromHex(middleware.ExtractUserID(c))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Authentication failed",
			})
		}
		filter["userId"] = userID
	}

	var activation models.ActivationRecord
	err = ac.DB.Collection("activations").FindOne(ctx, filter).Decode(&activation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Activation not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve activation",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Activation retrieved successfully",
		Data:    activation,
	})
}

// UpdateActivationStatus transitions a pending activation to active or
// failed and notifies the retailer. Admin and employee only. A failed
// activation refunds the retailer's debit.
func (ac *ActivationController) UpdateActivationStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	activationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid activation ID",
		})
	}

	var req models.ActivationStatusRequest
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
	if req.Status == models.ActivationStatusFailed && req.FailureReason == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A failure reason is required when failing an activation",
		})
	}

	// Only pending activations can transition; the filter makes the
	// update idempotent under concurrent status calls.
	filter := bson.M{"_id": activationID, "status": models.ActivationStatusPending}
	update := bson.M{"$set": bson.M{
		"status":        req.Status,
		"failureReason": utils.SanitizeInput(req.FailureReason),
		"updatedAt":     time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var activation models.ActivationRecord
	if req.Status == models.ActivationStatusFailed {
		// The refund and the status flip commit together: the flip runs
		// inside the wallet transaction, so a lost race or a failed
		// credit leaves both the record and the balance untouched. The
		// pre-read only supplies the wallet owner and amount; the
		// pending filter still decides inside the transaction.
		err = ac.DB.Collection("activations").FindOne(ctx,
			bson.M{"_id": activationID}).Decode(&activation)
		if err == nil {
			_, err = ac.Wallet.CreditAndRecord(ctx, activation.UserID, activation.RetailerPrice,
				models.WalletTxCredit, activation.ReceiptNumber, "refund: activation failed",
				func(txCtx context.Context) error {
					return ac.DB.Collection("activations").FindOneAndUpdate(txCtx, filter, update, opts).Decode(&activation)
				})
		}
	} else {
		err = ac.DB.Collection("activations").FindOneAndUpdate(ctx, filter, update, opts).Decode(&activation)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Activation not found or already finalized",
			})
		}
		log.Printf("Error updating activation %s: %v", activationID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update activation status",
		})
	}

	actor := middleware.GetUserFromToken(c)
	if actor != nil {
		utils.WriteAuditLog(ac.Client, actor.UserID, actor.Role, "activation.status", "activation", activationID.Hex(), req.Status)
	}

	if err := ac.Hub.NotifyActivationStatus(activation.UserID, activation); err != nil {
		log.Printf("Activation notification failed for %s: %v", activation.UserID.Hex(), err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Activation status updated successfully",
		Data:    activation,
	})
}
