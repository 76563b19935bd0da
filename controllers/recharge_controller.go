// controllers/recharge_controller.go
package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
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

// RechargeController handles prepaid recharge sales
type RechargeController struct {
	DB      *mongo.Database
	Client  *mongo.Client
	Pricing *services.PricingService
	Wallet  *services.WalletService
	Email   *services.EmailService
	Hub     *ws.Hub
}

// NewRechargeController creates a new recharge controller
func NewRechargeController(client *mongo.Client, db *mongo.Database, pricing *services.PricingService, wallet *services.WalletService, email *services.EmailService, hub *ws.Hub) *RechargeController {
	return &RechargeController{
		DB:      db,
		Client:  client,
		Pricing: pricing,
		Wallet:  wallet,
		Email:   email,
		Hub:     hub,
	}
}

// SubmitRecharge sells a recharge to the authenticated retailer. The
// wallet debit and the recharge record insert happen in one
// transaction. Global recharges are delivered as a PIN with a QR code
// the customer can scan.
func (rc *RechargeController) SubmitRecharge(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.ExtractUserID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.RechargeRequest
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

	phone, err := utils.SanitizePhone(req.PhoneNumber)
	if err != nil || phone == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number",
		})
	}

	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plan ID",
		})
	}

	resolved, err := rc.Pricing.ResolvePlanForRetailer(ctx, userID, planID)
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
	if !models.IsRechargeServiceType(resolved.ServiceType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Activation plans cannot be recharged, use the activation endpoint",
		})
	}
	if carrier := c.Param("carrier"); carrier != "" && carrier != models.CarrierSegmentForServiceType(resolved.ServiceType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Plan does not belong to this carrier",
		})
	}

	now := time.Now()
	record := models.RechargeRecord{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		PlanID:         planID,
		Carrier:        resolved.Carrier,
		ServiceType:    resolved.ServiceType,
		PhoneNumber:    phone,
		Country:        utils.SanitizeInput(req.Country),
		CustomerEmail:  req.CustomerEmail,
		OurCost:        resolved.OurCost,
		RetailerPrice:  resolved.RetailerPrice,
		CustomerPrice:  resolved.CustomerPrice,
		RetailerProfit: resolved.RetailerProfit,
		PriceSource:    resolved.PriceSource,
		Status:         models.RechargeStatusCompleted,
		ReceiptNumber:  utils.GenerateReceiptNumber(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if resolved.ServiceType == models.ServiceTypeGlobalRecharge {
		pin, err := utils.GenerateRechargePIN(12)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to generate recharge PIN",
			})
		}
		record.PIN = pin
	}

	newBalance, err := rc.Wallet.DebitAndRecord(ctx, userID, resolved.RetailerPrice,
		record.ReceiptNumber, "recharge "+resolved.Name,
		func(txCtx context.Context) error {
			_, err := rc.DB.Collection("recharges").InsertOne(txCtx, record)
			return err
		})
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) {
			return c.JSON(http.StatusPaymentRequired, models.Response{
				Status:  http.StatusPaymentRequired,
				Message: "Insufficient wallet balance",
			})
		}
		log.Printf("Error submitting recharge for retailer %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit recharge",
		})
	}

	receipt := models.RechargeReceipt{
		ReceiptNumber: record.ReceiptNumber,
		Recharge:      record,
		NewBalance:    newBalance,
	}
	if record.PIN != "" {
		qrCode, err := generatePINQRCode(record.PIN)
		if err != nil {
			log.Printf("QR generation failed for recharge %s: %v", record.ReceiptNumber, err)
		} else {
			receipt.PINQRCode = qrCode
		}
	}

	utils.WriteAuditLog(rc.Client, userID.Hex(), middleware.ExtractRole(c), "recharge.submit", "recharge", record.ID.Hex(), record.ReceiptNumber)

	if err := rc.Hub.NotifyRechargeResult(userID, receipt); err != nil {
		log.Printf("Recharge notification failed for %s: %v", userID.Hex(), err)
	}
	if record.CustomerEmail != "" && rc.Email.Enabled() {
		go func(rec models.RechargeRecord) {
			if err := rc.Email.SendRechargeReceipt(rec.CustomerEmail, rec); err != nil {
				log.Printf("Failed to email recharge receipt %s: %v", rec.ReceiptNumber, err)
			}
		}(record)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Recharge completed successfully",
		Data:    receipt,
	})
}

// GetRecharges lists recharges. Retailers see their own; admins and
// employees see everything and can filter by retailer or service type.
func (rc *RechargeController) GetRecharges(c echo.Context) error {
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
	if serviceType := c.QueryParam("serviceType"); serviceType != "" {
		filter["serviceType"] = serviceType
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(200)
	cursor, err := rc.DB.Collection("recharges").Find(ctx, filter, opts)
	if err != nil {
		log.Printf("Error finding recharges: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve recharges",
		})
	}
	defer cursor.Close(ctx)

	recharges := []models.RechargeRecord{}
	if err = cursor.All(ctx, &recharges); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve recharges",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Recharges retrieved successfully",
		Data:    recharges,
	})
}

// generatePINQRCode renders a recharge PIN as a 300x300 PNG QR code and
// returns it as a base64 data URI for embedding in responses
func generatePINQRCode(pin string) (string, error) {
	qrCode, err := qr.Encode(pin, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
