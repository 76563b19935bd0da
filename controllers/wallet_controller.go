// controllers/wallet_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexvia/nexvia_portal_backend/middleware"
	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/services"
	"github.com/nexvia/nexvia_portal_backend/utils"
	ws "github.com/nexvia/nexvia_portal_backend/websocket"
)

// WalletController handles wallet balances, transfers and top-ups
type WalletController struct {
	DB     *mongo.Database
	Client *mongo.Client
	Wallet *services.WalletService
	Hub    *ws.Hub
}

// NewWalletController creates a new wallet controller
func NewWalletController(client *mongo.Client, db *mongo.Database, wallet *services.WalletService, hub *ws.Hub) *WalletController {
	return &WalletController{DB: db, Client: client, Wallet: wallet, Hub: hub}
}

// GetBalance returns the authenticated user's wallet balance
func (wc *WalletController) GetBalance(c echo.Context) error {
	userID := middleware.ExtractUserID(c)
	user, err := utils.GetUserByID(wc.Client, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Balance retrieved successfully",
		Data:    map[string]float64{"balance": user.Balance},
	})
}

// GetTransactions lists wallet ledger entries. Users see their own;
// admins can pass userId to inspect any wallet.
func (wc *WalletController) GetTransactions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	targetID := middleware.ExtractUserID(c)
	if middleware.ExtractRole(c) == models.RoleAdmin {
		if userParam := c.QueryParam("userId"); userParam != "" {
			targetID = userParam
		}
	}

	userID, err := primitive.ObjectIDFromHex(targetID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	transactions, err := wc.Wallet.Transactions(ctx, userID, limit)
	if err != nil {
		log.Printf("Error listing wallet transactions for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve transactions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transactions retrieved successfully",
		Data:    transactions,
	})
}

// TopUp credits a retailer's wallet. Admins top up directly; employees
// must re-verify their employee ID first.
func (wc *WalletController) TopUp(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var req models.TopUpRequest
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

	if handled, err := wc.verifyEmployee(c, req.EmployeeID); handled {
		return err
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	newBalance, err := wc.Wallet.Credit(ctx, userID, req.Amount, models.WalletTxCredit, "", req.Note)
	if err != nil {
		return wc.walletError(c, err, "Failed to top up wallet")
	}

	actor := middleware.GetUserFromToken(c)
	if actor != nil {
		utils.WriteAuditLog(wc.Client, actor.UserID, actor.Role, "wallet.topup", "user", userID.Hex(), utils.FormatAmount(req.Amount))
	}

	if err := wc.Hub.NotifyWalletUpdate(userID, map[string]float64{"balance": newBalance}); err != nil {
		log.Printf("Wallet notification failed for %s: %v", userID.Hex(), err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Wallet topped up successfully",
		Data:    map[string]float64{"balance": newBalance},
	})
}

// Transfer moves balance between two wallets. Admins transfer directly;
// employees must re-verify their employee ID first.
func (wc *WalletController) Transfer(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var req models.FundTransferRequest
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

	if handled, err := wc.verifyEmployee(c, req.EmployeeID); handled {
		return err
	}

	fromID, err := primitive.ObjectIDFromHex(req.FromUserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid source user ID",
		})
	}
	toID, err := primitive.ObjectIDFromHex(req.ToUserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid destination user ID",
		})
	}

	result, err := wc.Wallet.Transfer(ctx, fromID, toID, req.Amount, req.Note)
	if err != nil {
		return wc.walletError(c, err, "Failed to transfer funds")
	}

	actor := middleware.GetUserFromToken(c)
	if actor != nil {
		utils.WriteAuditLog(wc.Client, actor.UserID, actor.Role, "wallet.transfer", "user", fromID.Hex(),
			"to="+toID.Hex()+" amount="+utils.FormatAmount(req.Amount))
	}

	for userID, balance := range map[primitive.ObjectID]float64{
		fromID: result.FromBalance,
		toID:   result.ToBalance,
	} {
		if err := wc.Hub.NotifyWalletUpdate(userID, map[string]float64{"balance": balance}); err != nil {
			log.Printf("Wallet notification failed for %s: %v", userID.Hex(), err)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Funds transferred successfully",
		Data:    result,
	})
}

// Payout pays accumulated retailer profit into the retailer's wallet.
// Admin only.
func (wc *WalletController) Payout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var req models.PayoutRequest
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

	retailerID, err := primitive.ObjectIDFromHex(req.RetailerID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid retailer ID",
		})
	}

	newBalance, err := wc.Wallet.Credit(ctx, retailerID, req.Amount, models.WalletTxPayout, "", req.Note)
	if err != nil {
		return wc.walletError(c, err, "Failed to pay out")
	}

	actor := middleware.GetUserFromToken(c)
	if actor != nil {
		utils.WriteAuditLog(wc.Client, actor.UserID, actor.Role, "wallet.payout", "user", retailerID.Hex(), utils.FormatAmount(req.Amount))
	}

	if err := wc.Hub.NotifyWalletUpdate(retailerID, map[string]float64{"balance": newBalance}); err != nil {
		log.Printf("Wallet notification failed for %s: %v", retailerID.Hex(), err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout completed successfully",
		Data:    map[string]float64{"balance": newBalance},
	})
}

// verifyEmployee enforces the secondary employee-ID check on sensitive
// wallet operations. A true result means the response has already been
// written and the handler must stop.
func (wc *WalletController) verifyEmployee(c echo.Context, employeeID string) (bool, error) {
	if middleware.ExtractRole(c) != models.RoleEmployee {
		return false, nil
	}
	if employeeID == "" {
		return true, c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Employee ID verification is required for this operation",
		})
	}
	if err := utils.VerifyEmployeeID(wc.Client, middleware.ExtractUserID(c), employeeID); err != nil {
		return true, c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Employee ID verification failed",
		})
	}
	return false, nil
}

// walletError maps wallet service errors onto HTTP responses
func (wc *WalletController) walletError(c echo.Context, err error, fallback string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: verr.Error(),
		})
	case errors.Is(err, services.ErrInsufficientFunds):
		return c.JSON(http.StatusPaymentRequired, models.Response{
			Status:  http.StatusPaymentRequired,
			Message: "Insufficient wallet balance",
		})
	case errors.Is(err, services.ErrNotFound) || errors.Is(err, mongo.ErrNoDocuments):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	default:
		log.Printf("%s: %v", fallback, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: fallback,
		})
	}
}
