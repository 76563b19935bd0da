// models/wallet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wallet transaction types
const (
	WalletTxCredit      = "credit"
	WalletTxDebit       = "debit"
	WalletTxTransferIn  = "transfer_in"
	WalletTxTransferOut = "transfer_out"
	WalletTxPayout      = "payout"
)

// WalletTransaction records a single balance mutation together with the
// balance after the mutation was applied
type WalletTransaction struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"userId" bson:"userId"`
	Type         string             `json:"type" bson:"type"`
	Amount       float64            `json:"amount" bson:"amount"`
	BalanceAfter float64            `json:"balanceAfter" bson:"balanceAfter"`
	Reference    string             `json:"reference,omitempty" bson:"reference,omitempty"`
	Note         string             `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// FundTransferRequest moves balance between two users
type FundTransferRequest struct {
	FromUserID string  `json:"fromUserId" validate:"required"`
	ToUserID   string  `json:"toUserId" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Note       string  `json:"note,omitempty"`
	EmployeeID string  `json:"employeeId,omitempty"`
}

// TopUpRequest credits a retailer wallet
type TopUpRequest struct {
	UserID     string  `json:"userId" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Note       string  `json:"note,omitempty"`
	EmployeeID string  `json:"employeeId,omitempty"`
}

// PayoutRequest pays accumulated profit out to a retailer wallet
type PayoutRequest struct {
	RetailerID string  `json:"retailerId" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Note       string  `json:"note,omitempty"`
}
