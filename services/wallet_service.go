// services/wallet_service.go
package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/utils"
)

// ErrInsufficientFunds is returned when a debit or transfer would take
// a balance below zero
var ErrInsufficientFunds = errors.New("insufficient funds")

// WalletStore is the persistence surface for balance mutations. Every
// mutation runs inside WithTransaction so the read-balance /
// check-sufficiency / write-balance sequence is atomic and concurrent
// requests against the same account cannot double spend.
type WalletStore interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateBalance(ctx context.Context, userID primitive.ObjectID, newBalance float64) error
	InsertWalletTransaction(ctx context.Context, tx *models.WalletTransaction) error
	ListWalletTransactions(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.WalletTransaction, error)
}

// WalletService applies balance mutations and keeps the wallet ledger
type WalletService struct {
	store WalletStore
}

// NewWalletService creates a wallet service on top of a store
func NewWalletService(store WalletStore) *WalletService {
	return &WalletService{store: store}
}

// Credit adds funds to a user's wallet and records a ledger entry
func (s *WalletService) Credit(ctx context.Context, userID primitive.ObjectID, amount float64, txType, reference, note string) (float64, error) {
	return s.CreditAndRecord(ctx, userID, amount, txType, reference, note, nil)
}

// CreditAndRecord credits a wallet and, inside the same transaction,
// runs an extra record callback first (e.g. finalizing the activation
// a refund belongs to). If either side fails nothing is committed: a
// lost callback race leaves the balance alone, and a failed credit
// rolls the callback's writes back.
func (s *WalletService) CreditAndRecord(ctx context.Context, userID primitive.ObjectID, amount float64, txType, reference, note string, record func(ctx context.Context) error) (float64, error) {
	if amount <= 0 {
		return 0, &ValidationError{Field: "amount", Message: "amount must be positive"}
	}

	var newBalance float64
	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		if record != nil {
			if err := record(txCtx); err != nil {
				return err
			}
		}

		user, err := s.store.GetUser(txCtx, userID)
		if err != nil {
			return err
		}

		newBalance = utils.RoundCents(user.Balance + amount)
		if err := s.store.UpdateBalance(txCtx, userID, newBalance); err != nil {
			return err
		}

		return s.store.InsertWalletTransaction(txCtx, &models.WalletTransaction{
			UserID:       userID,
			Type:         txType,
			Amount:       utils.RoundCents(amount),
			BalanceAfter: newBalance,
			Reference:    reference,
			Note:         note,
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Debit removes funds from a user's wallet, failing with
// ErrInsufficientFunds when the balance does not cover the amount
func (s *WalletService) Debit(ctx context.Context, userID primitive.ObjectID, amount float64, reference, note string) (float64, error) {
	return s.DebitAndRecord(ctx, userID, amount, reference, note, nil)
}

// DebitAndRecord debits a wallet and, inside the same transaction, runs
// an extra record callback (e.g. inserting the activation ledger row).
// If the callback fails the debit is rolled back too, so a failed
// submission never leaves a partial write behind.
func (s *WalletService) DebitAndRecord(ctx context.Context, userID primitive.ObjectID, amount float64, reference, note string, record func(ctx context.Context) error) (float64, error) {
	if amount <= 0 {
		return 0, &ValidationError{Field: "amount", Message: "amount must be positive"}
	}

	var newBalance float64
	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		user, err := s.store.GetUser(txCtx, userID)
		if err != nil {
			return err
		}

		if user.Balance < amount {
			return ErrInsufficientFunds
		}

		newBalance = utils.RoundCents(user.Balance - amount)
		if err := s.store.UpdateBalance(txCtx, userID, newBalance); err != nil {
			return err
		}

		if err := s.store.InsertWalletTransaction(txCtx, &models.WalletTransaction{
			UserID:       userID,
			Type:         models.WalletTxDebit,
			Amount:       utils.RoundCents(amount),
			BalanceAfter: newBalance,
			Reference:    reference,
			Note:         note,
			CreatedAt:    time.Now(),
		}); err != nil {
			return err
		}

		if record != nil {
			return record(txCtx)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// TransferResult reports both balances after a completed transfer
type TransferResult struct {
	FromBalance float64 `json:"fromBalance"`
	ToBalance   float64 `json:"toBalance"`
}

// Transfer moves funds between two wallets atomically. Exactly one of
// two concurrent transfers against the same source balance can succeed;
// the other aborts with ErrInsufficientFunds.
func (s *WalletService) Transfer(ctx context.Context, fromID, toID primitive.ObjectID, amount float64, note string) (*TransferResult, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	if fromID == toID {
		return nil, &ValidationError{Field: "toUserId", Message: "cannot transfer to the same account"}
	}

	var result TransferResult
	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		from, err := s.store.GetUser(txCtx, fromID)
		if err != nil {
			return err
		}
		to, err := s.store.GetUser(txCtx, toID)
		if err != nil {
			return err
		}

		if from.Balance < amount {
			return ErrInsufficientFunds
		}

		now := time.Now()
		result.FromBalance = utils.RoundCents(from.Balance - amount)
		result.ToBalance = utils.RoundCents(to.Balance + amount)

		if err := s.store.UpdateBalance(txCtx, fromID, result.FromBalance); err != nil {
			return err
		}
		if err := s.store.UpdateBalance(txCtx, toID, result.ToBalance); err != nil {
			return err
		}

		if err := s.store.InsertWalletTransaction(txCtx, &models.WalletTransaction{
			UserID:       fromID,
			Type:         models.WalletTxTransferOut,
			Amount:       utils.RoundCents(amount),
			BalanceAfter: result.FromBalance,
			Reference:    toID.Hex(),
			Note:         note,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		return s.store.InsertWalletTransaction(txCtx, &models.WalletTransaction{
			UserID:       toID,
			Type:         models.WalletTxTransferIn,
			Amount:       utils.RoundCents(amount),
			BalanceAfter: result.ToBalance,
			Reference:    fromID.Hex(),
			Note:         note,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Transactions returns the most recent wallet ledger entries for a user
func (s *WalletService) Transactions(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListWalletTransactions(ctx, userID, limit)
}
