package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexvia/nexvia_portal_backend/models"
)

// fakeWalletStore is an in-memory WalletStore. A single mutex stands in
// for the transactional isolation the production store gets from
// database sessions.
type fakeWalletStore struct {
	mu       sync.Mutex
	balances map[primitive.ObjectID]float64
	ledger   []models.WalletTransaction
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{balances: make(map[primitive.ObjectID]float64)}
}

func (f *fakeWalletStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshotBalances := make(map[primitive.ObjectID]float64, len(f.balances))
	for id, balance := range f.balances {
		snapshotBalances[id] = balance
	}
	snapshotLedger := len(f.ledger)

	if err := fn(ctx); err != nil {
		f.balances = snapshotBalances
		f.ledger = f.ledger[:snapshotLedger]
		return err
	}
	return nil
}

func (f *fakeWalletStore) GetUser(_ context.Context, userID primitive.ObjectID) (*models.User, error) {
	balance, ok := f.balances[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &models.User{ID: userID, Balance: balance}, nil
}

func (f *fakeWalletStore) UpdateBalance(_ context.Context, userID primitive.ObjectID, newBalance float64) error {
	if _, ok := f.balances[userID]; !ok {
		return ErrNotFound
	}
	f.balances[userID] = newBalance
	return nil
}

func (f *fakeWalletStore) InsertWalletTransaction(_ context.Context, tx *models.WalletTransaction) error {
	f.ledger = append(f.ledger, *tx)
	return nil
}

func (f *fakeWalletStore) ListWalletTransactions(_ context.Context, userID primitive.ObjectID, limit int64) ([]models.WalletTransaction, error) {
	var out []models.WalletTransaction
	for i := len(f.ledger) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if f.ledger[i].UserID == userID {
			out = append(out, f.ledger[i])
		}
	}
	return out, nil
}

func TestCreditAddsFundsAndRecordsLedger(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	userID := primitive.NewObjectID()
	store.balances[userID] = 10

	balance, err := svc.Credit(context.Background(), userID, 25.50, models.WalletTxCredit, "", "topup")
	require.NoError(t, err)
	assert.Equal(t, 35.50, balance)

	require.Len(t, store.ledger, 1)
	assert.Equal(t, models.WalletTxCredit, store.ledger[0].Type)
	assert.Equal(t, 35.50, store.ledger[0].BalanceAfter)
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	svc := NewWalletService(newFakeWalletStore())

	var verr *ValidationError
	_, err := svc.Credit(context.Background(), primitive.NewObjectID(), 0, models.WalletTxCredit, "", "")
	require.ErrorAs(t, err, &verr)
	_, err = svc.Credit(context.Background(), primitive.NewObjectID(), -5, models.WalletTxCredit, "", "")
	assert.ErrorAs(t, err, &verr)
}

func TestDebitInsufficientFunds(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	userID := primitive.NewObjectID()
	store.balances[userID] = 10

	_, err := svc.Debit(context.Background(), userID, 10.01, "", "")
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, 10.0, store.balances[userID])
	assert.Empty(t, store.ledger)
}

func TestDebitExactBalanceSucceeds(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	userID := primitive.NewObjectID()
	store.balances[userID] = 22

	balance, err := svc.Debit(context.Background(), userID, 22, "RCPT-1", "activation")
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestDebitAndRecordRollsBackOnCallbackFailure(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	userID := primitive.NewObjectID()
	store.balances[userID] = 100

	recordErr := errors.New("insert failed")
	_, err := svc.DebitAndRecord(context.Background(), userID, 40, "RCPT-2", "", func(context.Context) error {
		return recordErr
	})
	require.ErrorIs(t, err, recordErr)

	// The debit and its ledger entry are rolled back with the record
	assert.Equal(t, 100.0, store.balances[userID])
	assert.Empty(t, store.ledger)
}

func TestCreditAndRecordSkipsCreditWhenCallbackFails(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	userID := primitive.NewObjectID()
	store.balances[userID] = 10

	// A refund whose record step loses the race must not credit
	recordErr := errors.New("already finalized")
	_, err := svc.CreditAndRecord(context.Background(), userID, 40, models.WalletTxCredit, "RCPT-3", "refund", func(context.Context) error {
		return recordErr
	})
	require.ErrorIs(t, err, recordErr)

	assert.Equal(t, 10.0, store.balances[userID])
	assert.Empty(t, store.ledger)
}

func TestCreditAndRecordRollsBackRecordWhenCreditFails(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	// Unknown wallet owner: the credit fails after the record callback
	// already ran, so the whole transaction aborts
	recorded := false
	_, err := svc.CreditAndRecord(context.Background(), primitive.NewObjectID(), 40, models.WalletTxCredit, "RCPT-4", "refund", func(context.Context) error {
		recorded = true
		return nil
	})
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, recorded)
	assert.Empty(t, store.ledger)
}

func TestConcurrentDebitsCannotDoubleSpend(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	userID := primitive.NewObjectID()
	store.balances[userID] = 30

	// Two concurrent debits of 25 against a balance of 30: exactly one
	// can succeed
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Debit(context.Background(), userID, 25, "", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var failures, successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrInsufficientFunds)
			failures++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 5.0, store.balances[userID])
	assert.Len(t, store.ledger, 1)
}

func TestConcurrentDuplicateTransfersCannotDoubleSpend(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	fromID := primitive.NewObjectID()
	toID := primitive.NewObjectID()
	store.balances[fromID] = 50
	store.balances[toID] = 0

	// A duplicate-submitted transfer of the full balance: exactly one
	// copy may land
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), fromID, toID, 50, "duplicate submit")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0.0, store.balances[fromID])
	assert.Equal(t, 50.0, store.balances[toID])
	assert.Len(t, store.ledger, 2)
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	fromID := primitive.NewObjectID()
	toID := primitive.NewObjectID()
	store.balances[fromID] = 100
	store.balances[toID] = 5

	result, err := svc.Transfer(context.Background(), fromID, toID, 60, "restock")
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.FromBalance)
	assert.Equal(t, 65.0, result.ToBalance)

	require.Len(t, store.ledger, 2)
	assert.Equal(t, models.WalletTxTransferOut, store.ledger[0].Type)
	assert.Equal(t, models.WalletTxTransferIn, store.ledger[1].Type)
	assert.Equal(t, toID.Hex(), store.ledger[0].Reference)
}

func TestTransferInsufficientFundsLeavesBothUntouched(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	fromID := primitive.NewObjectID()
	toID := primitive.NewObjectID()
	store.balances[fromID] = 10
	store.balances[toID] = 5

	_, err := svc.Transfer(context.Background(), fromID, toID, 60, "")
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, 10.0, store.balances[fromID])
	assert.Equal(t, 5.0, store.balances[toID])
	assert.Empty(t, store.ledger)
}

func TestTransferToSelfRejected(t *testing.T) {
	svc := NewWalletService(newFakeWalletStore())

	userID := primitive.NewObjectID()
	var verr *ValidationError
	_, err := svc.Transfer(context.Background(), userID, userID, 10, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "toUserId", verr.Field)
}

func TestTransactionsDefaultsLimit(t *testing.T) {
	store := newFakeWalletStore()
	svc := NewWalletService(store)

	userID := primitive.NewObjectID()
	store.balances[userID] = 1000
	for i := 0; i < 60; i++ {
		_, err := svc.Credit(context.Background(), userID, 1, models.WalletTxCredit, "", "")
		require.NoError(t, err)
	}

	transactions, err := svc.Transactions(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Len(t, transactions, 50)
}
