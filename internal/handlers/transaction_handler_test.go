package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) List(ctx context.Context, f model.TransactionFilter) ([]*model.BankTransaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.BankTransaction), args.Get(1).(int64), args.Error(2)
}

type MockDeletionService struct {
	mock.Mock
}

func (m *MockDeletionService) Delete(ctx context.Context, req model.DeleteRequest) (*services.DeleteResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DeleteResult), args.Error(1)
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	t.Run("parses filters from query string", func(t *testing.T) {
		svc := new(MockTransactionService)
		handler := NewTransactionHandler(svc, nil)

		txns := []*model.BankTransaction{
			{ID: 1, Description: "COFFEE", Amount: decimal.RequireFromString("-4.20")},
		}

		svc.On("List", mock.Anything, mock.MatchedBy(func(f model.TransactionFilter) bool {
			return f.BankAccountID != nil && *f.BankAccountID == 3 &&
				f.Query != nil && *f.Query == "coffee" &&
				f.From != nil && f.From.Year() == 2024 &&
				f.Limit == 25 && f.Offset == 50 && f.Desc
		})).Return(txns, int64(1), nil)

		ctx := setupTestContext("GET", "/transactions?account_id=3&q=coffee&from=2024-01-01&limit=25&offset=50&order=desc", nil)
		handler.ListTransactions(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var resp listResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, int64(1), resp.Total)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "COFFEE", resp.Items[0].Description)

		svc.AssertExpectations(t)
	})

	t.Run("empty result", func(t *testing.T) {
		svc := new(MockTransactionService)
		handler := NewTransactionHandler(svc, nil)

		svc.On("List", mock.Anything, mock.Anything).Return([]*model.BankTransaction{}, int64(0), nil)

		ctx := setupTestContext("GET", "/transactions", nil)
		handler.ListTransactions(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})
}

func TestTransactionHandler_DeleteTransactions(t *testing.T) {
	t.Run("successful deletion by ids", func(t *testing.T) {
		del := new(MockDeletionService)
		handler := NewTransactionHandler(nil, del)

		del.On("Delete", mock.Anything, mock.MatchedBy(func(r model.DeleteRequest) bool {
			return len(r.TransactionIDs) == 2 && r.Reason == "duplicate import"
		})).Return(&services.DeleteResult{Count: 2, Message: "2 transactions archived and deleted"}, nil)

		body, _ := json.Marshal(model.DeleteRequest{
			TransactionIDs: []int64{10, 11},
			Reason:         "duplicate import",
			DeletedBy:      "ops@example.com",
		})
		ctx := setupTestContext("POST", "/transactions/delete", body)
		handler.DeleteTransactions(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var resp deleteResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 2, resp.Count)

		del.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		del := new(MockDeletionService)
		handler := NewTransactionHandler(nil, del)

		ctx := setupTestContext("POST", "/transactions/delete", []byte("not json"))
		handler.DeleteTransactions(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		del.AssertNotCalled(t, "Delete")
	})

	t.Run("nothing matched maps to 404", func(t *testing.T) {
		del := new(MockDeletionService)
		handler := NewTransactionHandler(nil, del)

		del.On("Delete", mock.Anything, mock.Anything).Return(nil, services.ErrNotFound)

		body, _ := json.Marshal(model.DeleteRequest{TransactionIDs: []int64{999}, Reason: "x", DeletedBy: "y"})
		ctx := setupTestContext("POST", "/transactions/delete", body)
		handler.DeleteTransactions(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("referenced rows map to 409", func(t *testing.T) {
		del := new(MockDeletionService)
		handler := NewTransactionHandler(nil, del)

		del.On("Delete", mock.Anything, mock.Anything).Return(nil, services.ErrStillReferenced)

		body, _ := json.Marshal(model.DeleteRequest{TransactionIDs: []int64{1}, Reason: "x", DeletedBy: "y"})
		ctx := setupTestContext("POST", "/transactions/delete", body)
		handler.DeleteTransactions(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("vanished rows map to 409", func(t *testing.T) {
		del := new(MockDeletionService)
		handler := NewTransactionHandler(nil, del)

		del.On("Delete", mock.Anything, mock.Anything).Return(nil, services.ErrAlreadyDeleted)

		body, _ := json.Marshal(model.DeleteRequest{TransactionIDs: []int64{1}, Reason: "x", DeletedBy: "y"})
		ctx := setupTestContext("POST", "/transactions/delete", body)
		handler.DeleteTransactions(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})
}
