package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, db *testDB) *model.BankAccount {
	t.Helper()
	accounts := NewAccountRepository(db.DB)
	acc, err := accounts.Create(context.Background(), &model.BankAccount{
		Name:     "Current Account",
		BankName: "Monzo",
		Currency: "GBP",
	})
	require.NoError(t, err)
	return acc
}

func testTransaction(accountID int64, hash string) *model.BankTransaction {
	return &model.BankTransaction{
		Date:          time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Description:   "AMAZON MKTP",
		Amount:        decimal.RequireFromString("-42.50"),
		Currency:      "GBP",
		Hash:          hash,
		BankAccountID: accountID,
	}
}

func TestTransactionRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	acc := seedAccount(t, db)
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		created, err := repo.Create(ctx, testTransaction(acc.ID, "hash-1"))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "AMAZON MKTP", created.Description)
		assert.True(t, created.Amount.Equal(decimal.RequireFromString("-42.50")))
	})

	t.Run("duplicate hash is rejected as ErrDuplicateHash", func(t *testing.T) {
		_, err := repo.Create(ctx, testTransaction(acc.ID, "hash-dup"))
		require.NoError(t, err)

		_, err = repo.Create(ctx, testTransaction(acc.ID, "hash-dup"))
		assert.ErrorIs(t, err, ErrDuplicateHash)
	})
}

func TestTransactionRepository_ExistsByHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	acc := seedAccount(t, db)
	ctx := context.Background()

	_, err := repo.Create(ctx, testTransaction(acc.ID, "hash-exists"))
	require.NoError(t, err)

	exists, err := repo.ExistsByHash(ctx, "hash-exists")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByHash(ctx, "hash-nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTransactionRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	acc := seedAccount(t, db)
	ctx := context.Background()

	txn := testTransaction(acc.ID, "hash-search-1")
	txn.Counterparty = "Amazon EU"
	_, err := repo.Create(ctx, txn)
	require.NoError(t, err)

	other := testTransaction(acc.ID, "hash-search-2")
	other.Description = "TESCO STORES"
	other.Counterparty = ""
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	t.Run("matches description case-insensitively", func(t *testing.T) {
		found, err := repo.Search(ctx, "amazon")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "AMAZON MKTP", found[0].Description)
	})

	t.Run("matches linked bank name", func(t *testing.T) {
		found, err := repo.Search(ctx, "monzo")
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("no matches", func(t *testing.T) {
		found, err := repo.Search(ctx, "starling")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestTransactionRepository_ListWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	acc := seedAccount(t, db)
	ctx := context.Background()

	inWindow := testTransaction(acc.ID, "hash-win-1")
	_, err := repo.Create(ctx, inWindow)
	require.NoError(t, err)

	wrongYear := testTransaction(acc.ID, "hash-win-2")
	wrongYear.Date = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = repo.Create(ctx, wrongYear)
	require.NoError(t, err)

	wrongAmount := testTransaction(acc.ID, "hash-win-3")
	wrongAmount.Amount = decimal.RequireFromString("-90.00")
	_, err = repo.Create(ctx, wrongAmount)
	require.NoError(t, err)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	found, err := repo.ListWindow(ctx, from, to,
		decimal.RequireFromString("-46.75"), decimal.RequireFromString("-38.25"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "hash-win-1", found[0].Hash)
	require.NotNil(t, found[0].BankAccount)
	assert.Equal(t, "Monzo", found[0].BankAccount.BankName)
}

func TestTransactionRepository_DeleteByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	acc := seedAccount(t, db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testTransaction(acc.ID, "hash-del"))
	require.NoError(t, err)

	n, err := repo.DeleteByIDs(ctx, []int64{created.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	exists, err := repo.ExistsByHash(ctx, "hash-del")
	require.NoError(t, err)
	assert.False(t, exists)
}
