package indexer

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func TestTokenize(t *testing.T) {
	t.Run("splits, lowercases and dedups", func(t *testing.T) {
		tokens := Tokenize("AMZN Mktp US*123", "Amazon", "amazon")
		assert.ElementsMatch(t, []string{"amzn", "mktp", "123", "amazon"}, tokens)
	})

	t.Run("drops short fragments", func(t *testing.T) {
		tokens := Tokenize("TO AC 42 COFFEE")
		assert.Equal(t, []string{"coffee"}, tokens)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Tokenize("", "  "))
	})
}

func TestKeywordIndex_AddAndLookup(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	index := NewKeywordIndex(adapter)
	ctx := context.Background()

	txn := &model.BankTransaction{
		ID:          42,
		Description: "ACME LTD invoice 2024",
		Merchant:    "Acme",
	}
	require.NoError(t, index.Add(ctx, txn))

	ids, err := index.Lookup(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids)

	ids, err = index.Lookup(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids)

	ids, err = index.Lookup(ctx, "unrelated")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestKeywordIndex_AddIsIdempotent(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	index := NewKeywordIndex(adapter)
	ctx := context.Background()

	txn := &model.BankTransaction{ID: 7, Description: "COFFEE SHOP"}
	require.NoError(t, index.Add(ctx, txn))
	require.NoError(t, index.Add(ctx, txn))

	ids, err := index.Lookup(ctx, "coffee")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)
}

func TestKeywordIndex_Remove(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	index := NewKeywordIndex(adapter)
	ctx := context.Background()

	a := &model.BankTransaction{ID: 1, Description: "ACME LTD"}
	b := &model.BankTransaction{ID: 2, Description: "ACME GMBH"}
	require.NoError(t, index.Add(ctx, a))
	require.NoError(t, index.Add(ctx, b))

	require.NoError(t, index.Remove(ctx, 1))

	ids, err := index.Lookup(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	ids, err = index.Lookup(ctx, "ltd")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// removing an unknown id is a no-op
	require.NoError(t, index.Remove(ctx, 99))
}
