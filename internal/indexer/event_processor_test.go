package indexer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransactionReader struct {
	txns map[int64]*model.BankTransaction
}

func (f *fakeTransactionReader) GetByIDs(ctx context.Context, ids []int64) ([]*model.BankTransaction, error) {
	var out []*model.BankTransaction
	for _, id := range ids {
		if txn, ok := f.txns[id]; ok {
			out = append(out, txn)
		}
	}
	return out, nil
}

type fakeStatementReader struct {
	byStatement map[int64][]int64
}

func (f *fakeStatementReader) TransactionIDs(ctx context.Context, statementID int64) ([]int64, error) {
	return f.byStatement[statementID], nil
}

func eventMessage(t *testing.T, ev model.LedgerEvent) *queue.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return &queue.Message{ID: ev.EventID, Data: b}
}

func newTestProcessor(t *testing.T) (*LedgerEventProcessor, *KeywordIndex, *fakeTransactionReader, *fakeStatementReader, func()) {
	mr, adapter := setupTestRedis(t)

	index := NewKeywordIndex(adapter)
	txns := &fakeTransactionReader{txns: map[int64]*model.BankTransaction{
		1: {ID: 1, Description: "ACME LTD invoice"},
		2: {ID: 2, Description: "COFFEE SHOP"},
	}}
	stmts := &fakeStatementReader{byStatement: map[int64][]int64{10: {1, 2}}}
	idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())

	return NewLedgerEventProcessor(index, txns, stmts, idem), index, txns, stmts, func() { mr.Close() }
}

func TestLedgerEventProcessor_StatementImported(t *testing.T) {
	p, index, _, _, cleanup := newTestProcessor(t)
	defer cleanup()

	ctx := context.Background()
	ev := model.LedgerEvent{
		EventID:     "ev-1",
		Type:        model.EventStatementImported,
		StatementID: 10,
	}

	require.NoError(t, p.Process(ctx, eventMessage(t, ev)))

	ids, err := index.Lookup(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	ids, err = index.Lookup(ctx, "coffee")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestLedgerEventProcessor_Redelivery(t *testing.T) {
	p, index, _, _, cleanup := newTestProcessor(t)
	defer cleanup()

	ctx := context.Background()
	ev := model.LedgerEvent{
		EventID:     "ev-dup",
		Type:        model.EventStatementImported,
		StatementID: 10,
	}

	require.NoError(t, p.Process(ctx, eventMessage(t, ev)))
	// second delivery of the same event is acked without reapplying
	require.NoError(t, p.Process(ctx, eventMessage(t, ev)))

	ids, err := index.Lookup(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestLedgerEventProcessor_TransactionsDeleted(t *testing.T) {
	p, index, _, _, cleanup := newTestProcessor(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, p.Process(ctx, eventMessage(t, model.LedgerEvent{
		EventID:     "ev-import",
		Type:        model.EventStatementImported,
		StatementID: 10,
	})))

	require.NoError(t, p.Process(ctx, eventMessage(t, model.LedgerEvent{
		EventID:        "ev-delete",
		Type:           model.EventTransactionsDeleted,
		TransactionIDs: []int64{1},
	})))

	ids, err := index.Lookup(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = index.Lookup(ctx, "coffee")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestLedgerEventProcessor_BadPayload(t *testing.T) {
	p, _, _, _, cleanup := newTestProcessor(t)
	defer cleanup()

	err := p.Process(context.Background(), &queue.Message{ID: "bad", Data: []byte("not json")})
	assert.Error(t, err)
}

func TestLedgerEventProcessor_MissingEventID(t *testing.T) {
	p, _, _, _, cleanup := newTestProcessor(t)
	defer cleanup()

	err := p.Process(context.Background(), eventMessage(t, model.LedgerEvent{
		Type:        model.EventStatementImported,
		StatementID: 10,
	}))
	assert.Error(t, err)
}

func TestLedgerEventProcessor_UnknownTypeIsAcked(t *testing.T) {
	p, _, _, _, cleanup := newTestProcessor(t)
	defer cleanup()

	err := p.Process(context.Background(), eventMessage(t, model.LedgerEvent{
		EventID: "ev-unknown",
		Type:    "statement.rotated",
	}))
	assert.NoError(t, err)
}
