package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/queue"
	"github.com/ledgerline/statement-gateway/pkg/logger"
	"github.com/ledgerline/statement-gateway/pkg/prom"
)

type TransactionReader interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*model.BankTransaction, error)
}

type StatementReader interface {
	TransactionIDs(ctx context.Context, statementID int64) ([]int64, error)
}

type LedgerEventProcessor struct {
	index           *KeywordIndex
	transactionRepo TransactionReader
	statementRepo   StatementReader
	idempotency     *IdempotencyService
}

func NewLedgerEventProcessor(index *KeywordIndex, transactionRepo TransactionReader, statementRepo StatementReader, idempotency *IdempotencyService) *LedgerEventProcessor {
	return &LedgerEventProcessor{
		index:           index,
		transactionRepo: transactionRepo,
		statementRepo:   statementRepo,
		idempotency:     idempotency,
	}
}

func (p *LedgerEventProcessor) GetType() string {
	return "ledger-event"
}

// Process applies one ledger event to the keyword index with idempotency
// guarantees. Events are delivered at least once; the EventID marker keeps
// redeliveries from double-applying.
func (p *LedgerEventProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	// Step 1: Parse event
	var event model.LedgerEvent
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("Failed to unmarshal ledger event", "error", err)
		return err // Return error to trigger DLQ move
	}
	if event.EventID == "" {
		logger.Error("Ledger event without event_id, dropping", "type", event.Type)
		return errors.New("ledger event missing event_id")
	}

	// Step 2: Acquire processing lock and check idempotency
	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, event.EventID)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			// Already applied - ACK to remove from queue
			logger.Info("Event already applied, skipping", "event_id", event.EventID)
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			// Max retries exceeded - ACK to move to DLQ
			logger.Error("Max retries exceeded for event", "event_id", event.EventID)
			return nil
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// Another consumer is processing - NACK to retry later
			logger.Info("Lock held by another consumer, will retry", "event_id", event.EventID)
			return errors.New("lock held by another consumer")
		}
		// Unexpected error - NACK to retry
		logger.Error("Failed to acquire lock", "event_id", event.EventID, "error", err)
		return err
	}

	defer func() {
		if procCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, procCtx)
		}
	}()

	logger.Info("Applying ledger event",
		"event_id", event.EventID,
		"type", event.Type,
		"retry_count", procCtx.RetryCount,
		"is_retry", procCtx.IsRetry)

	// Step 3: Apply the event
	if err := p.apply(ctx, event); err != nil {
		logger.Error("Failed to apply event", "event_id", event.EventID, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("Failed to mark failure", "event_id", event.EventID, "error", markErr)
		}
		return err // NACK to retry from queue
	}

	// Step 4: Mark done
	if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
		logger.Error("Failed to mark success", "event_id", event.EventID, "error", markErr)
		// Continue - the index operations themselves are idempotent
	}

	prom.IncCounterVec(prom.SystemLedger, prom.MetricEventsIndexed, event.Type)
	return nil // ACK event
}

func (p *LedgerEventProcessor) apply(ctx context.Context, event model.LedgerEvent) error {
	switch event.Type {
	case model.EventStatementImported:
		return p.indexStatement(ctx, event)
	case model.EventTransactionsDeleted:
		return p.removeTransactions(ctx, event)
	default:
		// Unknown types are acked, a retry won't make them recognizable
		logger.Warn("Unknown ledger event type, ignoring", "event_id", event.EventID, "type", event.Type)
		return nil
	}
}

func (p *LedgerEventProcessor) indexStatement(ctx context.Context, event model.LedgerEvent) error {
	ids := event.TransactionIDs
	if len(ids) == 0 && event.StatementID != 0 {
		var err error
		ids, err = p.statementRepo.TransactionIDs(ctx, event.StatementID)
		if err != nil {
			return fmt.Errorf("resolve statement %d: %w", event.StatementID, err)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	txns, err := p.transactionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	for _, txn := range txns {
		if err := p.index.Add(ctx, txn); err != nil {
			return fmt.Errorf("index transaction %d: %w", txn.ID, err)
		}
	}

	logger.Info("Indexed statement", "statement_id", event.StatementID, "transactions", len(txns))
	return nil
}

func (p *LedgerEventProcessor) removeTransactions(ctx context.Context, event model.LedgerEvent) error {
	for _, id := range event.TransactionIDs {
		if err := p.index.Remove(ctx, id); err != nil {
			return fmt.Errorf("unindex transaction %d: %w", id, err)
		}
	}

	logger.Info("Removed transactions from index", "transactions", len(event.TransactionIDs))
	return nil
}
