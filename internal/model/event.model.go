package model

// Ledger event types carried on the queue. Mutations publish these after
// commit; the indexer consumes them. Delivery is at-least-once, consumers
// must dedup on EventID.
const (
	EventStatementImported   = "statement.imported"
	EventTransactionsDeleted = "transactions.deleted"
)

type LedgerEvent struct {
	EventID        string  `json:"event_id"`
	Type           string  `json:"type"`
	BankAccountID  int64   `json:"bank_account_id,omitempty"`
	StatementID    int64   `json:"statement_id,omitempty"`
	TransactionIDs []int64 `json:"transaction_ids,omitempty"`
}
