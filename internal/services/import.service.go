package services

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/repository"
	"github.com/ledgerline/statement-gateway/internal/statement"
	"github.com/ledgerline/statement-gateway/pkg/logger"
	"github.com/ledgerline/statement-gateway/pkg/prom"
)

var (
	ErrBadStatementFormat = errors.New("statement format not recognized")
	ErrUnknownAccount     = errors.New("bank account does not exist")
)

type ImportTransactionRepository interface {
	Create(ctx context.Context, txn *model.BankTransaction) (*model.BankTransaction, error)
	ExistsByHash(ctx context.Context, hash string) (bool, error)
}

type ImportStatementRepository interface {
	Create(ctx context.Context, st *model.BankStatement) (*model.BankStatement, error)
}

type ImportAccountRepository interface {
	GetByID(ctx context.Context, id int64) (*model.BankAccount, error)
}

// EventPublisher hands committed mutations to the reindex queue. Publishing
// is best-effort everywhere it is used: a failed publish never fails the
// request that triggered it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

type ImportService struct {
	parser         *statement.Parser
	statementRepo  ImportStatementRepository
	transactionRepo ImportTransactionRepository
	accountRepo    ImportAccountRepository
	events         EventPublisher
}

func NewImportService(parser *statement.Parser, statementRepo ImportStatementRepository, transactionRepo ImportTransactionRepository, accountRepo ImportAccountRepository, events EventPublisher) *ImportService {
	return &ImportService{
		parser:          parser,
		statementRepo:   statementRepo,
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		events:          events,
	}
}

// Import runs one upload end to end: parse, create the batch marker, then
// insert row by row with hash dedup. A format-level failure rejects the
// whole upload; a single row's failure is logged and the batch continues.
// Two concurrent imports of overlapping files are safe only because the
// store enforces hash uniqueness: the losing insert is counted as a
// duplicate.
func (s *ImportService) Import(ctx context.Context, accountID int64, filename string, r io.Reader) (*model.ImportSummary, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}

	parsed, err := s.parser.Parse(r)
	if err != nil {
		if errors.Is(err, statement.ErrMissingColumns) || errors.Is(err, statement.ErrEmptyFile) {
			return nil, ErrBadStatementFormat
		}
		return nil, err
	}

	// One batch marker per upload call, even if every row is a duplicate.
	st, err := s.statementRepo.Create(ctx, &model.BankStatement{
		Filename:      filename,
		BankAccountID: accountID,
	})
	if err != nil {
		return nil, err
	}

	summary := &model.ImportSummary{
		StatementID: st.ID,
		Skipped:     parsed.Skipped,
	}

	for _, row := range parsed.Rows {
		hash := statement.RowFingerprint(row)

		exists, err := s.transactionRepo.ExistsByHash(ctx, hash)
		if err != nil {
			logger.Error("import: hash lookup failed, skipping row", "hash", hash, "error", err)
			summary.Skipped++
			continue
		}
		if exists {
			summary.Duplicates++
			continue
		}

		_, err = s.transactionRepo.Create(ctx, &model.BankTransaction{
			Date:            row.Date,
			Description:     row.Description,
			Amount:          row.Amount,
			Currency:        row.Currency,
			Hash:            hash,
			BankAccountID:   accountID,
			BankStatementID: &st.ID,
		})
		if errors.Is(err, repository.ErrDuplicateHash) {
			// lost an insert race with a concurrent import of the same row
			summary.Duplicates++
			continue
		}
		if err != nil {
			logger.Error("import: row insert failed, continuing batch", "hash", hash, "error", err)
			summary.Skipped++
			continue
		}
		summary.Imported++
	}

	prom.IncCounter(prom.SystemLedger, prom.MetricStatementsImported)
	prom.AddCounter(prom.SystemLedger, prom.MetricTransactionsImported, float64(summary.Imported))
	prom.AddCounter(prom.SystemLedger, prom.MetricTransactionsDuplicate, float64(summary.Duplicates))

	s.publishImported(ctx, accountID, st.ID)

	return summary, nil
}

func (s *ImportService) publishImported(ctx context.Context, accountID, statementID int64) {
	if s.events == nil {
		return
	}
	ev := model.LedgerEvent{
		EventID:       uuid.NewString(),
		Type:          model.EventStatementImported,
		BankAccountID: accountID,
		StatementID:   statementID,
	}
	if _, err := s.events.PublishJSON(ctx, ev, nil); err != nil {
		logger.Error("import: reindex publish failed", "statement_id", statementID, "error", err)
	}
}
