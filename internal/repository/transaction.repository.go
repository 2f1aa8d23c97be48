package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/pkg/pg"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a transaction does not exist.
	ErrNotFound = errors.New("transaction not found")
	// ErrDuplicateHash is returned when an insert loses the race on the
	// unique hash index. Callers treat this as a duplicate, not a failure.
	ErrDuplicateHash = errors.New("transaction hash already exists")
)

// searchFields are the columns a free-text query is matched against,
// case-insensitively. The joined bank name participates too.
var searchFields = []string{
	"bank_transactions.description",
	"bank_transactions.category",
	"bank_transactions.reference",
	"bank_transactions.counterparty",
	"bank_transactions.merchant",
	"a.bank_name",
}

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.BankTransaction) (*model.BankTransaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateHash
		}
		return nil, err
	}

	return toTransactionModel(entity), nil
}

// ExistsByHash is the dedup lookup on the unique hash index.
func (r *TransactionRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var count int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("hash = ?", hash).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TransactionRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.BankTransaction, error) {
	var entities []*TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Preload("BankAccount").
		Preload("Attachments").
		Where("id IN ?", ids).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

// Search finds live transactions whose text fields (or linked bank name)
// contain the query, case-insensitively.
func (r *TransactionRepository) Search(ctx context.Context, query string) ([]*model.BankTransaction, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	conds := make([]string, len(searchFields))
	args := make([]interface{}, len(searchFields))
	for i, f := range searchFields {
		conds[i] = "LOWER(" + f + ") LIKE ?"
		args[i] = pattern
	}

	var entities []*TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Joins("LEFT JOIN bank_accounts AS a ON a.id = bank_transactions.bank_account_id").
		Where(strings.Join(conds, " OR "), args...).
		Preload("BankAccount").
		Preload("Attachments").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.BankTransaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{})

	if f.BankAccountID != nil {
		q = q.Where("bank_account_id = ?", *f.BankAccountID)
	}
	if f.Query != nil && *f.Query != "" {
		pattern := "%" + strings.ToLower(*f.Query) + "%"
		q = q.Where("LOWER(description) LIKE ? OR LOWER(counterparty) LIKE ? OR LOWER(merchant) LIKE ?", pattern, pattern, pattern)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "date"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*TransactionEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Preload("BankAccount").Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTransactionModels(entities), total, nil
}

// ListWindow returns candidates inside a date range whose amount falls in
// [min, max]. The matcher pushes its calendar-year and signed amount window
// down here so the scan stays in the database.
func (r *TransactionRepository) ListWindow(ctx context.Context, from, to time.Time, min, max decimal.Decimal) ([]*model.BankTransaction, error) {
	var entities []*TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Where("amount >= ? AND amount <= ?", min, max).
		Preload("BankAccount").
		Preload("Attachments").
		Order("date ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

// DeleteByIDs removes live rows. It runs inside the archive transaction and
// must never be called outside one.
func (r *TransactionRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	res := r.Write(ctx).WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&TransactionEntity{})
	return res.RowsAffected, res.Error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	// sqlite (tests) reports unique violations as a plain error string
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

// IsForeignKeyViolation reports whether err is the store rejecting an
// operation over referential integrity.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "foreign key")
}

// IsNotFound reports whether err is gorm's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
