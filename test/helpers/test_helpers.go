package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ledgerline/statement-gateway/internal/repository"
	"github.com/ledgerline/statement-gateway/internal/statement"
	"github.com/ledgerline/statement-gateway/pkg/pg"
	"github.com/ledgerline/statement-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.AccountEntity{},
		&repository.StatementEntity{},
		&repository.TransactionEntity{},
		&repository.AttachmentEntity{},
		&repository.DeletedTransactionEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter("test", "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestAccount(t *testing.T, db *pg.DB, name, bankName, currency string) *repository.AccountEntity {
	ctx := context.Background()
	account := &repository.AccountEntity{
		Name:     name,
		BankName: bankName,
		Currency: currency,
	}
	err := db.Write(ctx).Create(account).Error
	require.NoError(t, err)
	return account
}

func CreateTestStatement(t *testing.T, db *pg.DB, accountID int64, filename string) *repository.StatementEntity {
	ctx := context.Background()
	stmt := &repository.StatementEntity{
		Filename:      filename,
		BankAccountID: accountID,
		UploadedAt:    time.Now(),
	}
	err := db.Write(ctx).Create(stmt).Error
	require.NoError(t, err)
	return stmt
}

func CreateTestTransaction(t *testing.T, db *pg.DB, accountID int64, date time.Time, description, amount string) *repository.TransactionEntity {
	ctx := context.Background()
	amt, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	txn := &repository.TransactionEntity{
		Date:          date,
		Description:   description,
		Amount:        amt,
		Currency:      "GBP",
		Hash:          statement.Fingerprint(date, amt, description, "GBP"),
		BankAccountID: accountID,
	}
	err = db.Write(ctx).Create(txn).Error
	require.NoError(t, err)
	return txn
}

func CreateTestAttachment(t *testing.T, db *pg.DB, transactionID *int64, path, originalName string) *repository.AttachmentEntity {
	ctx := context.Background()
	att := &repository.AttachmentEntity{
		Path:          path,
		OriginalName:  originalName,
		TransactionID: transactionID,
	}
	err := db.Write(ctx).Create(att).Error
	require.NoError(t, err)
	return att
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
