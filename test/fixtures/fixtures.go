package fixtures

import (
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/statement"
	"github.com/shopspring/decimal"
)

var (
	TestAccountCurrent = model.BankAccount{
		ID:       1,
		Name:     "Current Account",
		BankName: "First National",
		Currency: "GBP",
	}

	TestAccountSavings = model.BankAccount{
		ID:       2,
		Name:     "Savings",
		BankName: "First National",
		Currency: "GBP",
	}

	TestAccountEuro = model.BankAccount{
		ID:       3,
		Name:     "EUR Operations",
		BankName: "Continental Bank",
		Currency: "EUR",
	}
)

// SimpleStatementCSV has a recognisable header and three clean rows.
const SimpleStatementCSV = `Date,Description,Amount,Currency
2024-03-01,ACME SUPPLIES LTD,-120.50,GBP
2024-03-02,CLIENT PAYMENT REF 8841,950.00,GBP
2024-03-05,OFFICE RENT MARCH,-800.00,GBP
`

// StatementCSVWithBadRows mixes valid rows with rows that cannot be parsed.
const StatementCSVWithBadRows = `Date,Description,Amount
2024-03-01,COFFEE SHOP,-4.20
not-a-date,BROKEN ROW,xx
2024-03-03,TRAIN TICKET,-32.00
`

// StatementCSVNoHeader has no detectable header row.
const StatementCSVNoHeader = `hello,world
foo,bar
`

func NewTestTransaction(accountID int64, date time.Time, description string, amount string) *model.BankTransaction {
	amt := decimal.RequireFromString(amount)
	return &model.BankTransaction{
		Date:          date,
		Description:   description,
		Amount:        amt,
		Currency:      "GBP",
		Hash:          statement.Fingerprint(date, amt, description, "GBP"),
		BankAccountID: accountID,
	}
}

func NewTestInvoice(issuer string, amount string, date string, role model.DocumentRole) model.ExtractedInvoice {
	return model.ExtractedInvoice{
		Issuer:       issuer,
		Amount:       decimal.RequireFromString(amount),
		Date:         date,
		Currency:     "GBP",
		DocumentRole: role,
	}
}

func NewTestDeleteRequest(ids []int64, reason, deletedBy string) model.DeleteRequest {
	return model.DeleteRequest{
		TransactionIDs: ids,
		Reason:         reason,
		DeletedBy:      deletedBy,
	}
}

func FilterByAccount(accountID int64) model.TransactionFilter {
	return model.TransactionFilter{
		BankAccountID: &accountID,
		Limit:         50,
		Offset:        0,
		Desc:          false,
	}
}

func FilterWithPagination(accountID int64, limit, offset int) model.TransactionFilter {
	return model.TransactionFilter{
		BankAccountID: &accountID,
		Limit:         limit,
		Offset:        offset,
		Desc:          false,
	}
}

func FilterByQuery(accountID int64, query string) model.TransactionFilter {
	return model.TransactionFilter{
		BankAccountID: &accountID,
		Query:         &query,
		Limit:         50,
		Offset:        0,
		Desc:          false,
	}
}

func FilterByDateRange(accountID int64, from, to time.Time) model.TransactionFilter {
	return model.TransactionFilter{
		BankAccountID: &accountID,
		From:          &from,
		To:            &to,
		Limit:         50,
		Offset:        0,
		Desc:          false,
	}
}
