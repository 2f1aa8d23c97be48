package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/services"
	xhttp "github.com/ledgerline/statement-gateway/pkg/http"
)

type TransactionService interface {
	List(ctx context.Context, f model.TransactionFilter) ([]*model.BankTransaction, int64, error)
}

type DeletionService interface {
	Delete(ctx context.Context, req model.DeleteRequest) (*services.DeleteResult, error)
}

type TransactionHandler struct {
	svc      TransactionService
	deletion DeletionService
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.GET("/transactions", h.ListTransactions)
	e.POST("/transactions/delete", h.DeleteTransactions)
}

func NewTransactionHandler(transactionService TransactionService, deletionService DeletionService) *TransactionHandler {
	return &TransactionHandler{
		svc:      transactionService,
		deletion: deletionService,
	}
}

type listResponse struct {
	Items []*model.BankTransaction `json:"items"`
	Total int64                    `json:"total"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	var f model.TransactionFilter

	if v := query(ctx, "account_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.BankAccountID = &id
		}
	}
	if v := query(ctx, "q"); v != "" {
		f.Query = &v
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, listResponse{Items: items, Total: total})
}

func (h *TransactionHandler) DeleteTransactions(ctx *xhttp.RequestCtx) {
	var req model.DeleteRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	res, err := h.deletion.Delete(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(ctx, 404, err.Error())
		case errors.Is(err, services.ErrStillReferenced),
			errors.Is(err, services.ErrAlreadyDeleted):
			writeError(ctx, 409, err.Error())
		default:
			writeError(ctx, 400, err.Error())
		}
		return
	}
	writeJSON(ctx, 200, deleteResponse{Success: true, Count: res.Count, Message: res.Message})
}

/* -------------------------------- Helpers ----------------------------------- */

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
