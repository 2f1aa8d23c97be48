package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/services"
	xhttp "github.com/ledgerline/statement-gateway/pkg/http"
)

type ImportService interface {
	Import(ctx context.Context, accountID int64, filename string, r io.Reader) (*model.ImportSummary, error)
}

type StatementHandler struct {
	svc ImportService
}

func RegisterStatementRoutes(e *router.Group, h *StatementHandler) {
	e.POST("/statements", h.UploadStatement)
}

func NewStatementHandler(importService ImportService) *StatementHandler {
	return &StatementHandler{
		svc: importService,
	}
}

// UploadStatement accepts a CSV either as a multipart "file" part or as the
// raw request body.
func (h *StatementHandler) UploadStatement(ctx *xhttp.RequestCtx) {
	accountID, err := strconv.ParseInt(formOrQuery(ctx, "account_id"), 10, 64)
	if err != nil {
		writeError(ctx, 400, "account_id is required")
		return
	}

	filename, body, err := statementBody(ctx)
	if err != nil {
		writeError(ctx, 400, "no statement file in request: "+err.Error())
		return
	}
	defer body.Close()

	summary, err := h.svc.Import(ctx, accountID, filename, body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadStatementFormat):
			writeError(ctx, 400, err.Error())
		case errors.Is(err, services.ErrUnknownAccount):
			writeError(ctx, 404, err.Error())
		default:
			writeError(ctx, 500, err.Error())
		}
		return
	}
	writeJSON(ctx, 200, summary)
}

func statementBody(ctx *xhttp.RequestCtx) (string, io.ReadCloser, error) {
	if fh, err := ctx.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", nil, err
		}
		return fh.Filename, f, nil
	}
	if body := ctx.PostBody(); len(body) > 0 {
		return "upload.csv", io.NopCloser(bytes.NewReader(body)), nil
	}
	return "", nil, errors.New("empty body")
}

func formOrQuery(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.FormValue(key))
}
