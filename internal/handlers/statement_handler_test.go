package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"testing"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/services"
	xhttp "github.com/ledgerline/statement-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Import(ctx context.Context, accountID int64, filename string, r io.Reader) (*model.ImportSummary, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, accountID, filename, string(body))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportSummary), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func TestStatementHandler_UploadStatement(t *testing.T) {
	const csv = "Date,Amount,Description\n2024-05-01,-42.50,COFFEE\n"

	t.Run("successful upload from raw body", func(t *testing.T) {
		svc := new(MockImportService)
		handler := NewStatementHandler(svc)

		summary := &model.ImportSummary{StatementID: 7, Imported: 1}
		svc.On("Import", mock.Anything, int64(3), "upload.csv", csv).Return(summary, nil)

		ctx := setupTestContext("POST", "/statements?account_id=3", []byte(csv))
		handler.UploadStatement(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var resp model.ImportSummary
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, int64(7), resp.StatementID)
		assert.Equal(t, 1, resp.Imported)

		svc.AssertExpectations(t)
	})

	t.Run("successful upload from multipart file", func(t *testing.T) {
		svc := new(MockImportService)
		handler := NewStatementHandler(svc)

		summary := &model.ImportSummary{StatementID: 8, Imported: 1}
		svc.On("Import", mock.Anything, int64(3), "march.csv", csv).Return(summary, nil)

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", "march.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, w.WriteField("account_id", "3"))
		require.NoError(t, w.Close())

		ctx := setupTestContext("POST", "/statements", buf.Bytes())
		ctx.Request.Header.SetContentType(w.FormDataContentType())
		handler.UploadStatement(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("multipart body is closed after import", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", "march.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		ctx := setupTestContext("POST", "/statements", buf.Bytes())
		ctx.Request.Header.SetContentType(w.FormDataContentType())

		filename, body, err := statementBody(ctx)
		require.NoError(t, err)
		assert.Equal(t, "march.csv", filename)

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, csv, string(data))
		assert.NoError(t, body.Close())
	})

	t.Run("missing account_id", func(t *testing.T) {
		svc := new(MockImportService)
		handler := NewStatementHandler(svc)

		ctx := setupTestContext("POST", "/statements", []byte(csv))
		handler.UploadStatement(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Import")
	})

	t.Run("empty body", func(t *testing.T) {
		svc := new(MockImportService)
		handler := NewStatementHandler(svc)

		ctx := setupTestContext("POST", "/statements?account_id=3", nil)
		handler.UploadStatement(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Import")
	})

	t.Run("unrecognized format maps to 400", func(t *testing.T) {
		svc := new(MockImportService)
		handler := NewStatementHandler(svc)

		svc.On("Import", mock.Anything, int64(3), "upload.csv", mock.Anything).
			Return(nil, services.ErrBadStatementFormat)

		ctx := setupTestContext("POST", "/statements?account_id=3", []byte("garbage"))
		handler.UploadStatement(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("unknown account maps to 404", func(t *testing.T) {
		svc := new(MockImportService)
		handler := NewStatementHandler(svc)

		svc.On("Import", mock.Anything, int64(99), "upload.csv", csv).
			Return(nil, services.ErrUnknownAccount)

		ctx := setupTestContext("POST", "/statements?account_id=99", []byte(csv))
		handler.UploadStatement(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}
