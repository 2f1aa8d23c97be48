package handlers

import (
	"context"
	"io"

	"github.com/fasthttp/router"
	"github.com/ledgerline/statement-gateway/internal/model"
	xhttp "github.com/ledgerline/statement-gateway/pkg/http"
)

type DocumentAnalyzer interface {
	Analyze(ctx context.Context, filename string, content []byte) (*model.DocumentAnalysis, error)
}

type DocumentHandler struct {
	analyzer DocumentAnalyzer
	matcher  MatchService
}

func RegisterDocumentRoutes(e *router.Group, h *DocumentHandler) {
	e.POST("/documents/analyze", h.AnalyzeDocument)
}

func NewDocumentHandler(analyzer DocumentAnalyzer, matcher MatchService) *DocumentHandler {
	return &DocumentHandler{
		analyzer: analyzer,
		matcher:  matcher,
	}
}

type analyzeResponse struct {
	Analysis   *model.DocumentAnalysis `json:"analysis"`
	Candidates []model.MatchCandidate  `json:"candidates"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *DocumentHandler) AnalyzeDocument(ctx *xhttp.RequestCtx) {
	filename, body, err := statementBody(ctx)
	if err != nil {
		writeError(ctx, 400, "document body is required")
		return
	}
	content, err := io.ReadAll(body)
	if err != nil || len(content) == 0 {
		writeError(ctx, 400, "document body is required")
		return
	}

	analysis, err := h.analyzer.Analyze(ctx, filename, content)
	if err != nil {
		writeError(ctx, 502, "extraction failed: "+err.Error())
		return
	}

	resp := analyzeResponse{Analysis: analysis, Candidates: []model.MatchCandidate{}}
	if !analysis.IsInvoice {
		writeJSON(ctx, 200, resp)
		return
	}

	role := model.DocumentRole(formOrQuery(ctx, "document_role"))
	if role == "" {
		role = model.DocumentRoleReceived
	}
	candidates, err := h.matcher.Match(ctx, model.ExtractedInvoice{
		Issuer:       analysis.Issuer,
		Amount:       analysis.Amount,
		Date:         analysis.Date,
		Currency:     analysis.Currency,
		DocumentRole: role,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	if candidates != nil {
		resp.Candidates = candidates
	}
	writeJSON(ctx, 200, resp)
}
