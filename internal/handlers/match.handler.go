package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/ledgerline/statement-gateway/internal/model"
	xhttp "github.com/ledgerline/statement-gateway/pkg/http"
)

type MatchService interface {
	Match(ctx context.Context, inv model.ExtractedInvoice) ([]model.MatchCandidate, error)
}

type MatchHandler struct {
	svc MatchService
}

func RegisterMatchRoutes(e *router.Group, h *MatchHandler) {
	e.POST("/matches", h.MatchInvoice)
}

func NewMatchHandler(matchService MatchService) *MatchHandler {
	return &MatchHandler{
		svc: matchService,
	}
}

type matchResponse struct {
	Candidates []model.MatchCandidate `json:"candidates"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *MatchHandler) MatchInvoice(ctx *xhttp.RequestCtx) {
	var inv model.ExtractedInvoice
	if err := readJSON(ctx, &inv); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	candidates, err := h.svc.Match(ctx, inv)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	if candidates == nil {
		candidates = []model.MatchCandidate{}
	}
	writeJSON(ctx, 200, matchResponse{Candidates: candidates})
}
