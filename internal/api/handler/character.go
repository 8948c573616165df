package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/sortinghat/internal/api/apierr"
	"github.com/mcoot/sortinghat/internal/api/request"
	"github.com/mcoot/sortinghat/internal/api/response"
	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/services/progression"
)

// CharacterHandler handles the admin character endpoints
type CharacterHandler struct {
	controller *progression.Controller
	logger     *slog.Logger
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(controller *progression.Controller, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{
		controller: controller,
		logger:     logger,
	}
}

// Health handles GET /api/v1/health. It only pings the store; character
// data stays behind the admin token.
func (h *CharacterHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Ping(r.Context()); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// List handles GET /api/v1/characters
func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.controller.List(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	out := make([]response.CharacterSummary, len(all))
	for i, c := range all {
		out[i] = response.CharacterSummaryFromModel(c)
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/characters/{owner}
func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.controller.View(r.Context(), ownerFromPath(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CharacterFromSheet(sheet))
}

// Delete handles DELETE /api/v1/characters/{owner}
func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromPath(r)
	if err := h.controller.Delete(r.Context(), owner); err != nil {
		apierr.WriteError(w, err)
		return
	}
	h.logger.Info("character deleted via admin api", slog.String("owner", string(owner)))
	response.NoContent(w)
}

// Grant handles POST /api/v1/characters/{owner}/currency/grant
func (h *CharacterHandler) Grant(w http.ResponseWriter, r *http.Request) {
	h.currency(w, r, h.controller.GrantCurrency)
}

// Deduct handles POST /api/v1/characters/{owner}/currency/deduct
func (h *CharacterHandler) Deduct(w http.ResponseWriter, r *http.Request) {
	h.currency(w, r, h.controller.DeductCurrency)
}

type currencyOp func(ctx context.Context, owner model.OwnerKey, amount int64) (*model.Character, error)

func (h *CharacterHandler) currency(w http.ResponseWriter, r *http.Request, op currencyOp) {
	var req request.CurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid request body"))
		return
	}

	ch, err := op(r.Context(), ownerFromPath(r), req.Amount)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CharacterFromModel(ch))
}

func ownerFromPath(r *http.Request) model.OwnerKey {
	return model.OwnerKey(mux.Vars(r)["owner"])
}
