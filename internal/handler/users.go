package handler

import (
	"net/http"
	"strconv"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/Dan9191/bank-cards/internal/service"
	"github.com/shopspring/decimal"
)

type transferRequest struct {
	SourceCardID int64               `json:"source_card_id"`
	TargetCardID int64               `json:"target_card_id"`
	Amount       decimal.NullDecimal `json:"amount"`
}

type pageResponse struct {
	Items         []cardResponse `json:"items"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int            `json:"total_elements"`
	TotalPages    int            `json:"total_pages"`
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewError(models.ErrValidation, "invalid "+name+" parameter")
	}
	return v, nil
}

// ListOwnCards returns the caller's cards
func (h *Handler) ListOwnCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListOwnCards(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponses(cards))
}

// ListOwnCardsPage returns one page of the caller's cards
func (h *Handler) ListOwnCardsPage(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	size, err := queryInt(r, "size", service.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	p, err := h.svc.ListOwnCardsPage(r.Context(), principal(r), page, size)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{
		Items:         toCardResponses(p.Items),
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	})
}

// ListOwnActiveCards returns the caller's ACTIVE cards
func (h *Handler) ListOwnActiveCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListOwnActiveCards(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponses(cards))
}

// BlockOwnCard lets a user block one of their cards
func (h *Handler) BlockOwnCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cardId")
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	card, err := h.svc.BlockOwnCard(r.Context(), principal(r), id)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Card blocked successfully",
		"card":    toCardResponse(*card),
	})
}

// Transfer moves funds between two of the caller's cards
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	amount, err := requireAmount(req.Amount, "Amount", true)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := h.svc.Transfer(r.Context(), principal(r), req.SourceCardID, req.TargetCardID, amount); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Transfer completed successfully",
		"source_card_id": req.SourceCardID,
		"target_card_id": req.TargetCardID,
		"amount":         money(amount),
	})
}

// CardBalance returns the balance of one of the caller's cards
func (h *Handler) CardBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cardId")
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	balance, err := h.svc.OwnCardBalance(r.Context(), principal(r), id)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"card_id": id,
		"balance": money(balance),
	})
}

// TotalBalance returns the sum over the caller's cards
func (h *Handler) TotalBalance(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.TotalBalance(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"total_balance": money(total)})
}

// UserInfo returns the caller's user record
func (h *Handler) UserInfo(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.UserInfo(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
