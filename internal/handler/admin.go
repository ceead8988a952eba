package handler

import (
	"net/http"
	"strings"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/Dan9191/bank-cards/internal/utils"
	"github.com/shopspring/decimal"
)

type createCardRequest struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	UserID     int64  `json:"user_id"`
}

type setBalanceRequest struct {
	Balance decimal.NullDecimal `json:"balance"`
}

type setBalanceByNumberRequest struct {
	CardNumber string              `json:"card_number"`
	Balance    decimal.NullDecimal `json:"balance"`
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateCard handles card issuance
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	if strings.TrimSpace(req.CardNumber) == "" {
		h.writeError(w, r, models.NewError(models.ErrValidation, "Card number is required"), http.StatusNotFound)
		return
	}
	expiry, err := utils.ParseDate(req.ExpiryDate)
	if err != nil {
		h.writeError(w, r, models.NewError(models.ErrValidation, "Expiry date must be in format YYYY-MM-DD"), http.StatusNotFound)
		return
	}

	card, err := h.svc.CreateCard(r.Context(), principal(r), req.CardNumber, expiry, req.UserID)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Card created successfully",
		"card":    toCardResponse(*card),
	})
}

// BlockCard handles admin card blocking
func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cardId")
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	card, err := h.svc.BlockCard(r.Context(), principal(r), id)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Card blocked successfully",
		"card":    toCardResponse(*card),
	})
}

// ActivateCard handles admin card activation
func (h *Handler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cardId")
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	card, err := h.svc.ActivateCard(r.Context(), principal(r), id)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Card activated successfully",
		"card":    toCardResponse(*card),
	})
}

// DeleteCard handles card removal
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cardId")
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	if err := h.svc.DeleteCard(r.Context(), principal(r), id); err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Card deleted successfully"})
}

// ListCards returns every card
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListCards(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponses(cards))
}

// GetCard returns one card
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cardId")
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	card, err := h.svc.GetCard(r.Context(), principal(r), id)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(*card))
}

// SetBalanceByID overwrites a card balance addressed by id
func (h *Handler) SetBalanceByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cardId")
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	var req setBalanceRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	balance, err := requireAmount(req.Balance, "Balance", false)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	card, err := h.svc.SetBalanceByID(r.Context(), principal(r), id, balance)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Card balance updated successfully",
		"card":    toCardResponse(*card),
	})
}

// SetBalanceByNumber overwrites a card balance addressed by card number
func (h *Handler) SetBalanceByNumber(w http.ResponseWriter, r *http.Request) {
	var req setBalanceByNumberRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := utils.ValidateCardNumber(req.CardNumber); err != nil {
		h.writeError(w, r, models.NewError(models.ErrValidation, "Card number must be 16 digits"), http.StatusBadRequest)
		return
	}
	balance, err := requireAmount(req.Balance, "Balance", false)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	card, err := h.svc.SetBalanceByNumber(r.Context(), principal(r), req.CardNumber, balance)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Card balance updated successfully",
		"card":    toCardResponse(*card),
	})
}

// CreateUser handles admin user creation
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	user, err := h.svc.CreateUser(r.Context(), principal(r), req.Username, req.Password, req.Role)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    user,
	})
}

// ListUsers returns every user
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser returns one user
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	user, err := h.svc.GetUser(r.Context(), principal(r), id)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser handles admin user updates
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	var req userRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	user, err := h.svc.UpdateUser(r.Context(), principal(r), id, req.Username, req.Password, req.Role)
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    user,
	})
}

// DeleteUser handles admin user removal
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	if err := h.svc.DeleteUser(r.Context(), principal(r), id); err != nil {
		h.writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
