package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/middleware"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/Dan9191/bank-cards/internal/service"
	"github.com/Dan9191/bank-cards/internal/utils"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the API under r. authn resolves bearer tokens; the admin and
// user subrouters are additionally gated by role.
func (h *Handler) Register(r *mux.Router, authn mux.MiddlewareFunc) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authn)

	public := api.PathPrefix("/auth").Subrouter()
	public.HandleFunc("/registration", h.Registration).Methods(http.MethodPost)
	public.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Require(auth.AdminOnly))
	admin.HandleFunc("/cards/create", h.CreateCard).Methods(http.MethodPost)
	admin.HandleFunc("/cards/setBalanceByCardNumber", h.SetBalanceByNumber).Methods(http.MethodPut)
	admin.HandleFunc("/cards", h.ListCards).Methods(http.MethodGet)
	admin.HandleFunc("/cards/{cardId:[0-9]+}", h.GetCard).Methods(http.MethodGet)
	admin.HandleFunc("/cards/{cardId:[0-9]+}/block", h.BlockCard).Methods(http.MethodPut)
	admin.HandleFunc("/cards/{cardId:[0-9]+}/activate", h.ActivateCard).Methods(http.MethodPut)
	admin.HandleFunc("/cards/{cardId:[0-9]+}/delete", h.DeleteCard).Methods(http.MethodDelete)
	admin.HandleFunc("/cards/{cardId:[0-9]+}/setBalanceByCardId", h.SetBalanceByID).Methods(http.MethodPut)
	admin.HandleFunc("/users/create", h.CreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userId:[0-9]+}", h.GetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userId:[0-9]+}/update", h.UpdateUser).Methods(http.MethodPut)
	admin.HandleFunc("/users/{userId:[0-9]+}/delete", h.DeleteUser).Methods(http.MethodDelete)

	user := api.PathPrefix("/users").Subrouter()
	user.Use(middleware.Require(auth.AdminOrOwner))
	user.HandleFunc("/cards", h.ListOwnCards).Methods(http.MethodGet)
	user.HandleFunc("/cards/paginated", h.ListOwnCardsPage).Methods(http.MethodGet)
	user.HandleFunc("/cards/active", h.ListOwnActiveCards).Methods(http.MethodGet)
	user.HandleFunc("/cards/total-balance", h.TotalBalance).Methods(http.MethodGet)
	user.HandleFunc("/cards/{cardId:[0-9]+}/block", h.BlockOwnCard).Methods(http.MethodPut)
	user.HandleFunc("/cards/{cardId:[0-9]+}/balance", h.CardBalance).Methods(http.MethodGet)
	user.HandleFunc("/transfer", h.Transfer).Methods(http.MethodPost)
	user.HandleFunc("/info", h.UserInfo).Methods(http.MethodGet)
}

type cardResponse struct {
	ID           int64             `json:"id"`
	MaskedNumber string            `json:"masked_number"`
	ExpiryDate   string            `json:"expiry_date"`
	Balance      string            `json:"balance"`
	Status       models.CardStatus `json:"status"`
	OwnerID      int64             `json:"owner_id"`
}

func toCardResponse(c models.Card) cardResponse {
	return cardResponse{
		ID:           c.ID,
		MaskedNumber: c.MaskedNumber,
		ExpiryDate:   c.ExpiryDate.Format(utils.DateLayout),
		Balance:      money(c.Balance),
		Status:       c.Status,
		OwnerID:      c.OwnerID,
	}
}

func toCardResponses(cards []models.Card) []cardResponse {
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return models.NewError(models.ErrValidation, "invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, models.NewError(models.ErrValidation, "invalid "+name)
	}
	return id, nil
}

// requireAmount checks an amount is present, non-negative (strictly positive
// when positive is set) and has at most two fraction digits.
func requireAmount(v decimal.NullDecimal, field string, positive bool) (decimal.Decimal, error) {
	if !v.Valid {
		return decimal.Zero, models.NewError(models.ErrValidation, field+" is required")
	}
	d := v.Decimal
	if positive && !d.IsPositive() {
		return decimal.Zero, models.NewError(models.ErrValidation, "Amount must be greater than 0")
	}
	if d.IsNegative() {
		return decimal.Zero, models.NewError(models.ErrValidation, "Balance must be greater than or equal to 0")
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, models.NewError(models.ErrValidation, field+" must have at most 2 fraction digits")
	}
	return d, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error kind to a status code. notFound is the status
// used for missing cards and users, which differs between route groups.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, notFound int) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrCardNotFound), errors.Is(err, models.ErrUserNotFound):
		status = notFound
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrInvalidOperation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, models.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	}

	msg := models.Message(err)
	if status == http.StatusInternalServerError {
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		}).Errorf("Request failed: %v", err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
