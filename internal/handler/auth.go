package handler

import (
	"net/http"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration handles user self-registration
func (h *Handler) Registration(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	user, err := h.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Success registration",
		"user":    user,
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
