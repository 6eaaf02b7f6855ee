package controller

import (
	"net/http"

	"github.com/cassiomorais/finance/internal/middleware"
	"github.com/cassiomorais/finance/internal/service"
)

type AuthController struct {
	authService *service.AuthService
	cookies     CookieConfig
}

func NewAuthController(authService *service.AuthService, cookies CookieConfig) *AuthController {
	return &AuthController{authService: authService, cookies: cookies}
}

func (h *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.authService.Register(r.Context(), service.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromUser(u))
}

// Confirm accepts the token as a query parameter (the emailed link) or a JSON body.
func (h *AuthController) Confirm(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" && r.Method == http.MethodPost {
		var req ConfirmRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		tok = req.Token
	}

	u, err := h.authService.Confirm(r.Context(), tok)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromUser(u))
}

func (h *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setTokens(w, pair)
	writeJSON(w, http.StatusOK, FromUser(u))
}

func (h *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	u, pair, err := h.authService.Refresh(r.Context(), refreshToken(r))
	if err != nil {
		h.cookies.clearTokens(w)
		writeError(w, err)
		return
	}

	h.cookies.setTokens(w, pair)
	writeJSON(w, http.StatusOK, FromUser(u))
}

// Logout always succeeds and always clears the cookies.
func (h *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	access, _ := middleware.AccessToken(r)
	h.authService.Logout(r.Context(), access, refreshToken(r))

	h.cookies.clearTokens(w)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	u, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromUser(u))
}

func (h *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.authService.UpdateProfile(r.Context(), userID, service.UpdateProfileRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromUser(u))
}
