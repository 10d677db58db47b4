package http

import (
	"net/http"

	"github.com/bookshare/server/internal/auth/service"
	commonhttp "github.com/bookshare/server/internal/common/http"
	"github.com/bookshare/server/internal/common/jwtverify"
	"github.com/bookshare/server/internal/common/logger"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type checkTokenResponse struct {
	Authenticated bool `json:"authenticated"`
}

type Handler struct {
	auth *service.AuthService
	log  *logger.Logger
}

func NewHandler(auth *service.AuthService, log *logger.Logger) *Handler {
	return &Handler{auth: auth, log: log}
}

// Public returns the unauthenticated surface, Protected the part that must
// sit behind the token-verifying middleware.
func (h *Handler) Public() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", commonhttp.RequireMethod(http.MethodPost)(h.login))
	return mux
}

func (h *Handler) Protected() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/logout", commonhttp.RequireMethod(http.MethodPost)(h.logout))
	mux.HandleFunc("/checkToken", commonhttp.RequireMethod(http.MethodPost)(h.checkToken))
	return mux
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("login failed: invalid json: %v", err)
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.auth.Logout(r.Context(), claims.Username); err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "logout failed")
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// checkToken only runs if the verify middleware let the request through,
// so there is nothing left to check here.
func (h *Handler) checkToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := jwtverify.FromContext(r.Context()); !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, checkTokenResponse{Authenticated: true})
}
