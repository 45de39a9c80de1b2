package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/careerauth/account"
	"github.com/kbukum/careerauth/auth/authctx"
	"github.com/kbukum/careerauth/auth/session"
	apperrors "github.com/kbukum/careerauth/errors"
	"github.com/kbukum/careerauth/server"
	"github.com/kbukum/careerauth/server/middleware"
	"github.com/kbukum/careerauth/validation"
)

// Handler serves the account endpoints.
type Handler struct {
	accounts *account.Service
	sessions *session.Manager
}

// NewHandler creates a Handler.
func NewHandler(accounts *account.Service, sessions *session.Manager) *Handler {
	return &Handler{accounts: accounts, sessions: sessions}
}

// Register handles POST /register.
func (h *Handler) Register(c *gin.Context) {
	var req account.RegisterInput
	if !bind(c, &req, false) {
		return
	}
	res, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.sessions.SetCookie(c, res.SessionCookie)
	server.RespondCreated(c, AuthResponse{User: res.Account, Token: res.Token})
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req, true) {
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.sessions.SetCookie(c, res.SessionCookie)
	server.RespondOK(c, AuthResponse{User: res.Account, Token: res.Token})
}

// Logout handles POST /logout. It always clears the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	cookie, _ := h.sessions.CookieValue(c.Request)
	if err := h.accounts.Logout(c.Request.Context(), cookie); err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.sessions.ClearCookie(c)
	server.RespondOK(c, MessageResponse{Message: "Logged out successfully"})
}

// WhoAmI handles GET /user.
func (h *Handler) WhoAmI(c *gin.Context) {
	p, _ := middleware.Principal(c)
	user, err := h.accounts.WhoAmI(c.Request.Context(), p)
	if err != nil {
		h.clearOrphanedSession(c, p, err)
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, UserResponse{User: *user})
}

// GetAccount handles GET /user/:id.
func (h *Handler) GetAccount(c *gin.Context) {
	p, _ := middleware.Principal(c)
	user, err := h.accounts.GetAccount(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.clearOrphanedSession(c, p, err)
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, UserResponse{User: *user})
}

// FindAccount handles POST /find-account.
func (h *Handler) FindAccount(c *gin.Context) {
	var req FindAccountRequest
	if !bind(c, &req, true) {
		return
	}
	rec, err := h.accounts.FindAccount(c.Request.Context(), req.Email)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, rec)
}

// VerifySecurityAnswer handles POST /verify-security-answer.
func (h *Handler) VerifySecurityAnswer(c *gin.Context) {
	var req VerifyAnswerRequest
	if !bind(c, &req, true) {
		return
	}
	grant, err := h.accounts.VerifySecurityAnswer(c.Request.Context(), req.Email, req.SecurityAnswer)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, grant)
}

// ResetPassword handles POST /reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bind(c, &req, true) {
		return
	}
	res, err := h.accounts.ResetPassword(c.Request.Context(), req.ResetToken, req.NewPassword)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, AuthResponse{User: res.Account, Token: res.Token})
}

// SecurityQuestions handles GET /security-questions.
func (h *Handler) SecurityQuestions(c *gin.Context) {
	server.RespondOK(c, h.accounts.SecurityQuestions())
}

// clearOrphanedSession expires the cookie of a session principal whose
// account lookup failed with 401; the session itself is already gone.
func (h *Handler) clearOrphanedSession(c *gin.Context, p *authctx.Principal, err error) {
	if p == nil || p.Source != authctx.SourceSession {
		return
	}
	if apperrors.HTTPStatus(err) == http.StatusUnauthorized {
		h.sessions.ClearCookie(c)
	}
}

// bind decodes the JSON body into req. When validate is set the struct
// tags are checked too; the account service validates RegisterInput itself.
func bind(c *gin.Context, req any, validate bool) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be a valid JSON object"))
		return false
	}
	if validate {
		if err := validation.Validate(req); err != nil {
			server.RespondWithError(c, err)
			return false
		}
	}
	return true
}
