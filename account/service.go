package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/careerauth/auth/authctx"
	"github.com/kbukum/careerauth/auth/jwt"
	"github.com/kbukum/careerauth/auth/password"
	"github.com/kbukum/careerauth/auth/session"
	apperrors "github.com/kbukum/careerauth/errors"
	"github.com/kbukum/careerauth/logger"
	"github.com/kbukum/careerauth/observability"
	"github.com/kbukum/careerauth/validation"
)

const (
	msgInvalidLogin  = "invalid email or password"
	msgInvalidAnswer = "invalid email or security answer"
)

// dummyPassword is hashed once at startup. Logins for unknown emails verify
// against it so the response time does not reveal whether the email exists.
const dummyPassword = "careerauth-timing-equalizer"

// Deps are the collaborators of a Service. Metrics, Logger and Now are optional.
type Deps struct {
	Repo     Repository
	Hasher   password.Hasher
	Policy   password.Policy
	Tokens   *jwt.Service
	Sessions *session.Manager
	Metrics  *observability.AuthMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service implements the authentication flows.
type Service struct {
	repo      Repository
	hasher    password.Hasher
	policy    password.Policy
	tokens    *jwt.Service
	sessions  *session.Manager
	metrics   *observability.AuthMetrics
	log       *logger.Logger
	now       func() time.Time
	dummyHash string
}

// NewService creates the orchestrator.
func NewService(d Deps) (*Service, error) {
	if d.Repo == nil || d.Hasher == nil || d.Tokens == nil || d.Sessions == nil {
		return nil, fmt.Errorf("account: repository, hasher, tokens and sessions are required")
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Policy.MinLength == 0 {
		d.Policy = password.DefaultPolicy()
	}

	dummy, err := d.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("account: hash dummy password: %w", err)
	}
	RegisterValidationRules()

	return &Service{
		repo:      d.Repo,
		hasher:    d.Hasher,
		policy:    d.Policy,
		tokens:    d.Tokens,
		sessions:  d.Sessions,
		metrics:   d.Metrics,
		log:       d.Logger.WithComponent("account"),
		now:       d.Now,
		dummyHash: dummy,
	}, nil
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (_ *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanRegister)
	defer func() { observability.EndSpan(span, err) }()

	in.Email = normalizeEmail(in.Email)
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	if appErr := validation.New().Required("securityAnswer", in.SecurityAnswer).Validate(); appErr != nil {
		return nil, appErr
	}
	if err := validation.FromViolations("password", s.policy.Check(in.Password)); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.AlreadyExists(resourceName)
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	answerHash, err := s.hasher.Hash(normalizeAnswer(in.SecurityAnswer))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	a := &Account{
		ID:                 uuid.NewString(),
		Email:              in.Email,
		PasswordHash:       hash,
		SecurityQuestion:   in.SecurityQuestion,
		SecurityAnswerHash: answerHash,
		Name:               strings.TrimSpace(in.Name),
		Phone:              strings.TrimSpace(in.Phone),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.metrics.Registration(ctx)
	observability.SetSpanAttribute(ctx, observability.AttrUserID, a.ID)
	s.log.WithContext(ctx).Info("Account registered", logger.Fields(
		logger.FieldUserID, a.ID,
		logger.FieldEmail, logger.MaskEmail(a.Email),
	))
	return s.signIn(ctx, a)
}

// Login verifies credentials and signs the caller in. Unknown emails and
// wrong passwords yield the same error.
func (s *Service) Login(ctx context.Context, email, pw string) (_ *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanLogin)
	defer func() { observability.EndSpan(span, err) }()

	email = normalizeEmail(email)
	log := s.log.WithContext(ctx)

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			s.metrics.LoginAttempt(ctx, observability.OutcomeInternalFail)
			return nil, err
		}
		s.hasher.Verify(pw, s.dummyHash)
		s.metrics.LoginAttempt(ctx, observability.OutcomeInvalid)
		log.Info("Login failed", logger.Fields(
			logger.FieldEmail, logger.MaskEmail(email),
			logger.FieldReason, "unknown email",
		))
		return nil, apperrors.InvalidCredentials(msgInvalidLogin)
	}

	if !s.hasher.Verify(pw, a.PasswordHash) {
		s.metrics.LoginAttempt(ctx, observability.OutcomeInvalid)
		log.Info("Login failed", logger.Fields(
			logger.FieldUserID, a.ID,
			logger.FieldReason, "wrong password",
		))
		return nil, apperrors.InvalidCredentials(msgInvalidLogin)
	}

	res, err := s.signIn(ctx, a)
	if err != nil {
		s.metrics.LoginAttempt(ctx, observability.OutcomeInternalFail)
		return nil, err
	}
	s.metrics.LoginAttempt(ctx, observability.OutcomeSuccess)
	observability.SetSpanAttribute(ctx, observability.AttrUserID, a.ID)
	log.Info("Login succeeded", logger.Fields(logger.FieldUserID, a.ID))
	return res, nil
}

// Logout destroys the session behind a cookie value. It is idempotent and
// does not invalidate bearer tokens.
func (s *Service) Logout(ctx context.Context, sessionCookie string) error {
	if sessionCookie == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sessionCookie); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// FindAccount returns the security question of an account.
func (s *Service) FindAccount(ctx context.Context, email string) (*Recovery, error) {
	email = normalizeEmail(email)
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound(resourceName, "")
		}
		return nil, err
	}
	s.metrics.PasswordReset(ctx, observability.StageFindAccount)
	return &Recovery{Email: a.Email, SecurityQuestion: a.SecurityQuestion}, nil
}

// VerifySecurityAnswer checks an answer and issues a password reset token.
func (s *Service) VerifySecurityAnswer(ctx context.Context, email, answer string) (_ *ResetGrant, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanVerifyAnswer)
	defer func() { observability.EndSpan(span, err) }()

	email = normalizeEmail(email)
	normalized := normalizeAnswer(answer)

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		s.hasher.Verify(normalized, s.dummyHash)
		return nil, apperrors.InvalidCredentials(msgInvalidAnswer)
	}
	if normalized == "" || !s.hasher.Verify(normalized, a.SecurityAnswerHash) {
		s.log.WithContext(ctx).Info("Security answer rejected", logger.Fields(logger.FieldUserID, a.ID))
		return nil, apperrors.InvalidCredentials(msgInvalidAnswer)
	}

	token, err := s.tokens.IssueReset(a.ID, a.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.metrics.PasswordReset(ctx, observability.StageVerifyAnswer)
	return &ResetGrant{ResetToken: token, ExpiresIn: int(s.tokens.ResetTTL().Seconds())}, nil
}

// ResetPassword redeems a reset token. It returns a fresh access token but
// no session.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) (_ *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanResetPassword)
	defer func() { observability.EndSpan(span, err) }()

	claims, err := s.tokens.Verify(resetToken)
	if err != nil || claims.Purpose != jwt.PurposePasswordReset {
		return nil, apperrors.InvalidToken()
	}
	if err := validation.FromViolations("newPassword", s.policy.Check(newPassword)); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.InvalidToken()
		}
		return nil, err
	}
	if s.hasher.Verify(newPassword, a.PasswordHash) {
		return nil, apperrors.InvalidInput("newPassword", "new password must differ from the current password")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	changedAt := s.now()
	if err := s.repo.UpdatePassword(ctx, a.ID, hash, changedAt); err != nil {
		return nil, err
	}
	a.PasswordHash = hash
	a.PasswordChangedAt = &changedAt

	token, err := s.tokens.IssueAccess(a.ID, a.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.metrics.PasswordReset(ctx, observability.StageResetPassword)
	observability.SetSpanAttribute(ctx, observability.AttrUserID, a.ID)
	s.log.WithContext(ctx).Info("Password reset", logger.Fields(
		logger.FieldUserID, a.ID,
		logger.FieldTokenID, claims.TokenID(),
	))
	return &AuthResult{Account: a.View(), Token: token}, nil
}

// WhoAmI returns the account of the authenticated principal. A session
// whose account no longer exists is destroyed.
func (s *Service) WhoAmI(ctx context.Context, p *authctx.Principal) (*View, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("")
	}
	a, err := s.repo.GetByID(ctx, p.UserID)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		if p.Source == authctx.SourceSession {
			if rerr := s.sessions.Revoke(ctx, p.SessionID); rerr != nil {
				s.log.WithError(rerr).Warn("Revoking orphaned session failed")
			}
			s.log.WithContext(ctx).Warn("Session account no longer exists, forcing logout", logger.Fields(
				logger.FieldUserID, p.UserID,
			))
		}
		return nil, apperrors.Unauthorized("")
	}
	v := a.View()
	return &v, nil
}

// GetAccount returns the account with id. Principals may only read their own.
func (s *Service) GetAccount(ctx context.Context, p *authctx.Principal, id string) (*View, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("")
	}
	if id != p.UserID {
		return nil, apperrors.Forbidden("")
	}
	return s.WhoAmI(ctx, p)
}

// SecurityQuestions returns the supported recovery questions.
func (s *Service) SecurityQuestions() []string {
	return append([]string(nil), SecurityQuestions...)
}

func (s *Service) signIn(ctx context.Context, a *Account) (*AuthResult, error) {
	token, err := s.tokens.IssueAccess(a.ID, a.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	_, cookie, err := s.sessions.Create(ctx, a.ID, a.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &AuthResult{Account: a.View(), Token: token, SessionCookie: cookie}, nil
}

func isNotFound(err error) bool {
	appErr, ok := apperrors.AsAppError(err)
	return ok && appErr.Code == apperrors.ErrCodeNotFound
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
