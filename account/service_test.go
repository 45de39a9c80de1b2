package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbukum/careerauth/auth/authctx"
	"github.com/kbukum/careerauth/auth/jwt"
	"github.com/kbukum/careerauth/auth/password"
	"github.com/kbukum/careerauth/auth/session"
	"github.com/kbukum/careerauth/database"
	"github.com/kbukum/careerauth/encryption"
	apperrors "github.com/kbukum/careerauth/errors"
	"github.com/kbukum/careerauth/logger"
	"github.com/kbukum/careerauth/validation"
)

const alicePassword = "Str0ng!Pass"

type fixture struct {
	svc      *Service
	repo     *GormRepository
	db       *database.DB
	enc      *encryption.Service
	tokens   *jwt.Service
	sessions *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, DSN: ":memory:", LogLevel: "silent"}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(Models()...))

	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewService(key)
	require.NoError(t, err)

	tokens, err := jwt.NewService(jwt.Config{Secret: "test-token-secret"}, logger.NewNop())
	require.NoError(t, err)

	store, err := session.NewMemoryStore(ctx, session.DefaultTTL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	sessions, err := session.NewManager(store, session.Config{Secret: []byte("test-session-secret")})
	require.NoError(t, err)

	repo := NewGormRepository(db, enc)
	svc, err := NewService(Deps{
		Repo:     repo,
		Hasher:   password.NewArgon2Hasher(password.WithArgon2Memory(1024), password.WithArgon2Threads(1)),
		Policy:   password.DefaultPolicy(),
		Tokens:   tokens,
		Sessions: sessions,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, db: db, enc: enc, tokens: tokens, sessions: sessions}
}

func aliceInput() RegisterInput {
	return RegisterInput{
		Email:            "Alice@Example.com ",
		Password:         alicePassword,
		SecurityQuestion: SecurityQuestions[0],
		SecurityAnswer:   "Fluffy",
		Name:             "Alice Liddell",
		Phone:            "+1 555 0100",
	}
}

func requireAppError(t *testing.T, err error, status int, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.HTTPStatus)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func TestRegister_SignsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", res.Account.Email)
	require.Equal(t, "Alice Liddell", res.Account.Name)
	require.NotEmpty(t, res.Account.ID)
	require.NotEmpty(t, res.SessionCookie)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, res.Account.ID, claims.UserID)

	s, err := f.sessions.Lookup(ctx, res.SessionCookie)
	require.NoError(t, err)
	require.Equal(t, res.Account.ID, s.UserID)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"unknown question", func(in *RegisterInput) { in.SecurityQuestion = "Favourite colour?" }, "securityQuestion"},
		{"blank answer", func(in *RegisterInput) { in.SecurityAnswer = "   " }, "securityAnswer"},
		{"weak password", func(in *RegisterInput) { in.Password = "password" }, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := aliceInput()
			tc.mutate(&in)
			_, err := f.svc.Register(context.Background(), in)
			appErr := requireAppError(t, err, 400, apperrors.ErrCodeInvalidInput)

			fields, ok := appErr.Details["fields"].([]validation.FieldError)
			require.True(t, ok, "expected field details, got %v", appErr.Details)
			found := false
			for _, fe := range fields {
				if fe.Field == tc.field {
					found = true
				}
			}
			require.True(t, found, "expected an error on %s, got %v", tc.field, fields)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	again := aliceInput()
	again.Email = "ALICE@example.com"
	_, err = f.svc.Register(ctx, again)
	requireAppError(t, err, 409, apperrors.ErrCodeAlreadyExists)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	res, err := f.svc.Login(ctx, " alice@EXAMPLE.com", alicePassword)
	require.NoError(t, err)
	require.Equal(t, reg.Account.ID, res.Account.ID)
	require.NotEqual(t, reg.SessionCookie, res.SessionCookie)
}

func TestLogin_UniformFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, "alice@example.com", "Wr0ng!Pass")
	_, unknownEmail := f.svc.Login(ctx, "bob@example.com", alicePassword)

	a := requireAppError(t, wrongPassword, 401, apperrors.ErrCodeInvalidCredentials)
	b := requireAppError(t, unknownEmail, 401, apperrors.ErrCodeInvalidCredentials)
	require.Equal(t, a.Message, b.Message)
	require.Equal(t, "invalid email or password", a.Message)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, res.SessionCookie))
	_, err = f.sessions.Lookup(ctx, res.SessionCookie)
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, f.svc.Logout(ctx, res.SessionCookie))
	require.NoError(t, f.svc.Logout(ctx, ""))
	require.NoError(t, f.svc.Logout(ctx, "garbage"))

	// Bearer tokens stay valid after logout.
	_, err = f.tokens.Verify(res.Token)
	require.NoError(t, err)
}

func TestRecoveryFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	rec, err := f.svc.FindAccount(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, SecurityQuestions[0], rec.SecurityQuestion)

	grant, err := f.svc.VerifySecurityAnswer(ctx, "alice@example.com", "  FLUFFY ")
	require.NoError(t, err)
	require.Equal(t, 900, grant.ExpiresIn)

	claims, err := f.tokens.Verify(grant.ResetToken)
	require.NoError(t, err)
	require.Equal(t, jwt.PurposePasswordReset, claims.Purpose)

	res, err := f.svc.ResetPassword(ctx, grant.ResetToken, "N3w!Password")
	require.NoError(t, err)
	require.Equal(t, reg.Account.ID, res.Account.ID)
	require.Empty(t, res.SessionCookie)

	_, err = f.svc.Login(ctx, "alice@example.com", alicePassword)
	requireAppError(t, err, 401, apperrors.ErrCodeInvalidCredentials)
	_, err = f.svc.Login(ctx, "alice@example.com", "N3w!Password")
	require.NoError(t, err)

	stored, err := f.repo.GetByID(ctx, reg.Account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordChangedAt)
}

func TestRecovery_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	_, err = f.svc.FindAccount(ctx, "nobody@example.com")
	requireAppError(t, err, 404, apperrors.ErrCodeNotFound)

	_, wrong := f.svc.VerifySecurityAnswer(ctx, "alice@example.com", "Rex")
	_, unknown := f.svc.VerifySecurityAnswer(ctx, "nobody@example.com", "Fluffy")
	a := requireAppError(t, wrong, 401, apperrors.ErrCodeInvalidCredentials)
	b := requireAppError(t, unknown, 401, apperrors.ErrCodeInvalidCredentials)
	require.Equal(t, a.Message, b.Message)

	// An access token is not a reset token.
	_, err = f.svc.ResetPassword(ctx, reg.Token, "N3w!Password")
	requireAppError(t, err, 401, apperrors.ErrCodeInvalidToken)

	_, err = f.svc.ResetPassword(ctx, "not-a-token", "N3w!Password")
	requireAppError(t, err, 401, apperrors.ErrCodeInvalidToken)

	grant, err := f.svc.VerifySecurityAnswer(ctx, "alice@example.com", "fluffy")
	require.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, grant.ResetToken, "weak")
	requireAppError(t, err, 400, apperrors.ErrCodeInvalidInput)

	_, err = f.svc.ResetPassword(ctx, grant.ResetToken, alicePassword)
	appErr := requireAppError(t, err, 400, apperrors.ErrCodeInvalidInput)
	require.Equal(t, "newPassword", appErr.Details["field"])
}

func TestResetPassword_DeletedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	grant, err := f.svc.VerifySecurityAnswer(ctx, "alice@example.com", "fluffy")
	require.NoError(t, err)
	require.NoError(t, f.db.WithContext(ctx).Delete(&accountRecord{}, "id = ?", reg.Account.ID).Error)

	_, err = f.svc.ResetPassword(ctx, grant.ResetToken, "N3w!Password")
	requireAppError(t, err, 401, apperrors.ErrCodeInvalidToken)
}

func TestWhoAmI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	v, err := f.svc.WhoAmI(ctx, &authctx.Principal{UserID: reg.Account.ID, Source: authctx.SourceBearer})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", v.Email)
	require.Equal(t, "+1 555 0100", v.Phone)

	_, err = f.svc.WhoAmI(ctx, nil)
	requireAppError(t, err, 401, apperrors.ErrCodeUnauthorized)
}

func TestWhoAmI_ForcedLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)

	s, err := f.sessions.Lookup(ctx, reg.SessionCookie)
	require.NoError(t, err)
	principal := &authctx.Principal{UserID: s.UserID, Source: authctx.SourceSession, SessionID: s.ID}

	require.NoError(t, f.db.WithContext(ctx).Delete(&accountRecord{}, "id = ?", reg.Account.ID).Error)

	_, err = f.svc.WhoAmI(ctx, principal)
	requireAppError(t, err, 401, apperrors.ErrCodeUnauthorized)

	_, err = f.sessions.Lookup(ctx, reg.SessionCookie)
	require.ErrorIs(t, err, session.ErrNotFound, "session should be destroyed")
}

func TestGetAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, aliceInput())
	require.NoError(t, err)
	p := &authctx.Principal{UserID: reg.Account.ID, Source: authctx.SourceBearer}

	v, err := f.svc.GetAccount(ctx, p, reg.Account.ID)
	require.NoError(t, err)
	require.Equal(t, reg.Account.ID, v.ID)

	_, err = f.svc.GetAccount(ctx, p, "someone-else")
	requireAppError(t, err, 403, apperrors.ErrCodeForbidden)
}

func TestSecurityQuestions_IsCopy(t *testing.T) {
	f := newFixture(t)
	qs := f.svc.SecurityQuestions()
	require.Len(t, qs, len(SecurityQuestions))
	qs[0] = "changed"
	require.NotEqual(t, "changed", SecurityQuestions[0])
}
