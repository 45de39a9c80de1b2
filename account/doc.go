// Package account is the authentication orchestrator: registration, login,
// logout, security-question recovery and the who-am-i lookup.
//
// Service composes the password hasher, the field encryptor, the token
// service and the session manager over a Repository:
//
//	repo := account.NewGormRepository(db, enc)
//	svc, err := account.NewService(account.Deps{
//		Repo: repo, Hasher: hasher, Policy: policy,
//		Tokens: tokens, Sessions: sessions,
//	})
//	res, err := svc.Login(ctx, email, password)
//
// All errors returned by Service are *errors.AppError values with the HTTP
// status they map to. Credential failures are uniform and never say whether
// the email exists.
package account
