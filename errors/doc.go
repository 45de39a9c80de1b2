// Package errors provides the AppError type and the error taxonomy of the
// auth service: validation (400), authentication (401), authorization (403),
// not found (404), conflict (409), rate limiting (429) and internal (500).
//
// Handlers never build status codes by hand. They return an *AppError and
// server.RespondWithError serializes it with ToResponse.
package errors
