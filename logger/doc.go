// Package logger provides structured logging on top of zerolog.
//
// A Logger is created from Config (json or console output) and tagged with a
// service name. Components derive their own logger with WithComponent, and
// request handlers enrich it with WithContext, which picks up the request id
// and user id stored by the HTTP middleware.
//
//	log := logger.New(&cfg, "careerauth").WithComponent("account")
//	log.Info("account registered", logger.Fields(logger.FieldUserID, id))
package logger
