package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/careerauth/logger"
)

// queryLogger routes GORM output through the service logger. Bound values
// never reach the log: account rows carry password hashes and ciphertext,
// so only the statement shape is recorded.
type queryLogger struct {
	log   *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

var (
	_ gormlogger.Interface = (*queryLogger)(nil)
	_ gorm.ParamsFilter    = (*queryLogger)(nil)
)

func newQueryLogger(log *logger.Logger, slow time.Duration, level string) *queryLogger {
	return &queryLogger{log: log.WithComponent("gorm"), level: gormLevel(level), slow: slow}
}

func gormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

// ParamsFilter drops bound values before GORM renders the statement.
func (l *queryLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *queryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.WithContext(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.WithContext(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs failed and slow statements. A missing row is an expected
// outcome for lookups by email and is not logged as a failure.
func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.log.WithContext(ctx).WithError(err).Error("query failed", logger.Fields(
			"sql", sql, logger.FieldDuration, elapsed.String(), "rows", rows))
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.WithContext(ctx).Warn("slow query", logger.Fields(
			"sql", sql, logger.FieldDuration, elapsed.String(), "rows", rows))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log.WithContext(ctx).Debug("query", logger.Fields(
			"sql", sql, logger.FieldDuration, elapsed.String(), "rows", rows))
	}
}
