package database

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold is the elapsed time above which queries are logged at warn.
const SlowQueryThreshold = 200 * time.Millisecond

// gormLogger routes gorm output through zap
type gormLogger struct {
	logger *zap.Logger
	debug  bool
}

// NewGormLogger returns a gorm logger writing to log. With debug set every
// statement is traced; otherwise only errors and slow queries are logged.
func NewGormLogger(log *zap.Logger, debug bool) gormlogger.Interface {
	return &gormLogger{
		logger: log.Named("gorm"),
		debug:  debug,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{logger: l.logger, debug: level >= gormlogger.Info}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Sugar().Infof(msg, data...)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Sugar().Warnf(msg, data...)
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Sugar().Errorf(msg, data...)
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.Error("sql error", append(fields, zap.Error(err))...)
	case l.debug:
		l.logger.Debug("sql trace", fields...)
	case elapsed > SlowQueryThreshold:
		l.logger.Warn("slow sql query", fields...)
	}
}
