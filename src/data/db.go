package data

import (
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Drivers accepted by Connect.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type options struct {
	log *logrus.Logger
}

// Option tunes a database connection.
type Option func(*options)

// WithLogger routes gorm's warnings and slow queries through l.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.log = l }
}

// gormWriter hands gorm's formatted log lines to logrus.
type gormWriter struct {
	log *logrus.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.WithField("module", "gorm").Warnf(format, args...)
}

func gormConfig(opts []Option) *gorm.Config {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	gormLogger := logger.New(
		gormWriter{log: o.log},
		logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true, Colorful: false},
	)
	return &gorm.Config{Logger: gormLogger}
}

// ConnectSQLite opens a pure-Go SQLite database. Writers are serialized on a
// single connection, which SQLite requires anyway.
func ConnectSQLite(path string, opts ...Option) (*gorm.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is not set")
	}
	db, err := gorm.Open(sqlite.Open(ensureParam(path, "_pragma", "busy_timeout(5000)")), gormConfig(opts))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Connect opens the database selected by driver.
func Connect(driver, mysqlDSN, sqlitePath string, opts ...Option) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMySQL:
		if strings.TrimSpace(mysqlDSN) == "" {
			return nil, errors.New("MYSQL_DSN is not set")
		}
		return ConnectMySQL(mysqlDSN, opts...)
	case DriverSQLite:
		return ConnectSQLite(sqlitePath, opts...)
	default:
		return nil, errors.Errorf("unknown database driver %q", driver)
	}
}
