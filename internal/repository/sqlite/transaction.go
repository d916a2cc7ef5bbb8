package sqlite

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type txKey struct{}

type transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) database.Transactor {
	return &transactor{db: db}
}

// WithTransaction joins an outer transaction already carried by ctx.
func (t *transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction bound to ctx, or db itself.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// Migrate creates or updates every table of the embedded store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&shiftModel{},
		&userModel{},
		&attendanceModel{},
		&leaveModel{},
		&refreshTokenModel{},
	)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}
