package repository

import (
	"context"
	"errors"

	"radar/internal/domain"

	"gorm.io/gorm"
)

// translate maps gorm errors onto the domain error taxonomy. It relies on the
// dialector's error translation (gorm.Config.TranslateError).
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.NotFound("user")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	default:
		return domain.StorageError(err)
	}
}

// Ping checks the database connection.
func Ping(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
