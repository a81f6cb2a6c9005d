package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicate 唯一约束冲突（并发写入时由数据库兜底）
var ErrDuplicate = errors.New("duplicate key")

// ErrReferenceMissing 外键引用的记录不存在
var ErrReferenceMissing = errors.New("referenced record missing")

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate 将存储层错误归一化为仓库错误
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", ErrReferenceMissing, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReferenceMissing, pgErr.ConstraintName)
		}
	}
	return err
}

// notFoundAsNil 未找到时返回 nil, nil
func notFoundAsNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
