package repository

import (
	"fmt"
	"time"

	"github.com/user/yamdb/internal/logging"
	"github.com/user/yamdb/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormWriter 将 gorm 日志转发到 zerolog
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logging.Warn().Str("component", "gorm").Msgf(format, args...)
}

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		// 唯一约束、外键冲突翻译为 gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated
		TranslateError: true,
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate 建表及约束（唯一索引、级联删除、检查约束）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Genre{},
		&model.Title{},
		&model.Review{},
		&model.Comment{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	DB       *gorm.DB
	User     *UserRepository
	Category *CategoryRepository
	Genre    *GenreRepository
	Title    *TitleRepository
	Review   *ReviewRepository
	Comment  *CommentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		User:     NewUserRepository(db),
		Category: NewCategoryRepository(db),
		Genre:    NewGenreRepository(db),
		Title:    NewTitleRepository(db),
		Review:   NewReviewRepository(db),
		Comment:  NewCommentRepository(db),
	}
}
