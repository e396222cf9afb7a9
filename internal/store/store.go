package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shortlink-service/internal/model"
)

var (
	ErrAlreadyExists      = errors.New("short code already exists")
	ErrNotFound           = errors.New("short code not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// MappingStore 保存短码到原始链接的映射
type MappingStore interface {
	// InsertIfAbsent 原子地插入映射，短码已存在时返回 ErrAlreadyExists
	InsertIfAbsent(ctx context.Context, shortCode, originalURL string) (model.URLMapping, error)
	// Lookup 查询映射，不存在时返回 ErrNotFound
	Lookup(ctx context.Context, shortCode string) (model.URLMapping, error)
	List(ctx context.Context, offset, limit int) ([]model.URLMapping, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, shortCode string) error
	Ping(ctx context.Context) error
}

// GormStore 基于 gorm 的 MappingStore 实现，唯一性由数据库唯一索引保证
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate 自动建表
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.URLMapping{}, &model.User{}); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *GormStore) InsertIfAbsent(ctx context.Context, shortCode, originalURL string) (model.URLMapping, error) {
	m := model.URLMapping{ShortCode: shortCode, OriginalURL: originalURL}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "short_code"}}, DoNothing: true}).
		Create(&m)
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.URLMapping{}, ErrAlreadyExists
		}
		return model.URLMapping{}, unavailable(err)
	}
	if result.RowsAffected == 0 {
		return model.URLMapping{}, ErrAlreadyExists
	}
	return m, nil
}

func (s *GormStore) Lookup(ctx context.Context, shortCode string) (model.URLMapping, error) {
	var m model.URLMapping
	err := s.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.URLMapping{}, ErrNotFound
		}
		return model.URLMapping{}, unavailable(err)
	}
	// MySQL 默认排序规则大小写不敏感，短码区分大小写
	if m.ShortCode != shortCode {
		return model.URLMapping{}, ErrNotFound
	}
	return m, nil
}

func (s *GormStore) List(ctx context.Context, offset, limit int) ([]model.URLMapping, error) {
	var mappings []model.URLMapping
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&mappings).Error; err != nil {
		return nil, unavailable(err)
	}
	return mappings, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.URLMapping{}).Count(&n).Error; err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (s *GormStore) Delete(ctx context.Context, shortCode string) error {
	result := s.db.WithContext(ctx).Where("short_code = ?", shortCode).Delete(&model.URLMapping{})
	if result.Error != nil {
		return unavailable(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
