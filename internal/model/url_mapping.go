package model

import (
	"time"
)

// URLMapping 短码与原始链接的映射，创建后不可修改
type URLMapping struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	ShortCode   string    `gorm:"size:12;uniqueIndex;not null" json:"short_code"`
	OriginalURL string    `gorm:"type:text;not null" json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (URLMapping) TableName() string {
	return "url_mappings"
}
