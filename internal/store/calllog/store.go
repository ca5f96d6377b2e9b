// Package calllog 用 Gorm + SQLite 持久化网关调用记录，供回溯与排障。
package calllog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"uigate/internal/gateway"
	"uigate/internal/logger"
)

type callModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	Operation  string `gorm:"size:32;index"`
	Provider   string `gorm:"size:32"`
	DurationMs int64
	Fallback   bool
	Error      string
	RawExcerpt string
	CreatedAt  time.Time `gorm:"index"`
}

func (callModel) TableName() string { return "gateway_calls" }

// Store 实现 gateway.Recorder。
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）调用日志库。
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("calllog: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("calllog: open failed: %w", err)
	}
	if err := db.AutoMigrate(&callModel{}); err != nil {
		return nil, fmt.Errorf("calllog: migrate failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Record 落一条调用记录；失败只记日志，绝不影响请求处理。
func (s *Store) Record(rec gateway.CallRecord) {
	if s == nil || s.db == nil {
		return
	}
	m := callModel{
		ID:         rec.ID,
		Operation:  rec.Operation,
		Provider:   rec.Provider,
		DurationMs: rec.DurationMs,
		Fallback:   rec.Fallback,
		Error:      rec.Error,
		RawExcerpt: rec.RawExcerpt,
		CreatedAt:  time.Now(),
	}
	if err := s.db.Create(&m).Error; err != nil {
		logger.Warnf("calllog: insert failed: %v", err)
	}
}

// Entry 是查询返回的调用记录。
type Entry struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Provider   string    `json:"provider"`
	DurationMs int64     `json:"duration_ms"`
	Fallback   bool      `json:"fallback"`
	Error      string    `json:"error,omitempty"`
	RawExcerpt string    `json:"raw_excerpt,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Prune 删除早于 olderThan 的记录，返回删除条数。
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-olderThan)
	res := s.db.Where("created_at < ?", cutoff).Delete(&callModel{})
	return res.RowsAffected, res.Error
}

// Recent 返回最近 limit 条记录，新的在前。
func (s *Store) Recent(limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var rows []callModel
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{
			ID:         r.ID,
			Operation:  r.Operation,
			Provider:   r.Provider,
			DurationMs: r.DurationMs,
			Fallback:   r.Fallback,
			Error:      r.Error,
			RawExcerpt: r.RawExcerpt,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}
