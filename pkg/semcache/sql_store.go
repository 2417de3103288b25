package semcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sql-agent-be/pkg/agentctx"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cacheRecord struct {
	QuestionHash string    `gorm:"primaryKey;type:varchar(64)"`
	Question     string    `gorm:"type:text;not null"`
	SQLQuery     string    `gorm:"column:sql_query;type:text;not null"`
	Result       string    `gorm:"type:text;not null"`
	HitCount     int64     `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	LastUsed     time.Time `gorm:"not null;index"`
}

func (cacheRecord) TableName() string {
	return "semantic_cache"
}

func (r *cacheRecord) toEntry() *Entry {
	return &Entry{
		QuestionHash: r.QuestionHash,
		Question:     r.Question,
		SQLQuery:     r.SQLQuery,
		Result:       r.Result,
		HitCount:     r.HitCount,
		CreatedAt:    r.CreatedAt,
		LastUsed:     r.LastUsed,
	}
}

// SQLStore keeps the cache in a gorm database, normally the sqlite file that
// also holds interaction history.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Cache = (*SQLStore)(nil)

// NewSQLStore creates the semantic_cache table when missing.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&cacheRecord{}); err != nil {
		return nil, fmt.Errorf("migrate semantic_cache: %w", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

func (s *SQLStore) Check(ctx context.Context, question string) (*Entry, error) {
	key := Key(question)

	res := s.db.WithContext(ctx).
		Model(&cacheRecord{}).
		Where("question_hash = ?", key).
		Updates(map[string]interface{}{
			"hit_count": gorm.Expr("hit_count + 1"),
			"last_used": s.now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("touch cache entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var rec cacheRecord
	if err := s.db.WithContext(ctx).Where("question_hash = ?", key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cache entry: %w", err)
	}
	return rec.toEntry(), nil
}

func (s *SQLStore) Save(ctx context.Context, question, sql string, result *agentctx.ExecutionResult) error {
	encoded, err := encodeResult(result)
	if err != nil {
		return err
	}

	now := s.now()
	rec := cacheRecord{
		QuestionHash: Key(question),
		Question:     question,
		SQLQuery:     sql,
		Result:       encoded,
		HitCount:     1,
		CreatedAt:    now,
		LastUsed:     now,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"question", "sql_query", "result", "last_used"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save cache entry: %w", err)
	}
	return nil
}

func (s *SQLStore) Statistics(ctx context.Context) (Stats, error) {
	var row struct {
		Count int64
		Total int64
	}
	err := s.db.WithContext(ctx).
		Model(&cacheRecord{}).
		Select("COUNT(*) AS count, COALESCE(SUM(hit_count), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return Stats{}, fmt.Errorf("cache statistics: %w", err)
	}
	return newStats(row.Count, row.Total), nil
}
