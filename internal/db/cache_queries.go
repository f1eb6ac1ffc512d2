package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lingua.desk/lingod/internal/cache"
)

// Pool implements cache.Backend so the two-tier store can use sqlite as its
// durable tier.

func (p *Pool) GetRecord(ctx context.Context, key string) (*cache.Record, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	var row TranslationRecord
	err := p.gdb.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query translation record: %w", err)
	}
	return recordFromRow(row), nil
}

func (p *Pool) PutRecord(ctx context.Context, rec *cache.Record) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if rec == nil || strings.TrimSpace(rec.Key) == "" {
		return fmt.Errorf("record key is required")
	}

	row := TranslationRecord{
		Key:            rec.Key,
		AccountID:      rec.AccountID,
		TranslatedText: rec.TranslatedText,
		SourceLang:     rec.SourceLang,
		TargetLang:     rec.TargetLang,
		Engine:         rec.Engine,
		DetectedLang:   rec.DetectedLang,
		CreatedAt:      rec.CreatedAt,
		AccessedAt:     rec.AccessedAt,
		AccessCount:    rec.AccessCount,
	}
	err := p.gdb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_id", "translated_text", "source_lang", "target_lang",
			"engine", "detected_lang", "created_at", "accessed_at", "access_count",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert translation record: %w", err)
	}
	return nil
}

func (p *Pool) TouchRecord(ctx context.Context, key string, accessedAt time.Time) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	err := p.gdb.WithContext(ctx).
		Model(&TranslationRecord{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"accessed_at":  accessedAt.UTC(),
			"access_count": gorm.Expr("access_count + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("touch translation record: %w", err)
	}
	return nil
}

func (p *Pool) DeleteRecord(ctx context.Context, key string) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if err := p.gdb.WithContext(ctx).Delete(&TranslationRecord{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete translation record: %w", err)
	}
	return nil
}

func (p *Pool) DeleteRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if p == nil || p.gdb == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}
	res := p.gdb.WithContext(ctx).Delete(&TranslationRecord{}, "created_at < ?", cutoff.UTC())
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired translation records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (p *Pool) DeleteRecordsByAccount(ctx context.Context, accountID string) (int64, error) {
	if p == nil || p.gdb == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}
	res := p.gdb.WithContext(ctx).Delete(&TranslationRecord{}, "account_id = ?", accountID)
	if res.Error != nil {
		return 0, fmt.Errorf("delete account translation records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (p *Pool) DeleteAllRecords(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if err := p.gdb.WithContext(ctx).Exec("DELETE FROM translation_records").Error; err != nil {
		return fmt.Errorf("delete all translation records: %w", err)
	}
	return nil
}

// CountRecords reports the durable tier size for the stats surface.
func (p *Pool) CountRecords(ctx context.Context) (int64, error) {
	if p == nil || p.gdb == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}
	var count int64
	if err := p.gdb.WithContext(ctx).Model(&TranslationRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count translation records: %w", err)
	}
	return count, nil
}

// ListRecordsByAccount returns an account's cached translations, most recent
// first, for the history surface.
func (p *Pool) ListRecordsByAccount(ctx context.Context, accountID string, limit int) ([]cache.Record, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var rows []TranslationRecord
	err := p.gdb.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("accessed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list account translation records: %w", err)
	}

	out := make([]cache.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, *recordFromRow(row))
	}
	return out, nil
}

func recordFromRow(row TranslationRecord) *cache.Record {
	return &cache.Record{
		Key:            row.Key,
		AccountID:      row.AccountID,
		TranslatedText: row.TranslatedText,
		SourceLang:     row.SourceLang,
		TargetLang:     row.TargetLang,
		Engine:         row.Engine,
		DetectedLang:   row.DetectedLang,
		CreatedAt:      row.CreatedAt,
		AccessedAt:     row.AccessedAt,
		AccessCount:    row.AccessCount,
	}
}
