package db

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TranslationRecord maps translation_records, the durable cache tier.
type TranslationRecord struct {
	Key            string    `gorm:"column:key;primaryKey;type:text"`
	RecordUUID     string    `gorm:"column:record_uuid;type:text;not null;unique"`
	AccountID      string    `gorm:"column:account_id;type:text;not null;default:'';index"`
	TranslatedText string    `gorm:"column:translated_text;type:text;not null"`
	SourceLang     string    `gorm:"column:source_lang;type:text;not null"`
	TargetLang     string    `gorm:"column:target_lang;type:text;not null"`
	Engine         string    `gorm:"column:engine;type:text;not null"`
	DetectedLang   string    `gorm:"column:detected_lang;type:text;not null;default:''"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index"`
	AccessedAt     time.Time `gorm:"column:accessed_at;not null"`
	AccessCount    int64     `gorm:"column:access_count;not null;default:0"`
}

func (TranslationRecord) TableName() string { return "translation_records" }

func (r *TranslationRecord) BeforeCreate(_ *gorm.DB) error {
	if strings.TrimSpace(r.RecordUUID) == "" {
		r.RecordUUID = uuid.NewString()
	}
	return nil
}

// AccountConfig maps account_configs, the per-account defaults store.
type AccountConfig struct {
	AccountID         string          `gorm:"column:account_id;primaryKey;type:text"`
	ConfigUUID        string          `gorm:"column:config_uuid;type:text;not null;unique"`
	DefaultEngine     string          `gorm:"column:default_engine;type:text;not null;default:''"`
	DefaultTargetLang string          `gorm:"column:default_target_lang;type:text;not null;default:''"`
	DefaultStyle      string          `gorm:"column:default_style;type:text;not null;default:''"`
	Payload           json.RawMessage `gorm:"column:payload;type:text"`
	CreatedAt         time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;not null"`
}

func (AccountConfig) TableName() string { return "account_configs" }

func (c *AccountConfig) BeforeCreate(_ *gorm.DB) error {
	if strings.TrimSpace(c.ConfigUUID) == "" {
		c.ConfigUUID = uuid.NewString()
	}
	return nil
}

func autoMigrateModels() []any {
	return []any{
		&TranslationRecord{},
		&AccountConfig{},
	}
}
