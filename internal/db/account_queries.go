package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetAccountConfig returns nil, nil when the account has no stored config.
func (p *Pool) GetAccountConfig(ctx context.Context, accountID string) (*AccountConfig, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	trimmed := strings.TrimSpace(accountID)
	if trimmed == "" {
		return nil, fmt.Errorf("account ID is required")
	}

	var row AccountConfig
	err := p.gdb.WithContext(ctx).First(&row, "account_id = ?", trimmed).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query account config: %w", err)
	}
	return &row, nil
}

type SaveAccountConfigParams struct {
	AccountID         string
	DefaultEngine     string
	DefaultTargetLang string
	DefaultStyle      string
	Payload           json.RawMessage
}

func (p *Pool) SaveAccountConfig(ctx context.Context, params SaveAccountConfigParams) (*AccountConfig, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	trimmed := strings.TrimSpace(params.AccountID)
	if trimmed == "" {
		return nil, fmt.Errorf("account ID is required")
	}

	row := AccountConfig{
		AccountID:         trimmed,
		DefaultEngine:     strings.TrimSpace(params.DefaultEngine),
		DefaultTargetLang: strings.TrimSpace(params.DefaultTargetLang),
		DefaultStyle:      strings.TrimSpace(params.DefaultStyle),
		Payload:           params.Payload,
	}
	err := p.gdb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"default_engine", "default_target_lang", "default_style", "payload", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert account config: %w", err)
	}

	return p.GetAccountConfig(ctx, trimmed)
}

func (p *Pool) DeleteAccountConfig(ctx context.Context, accountID string) (int64, error) {
	if p == nil || p.gdb == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}
	res := p.gdb.WithContext(ctx).Delete(&AccountConfig{}, "account_id = ?", strings.TrimSpace(accountID))
	if res.Error != nil {
		return 0, fmt.Errorf("delete account config: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (p *Pool) DeleteAllAccountConfigs(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if err := p.gdb.WithContext(ctx).Exec("DELETE FROM account_configs").Error; err != nil {
		return fmt.Errorf("delete all account configs: %w", err)
	}
	return nil
}
