package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"lingua.desk/lingod/internal/accountcfg"
	"lingua.desk/lingod/internal/db"
	"lingua.desk/lingod/internal/sanitize"
	"lingua.desk/lingod/internal/translation"
)

const maxConfigPayloadBytes = 16 << 10

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Engine     string `json:"engine"`
	AccountID  string `json:"account_id"`
	Options    struct {
		Style string `json:"style"`
	} `json:"options"`
}

type detectRequest struct {
	Text string `json:"text"`
}

type accountConfigResponse struct {
	AccountID         string    `json:"account_id"`
	DefaultEngine     string    `json:"default_engine,omitempty"`
	DefaultTargetLang string    `json:"default_target_lang,omitempty"`
	DefaultStyle      string    `json:"default_style,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (s *Server) handleHealth(c echo.Context) error {
	available := 0
	engines := s.manager.Engines()
	for _, engine := range engines {
		if engine.Available {
			available++
		}
	}
	return success(c, map[string]any{
		"service":           "lingod",
		"time":              time.Now().UTC(),
		"engines":           len(engines),
		"engines_available": available,
	})
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}

	result, err := s.manager.Translate(c.Request().Context(), translation.Request{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Engine:     req.Engine,
		Style:      req.Options.Style,
		AccountID:  strings.TrimSpace(req.AccountID),
	})
	if err != nil {
		return s.failTranslation(c, err)
	}
	return success(c, result)
}

func (s *Server) handleDetect(c echo.Context) error {
	var req detectRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}

	detected, err := s.manager.DetectLanguage(c.Request().Context(), req.Text)
	if err != nil {
		return s.failTranslation(c, err)
	}
	return success(c, map[string]any{
		"language": detected,
	})
}

func (s *Server) handleStats(c echo.Context) error {
	from, err := parseTimeFilter(c.QueryParam("from"), false)
	if err != nil {
		return failValidation(c, map[string]string{"from": "must be RFC3339 or YYYY-MM-DD"})
	}
	to, err := parseTimeFilter(c.QueryParam("to"), true)
	if err != nil {
		return failValidation(c, map[string]string{"to": "must be RFC3339 or YYYY-MM-DD"})
	}
	if from != nil && to != nil && from.After(*to) {
		return failValidation(c, map[string]string{"time_range": "from must be <= to"})
	}

	data := map[string]any{
		"today": s.agg.Today(),
		"days":  s.agg.Snapshot(),
	}
	if from != nil && to != nil {
		data["range"] = s.agg.Range(*from, *to)
	}
	if s.store != nil {
		data["cache"] = s.store.Stats()
	}
	if s.pool != nil {
		if count, countErr := s.pool.CountRecords(c.Request().Context()); countErr == nil {
			data["cache_records"] = count
		}
	}
	if s.coord != nil {
		data["in_flight"] = s.coord.InFlight()
		data["queued"] = s.coord.QueueLen()
	}
	return success(c, data)
}

func (s *Server) handleEngines(c echo.Context) error {
	return success(c, map[string]any{
		"items":   s.manager.Engines(),
		"default": s.manager.DefaultEngine(),
		"styles":  translation.StyleNames(),
	})
}

func (s *Server) handleLanguages(c echo.Context) error {
	return success(c, map[string]any{
		"items": translation.TranslationLanguageOptions(s.registry),
	})
}

func (s *Server) handleHistory(c echo.Context) error {
	accountID := strings.TrimSpace(c.QueryParam("account_id"))
	if accountID == "" {
		return failValidation(c, map[string]string{"account_id": "is required"})
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), 100, 1, 500)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	if s.pool == nil {
		return success(c, map[string]any{"items": []any{}})
	}

	records, err := s.pool.ListRecordsByAccount(c.Request().Context(), accountID, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query history failed")
		return internalError(c, "Failed to load history")
	}

	type historyItem struct {
		TranslatedText string    `json:"translated_text"`
		SourceLang     string    `json:"source_lang"`
		TargetLang     string    `json:"target_lang"`
		Engine         string    `json:"engine"`
		DetectedLang   string    `json:"detected_lang,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
		AccessedAt     time.Time `json:"accessed_at"`
		AccessCount    int64     `json:"access_count"`
	}
	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem{
			TranslatedText: rec.TranslatedText,
			SourceLang:     rec.SourceLang,
			TargetLang:     rec.TargetLang,
			Engine:         rec.Engine,
			DetectedLang:   rec.DetectedLang,
			CreatedAt:      rec.CreatedAt,
			AccessedAt:     rec.AccessedAt,
			AccessCount:    rec.AccessCount,
		})
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleGetAccountConfig(c echo.Context) error {
	accountID := strings.TrimSpace(c.Param("account_id"))
	if accountID == "" {
		return failValidation(c, map[string]string{"account_id": "is required"})
	}
	if s.pool == nil {
		return failNotFound(c, "Account config not found")
	}

	cfg, err := s.pool.GetAccountConfig(c.Request().Context(), accountID)
	if err != nil {
		s.logger.Error().Err(err).Msg("query account config failed")
		return internalError(c, "Failed to load account config")
	}
	if cfg == nil {
		return failNotFound(c, "Account config not found")
	}

	return success(c, accountConfigResponse{
		AccountID:         cfg.AccountID,
		DefaultEngine:     cfg.DefaultEngine,
		DefaultTargetLang: cfg.DefaultTargetLang,
		DefaultStyle:      cfg.DefaultStyle,
		UpdatedAt:         cfg.UpdatedAt,
	})
}

func (s *Server) handlePutAccountConfig(c echo.Context) error {
	accountID := strings.TrimSpace(c.Param("account_id"))
	if accountID == "" {
		return failValidation(c, map[string]string{"account_id": "is required"})
	}
	if s.pool == nil {
		return internalError(c, "Account config store is not available")
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxConfigPayloadBytes))
	if err != nil {
		return failValidation(c, map[string]string{"body": "could not be read"})
	}

	payload, err := accountcfg.ValidatePayload(raw)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if engine := strings.TrimSpace(payload.DefaultEngine); engine != "" {
		if _, resolveErr := s.registry.Provider(engine); resolveErr != nil {
			return failValidation(c, map[string]string{"default_engine": "is not a registered engine"})
		}
	}

	saved, err := s.pool.SaveAccountConfig(c.Request().Context(), db.SaveAccountConfigParams{
		AccountID:         accountID,
		DefaultEngine:     payload.DefaultEngine,
		DefaultTargetLang: payload.DefaultTargetLang,
		DefaultStyle:      payload.DefaultStyle,
		Payload:           json.RawMessage(raw),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("save account config failed")
		return internalError(c, "Failed to save account config")
	}

	return success(c, accountConfigResponse{
		AccountID:         saved.AccountID,
		DefaultEngine:     saved.DefaultEngine,
		DefaultTargetLang: saved.DefaultTargetLang,
		DefaultStyle:      saved.DefaultStyle,
		UpdatedAt:         saved.UpdatedAt,
	})
}

func (s *Server) handleClearCache(c echo.Context) error {
	if s.store != nil {
		if err := s.store.Clear(c.Request().Context()); err != nil {
			s.logger.Error().Err(err).Msg("clear cache failed")
			return internalError(c, "Failed to clear cache")
		}
	}
	return success(c, map[string]any{"cleared": "cache"})
}

func (s *Server) handleClearAccountCache(c echo.Context) error {
	accountID := strings.TrimSpace(c.Param("account_id"))
	if accountID == "" {
		return failValidation(c, map[string]string{"account_id": "is required"})
	}
	if s.store != nil {
		if err := s.store.ClearAccount(c.Request().Context(), accountID); err != nil {
			s.logger.Error().Err(err).Msg("clear account cache failed")
			return internalError(c, "Failed to clear account cache")
		}
	}
	return success(c, map[string]any{
		"cleared":    "cache",
		"account_id": accountID,
	})
}

func (s *Server) handleClearHistory(c echo.Context) error {
	if s.store != nil {
		if err := s.store.Clear(c.Request().Context()); err != nil {
			s.logger.Error().Err(err).Msg("clear history failed")
			return internalError(c, "Failed to clear history")
		}
	}
	if s.agg != nil {
		s.agg.Reset()
	}
	return success(c, map[string]any{"cleared": "history"})
}

func (s *Server) handleClearUserData(c echo.Context) error {
	ctx := c.Request().Context()
	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Error().Err(err).Msg("clear user data cache failed")
			return internalError(c, "Failed to clear user data")
		}
	}
	if s.agg != nil {
		s.agg.Reset()
	}
	if s.pool != nil {
		if err := s.pool.DeleteAllAccountConfigs(ctx); err != nil {
			s.logger.Error().Err(err).Msg("clear account configs failed")
			return internalError(c, "Failed to clear user data")
		}
	}
	return success(c, map[string]any{"cleared": "user_data"})
}

// failTranslation maps the error taxonomy onto HTTP statuses and keeps the
// response message free of request text and provider payloads.
func (s *Server) failTranslation(c echo.Context, err error) error {
	kind := translation.KindOf(err)
	status := statusForKind(kind)

	message := "Translation failed"
	var te *translation.Error
	if errors.As(err, &te) {
		message = sanitize.LogMessage(te.Error())
	}
	if status >= 500 && kind == translation.KindProvider {
		s.logger.Error().Err(err).Msg("translation failed")
	}

	return fail(c, status, message, map[string]any{
		"kind": string(kind),
	})
}

func statusForKind(kind translation.Kind) int {
	switch kind {
	case translation.KindInvalidInput:
		return http.StatusBadRequest
	case translation.KindEngineNotFound:
		return http.StatusNotFound
	case translation.KindEngineUnavailable, translation.KindConfigInvalid:
		return http.StatusServiceUnavailable
	case translation.KindQueueFull:
		return http.StatusTooManyRequests
	case translation.KindTimeout:
		return http.StatusGatewayTimeout
	case translation.KindNetwork, translation.KindProvider, translation.KindEmptyResult:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, errors.New("must be in range")
	}
	return value, nil
}

func parseTimeFilter(raw string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	if ts, err := time.Parse(time.RFC3339, trimmed); err == nil {
		utc := ts.UTC()
		return &utc, nil
	}
	if day, err := time.Parse("2006-01-02", trimmed); err == nil {
		utc := day.UTC()
		if endOfDay {
			utc = utc.Add((24 * time.Hour) - time.Nanosecond)
		}
		return &utc, nil
	}
	return nil, errors.New("invalid time format")
}
