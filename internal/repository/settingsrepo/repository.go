package settingsrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/metrics"
)

// SettingsRepository guarda as configurações da loja em uma única linha JSONB (id = 1).
type SettingsRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewSettingsRepository cria o repositório de configurações.
func NewSettingsRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger, m *metrics.Metrics) *SettingsRepository {
	return &SettingsRepository{DB: db, DBTimeout: dbTimeout, logger: logger, metrics: m}
}

// Get retorna as configurações gravadas; found=false quando não há registro
// ou quando o JSON gravado está corrompido (o chamador usa os padrões).
func (r *SettingsRepository) Get(ctx context.Context) (domain.StoreSettings, bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var raw []byte
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT data FROM store_settings WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.StoreSettings{}, false, nil
	}
	if err != nil {
		return domain.StoreSettings{}, false, apperror.NewDBError("Falha ao ler configurações", err)
	}

	var s domain.StoreSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		r.logger.Warn("Configurações da loja corrompidas; usando padrões.", map[string]interface{}{"error": err.Error()})
		r.metrics.StorageFallback("store_settings")
		return domain.StoreSettings{}, false, nil
	}
	return s, true, nil
}

// Save grava (upsert) as configurações.
func (r *SettingsRepository) Save(ctx context.Context, s domain.StoreSettings) (domain.StoreSettings, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	raw, err := json.Marshal(s)
	if err != nil {
		return domain.StoreSettings{}, apperror.NewInternalError("Falha ao serializar configurações", err)
	}

	_, err = r.DB.ExecContext(ctxTimeout, `
        INSERT INTO store_settings (id, data, updated_at) VALUES (1, $1, $2)
        ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		raw, s.UpdatedAt)
	if err != nil {
		r.logger.Error("Falha ao gravar configurações.", err)
		return domain.StoreSettings{}, apperror.NewDBError("Falha ao gravar configurações", err)
	}
	return s, nil
}
