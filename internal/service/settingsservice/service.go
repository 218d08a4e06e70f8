package settingsservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gofarma/config"
	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
)

// SettingsRepository define o contrato de persistência das configurações da loja.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.StoreSettings, bool, error)
	Save(ctx context.Context, s domain.StoreSettings) (domain.StoreSettings, error)
}

// Service expõe as configurações, caindo para os padrões enquanto nada foi salvo.
type Service struct {
	repo     SettingsRepository
	defaults domain.StoreSettings
	logger   logger.Logger
}

// NewService cria o serviço de configurações.
func NewService(repo SettingsRepository, defaults domain.StoreSettings, log logger.Logger) *Service {
	return &Service{repo: repo, defaults: defaults, logger: log}
}

// Defaults monta as configurações iniciais a partir do ambiente.
func Defaults(cfg *config.Config) domain.StoreSettings {
	return domain.StoreSettings{
		StoreName: "GoFarma",
		Contact: domain.ContactSettings{
			Email: "contato@gofarma.com.br",
		},
		SEO: domain.SEOSettings{
			Title:       "GoFarma - Farmácia online",
			Description: "Medicamentos, higiene e beleza com entrega em todo o Brasil.",
		},
		Payments:        domain.PaymentToggles{CreditCard: true, Boleto: true, Pix: true},
		MaxInstallments: cfg.MaxInstallments,
		Shipping: domain.ShippingSettings{
			FlatFee:               cfg.ShippingFlatFee,
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			Methods:               []domain.ShippingMethod{},
		},
	}
}

// GetSettings retorna as configurações gravadas ou os padrões.
func (s *Service) GetSettings(ctx context.Context) (domain.StoreSettings, error) {
	settings, found, err := s.repo.Get(ctx)
	if err != nil {
		return domain.StoreSettings{}, err
	}
	if !found {
		return s.defaults, nil
	}
	return settings, nil
}

// UpdateSettings valida e grava as configurações (admin).
func (s *Service) UpdateSettings(ctx context.Context, settings domain.StoreSettings) (domain.StoreSettings, error) {
	// 1. Validação
	if settings.StoreName == "" {
		return domain.StoreSettings{}, apperror.NewValidationError("O nome da loja é obrigatório.")
	}
	if settings.MaxInstallments < 1 || settings.MaxInstallments > 24 {
		return domain.StoreSettings{}, apperror.NewValidationError("O número máximo de parcelas deve estar entre 1 e 24.")
	}
	if settings.Shipping.FlatFee.LessThan(decimal.Zero) || settings.Shipping.FreeShippingThreshold.LessThan(decimal.Zero) {
		return domain.StoreSettings{}, apperror.NewValidationError("Valores de frete não podem ser negativos.")
	}
	if !settings.Payments.CreditCard && !settings.Payments.Boleto && !settings.Payments.Pix {
		return domain.StoreSettings{}, apperror.NewValidationError("Ao menos uma forma de pagamento deve estar ativa.")
	}
	methods, err := normalizeMethods(settings.Shipping.Methods)
	if err != nil {
		return domain.StoreSettings{}, err
	}
	settings.Shipping.Methods = methods

	// 2. Persistência
	settings.UpdatedAt = time.Now().UTC()
	saved, err := s.repo.Save(ctx, settings)
	if err != nil {
		return domain.StoreSettings{}, err
	}

	s.logger.Info("Configurações da loja atualizadas.", map[string]interface{}{"store_name": saved.StoreName})
	return saved, nil
}

// normalizeMethods valida as modalidades de entrega; o ID é gerado do nome quando ausente.
func normalizeMethods(in []domain.ShippingMethod) ([]domain.ShippingMethod, error) {
	out := make([]domain.ShippingMethod, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, m := range in {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return nil, apperror.NewValidationError("O nome da modalidade de entrega é obrigatório.")
		}
		m.ID = domain.Slugify(m.ID)
		if m.ID == "" {
			m.ID = domain.Slugify(m.Name)
		}
		if seen[m.ID] {
			return nil, apperror.NewValidationError(fmt.Sprintf("Modalidade de entrega '%s' duplicada.", m.ID))
		}
		seen[m.ID] = true
		if m.Fee.IsNegative() || m.FreeShippingThreshold.IsNegative() || m.EstimatedDays < 0 {
			return nil, apperror.NewValidationError(fmt.Sprintf("Valores da modalidade '%s' não podem ser negativos.", m.Name))
		}
		out = append(out, m)
	}
	return out, nil
}
