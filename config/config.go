package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Drivers de armazenamento suportados.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config armazena todas as configurações do aplicativo GoFarma.
// Os campos cobrem DB, Cache, Segurança, Robustez e as regras comerciais padrão da loja.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string

	// Armazenamento: "postgres" (padrão) ou "memory" (desenvolvimento local)
	StorageDriver string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr    string
	CacheTimeout time.Duration
	CartTTL      time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// CORS (SPA da loja e do painel administrativo)
	CORSAllowedOrigins []string

	// Conta administrativa criada no bootstrap quando não existe nenhum admin
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// Regras comerciais padrão (usadas enquanto o admin não salvar as configurações da loja)
	ShippingFlatFee       decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	MaxInstallments       int

	// Checkout
	IdempotencyTTL time.Duration
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	storage := strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres))

	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		StorageDriver: storage,

		// 2. Banco de Dados (PostgreSQL)
		DBTimeout: getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout: getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		CartTTL:      getDurationEnv("CART_TTL_HOURS", 720) * time.Hour, // 30 dias

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		// 6. Bootstrap do admin
		AdminName:     getEnv("ADMIN_NAME", "Administrador"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@gofarma.com.br"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		// 7. Regras comerciais
		ShippingFlatFee:       getDecimalEnv("SHIPPING_FLAT_FEE", "10.00"),
		FreeShippingThreshold: getDecimalEnv("FREE_SHIPPING_THRESHOLD", "100.00"),
		MaxInstallments:       getIntEnv("MAX_INSTALLMENTS", 12),

		IdempotencyTTL: getDurationEnv("IDEMPOTENCY_TTL_HOURS", 24) * time.Hour,
	}

	// O DSN só é obrigatório quando o armazenamento é o PostgreSQL.
	if storage == StoragePostgres {
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	} else {
		cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getDecimalEnv lê um valor monetário (ex: "10.00").
func getDecimalEnv(key string, defaultValue string) decimal.Decimal {
	valueStr := getEnv(key, defaultValue)
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um valor monetário válido. Usando padrão (%s).", key, valueStr, defaultValue)
		return decimal.RequireFromString(defaultValue)
	}
	return value
}

// getListEnv lê uma lista separada por vírgulas.
func getListEnv(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
