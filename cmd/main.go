package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gofarma/config"
	_ "gofarma/docs" // registra o Swagger servido em /swagger/
	"gofarma/internal/pkg/cache"
	"gofarma/internal/pkg/database"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/metrics"
	"gofarma/internal/pkg/token"

	"gofarma/internal/api/address"
	"gofarma/internal/api/cart"
	"gofarma/internal/api/category"
	"gofarma/internal/api/order"
	"gofarma/internal/api/product"
	"gofarma/internal/api/router"
	"gofarma/internal/api/settings"
	"gofarma/internal/api/user"
	"gofarma/internal/repository/cartrepo"
	"gofarma/internal/repository/categoryrepo"
	"gofarma/internal/repository/memrepo"
	"gofarma/internal/repository/orderrepo"
	"gofarma/internal/repository/productrepo"
	"gofarma/internal/repository/settingsrepo"
	"gofarma/internal/repository/userrepo"
	"gofarma/internal/service/addressservice"
	"gofarma/internal/service/cartservice"
	"gofarma/internal/service/categoryservice"
	"gofarma/internal/service/checkoutservice"
	"gofarma/internal/service/orderservice"
	"gofarma/internal/service/pricing"
	"gofarma/internal/service/productservice"
	"gofarma/internal/service/settingsservice"
	"gofarma/internal/service/userservice"
)

// @title GoFarma API
// @version 1.0
// @description API da farmácia online: catálogo, carrinho, checkout e pedidos.
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		// As variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Inicialização
	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "storage": cfg.StorageDriver})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 2. Conexão com Recursos de Infraestrutura
	var (
		cacheClient  cache.Client
		userRepo     userservice.UserRepository
		addressRepo  addressservice.AddressRepository
		orderRepo    orderservice.OrderRepository
		productRepo  productservice.ProductRepository
		categoryRepo categoryservice.CategoryRepository
		settingsRepo settingsservice.SettingsRepository
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("Armazenamento em memória: os dados serão perdidos ao reiniciar.", nil)
		cacheClient = cache.NewMemoryClient()
		store := memrepo.NewStore()
		userRepo, addressRepo, orderRepo = store.Users, store.Addresses, store.Orders
		productRepo, categoryRepo, settingsRepo = store.Products, store.Categories, store.Settings

	default:
		// A. Banco de Dados (PostgreSQL)
		db, err := database.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		defer db.Close()
		log.Info("Conexão PostgreSQL estabelecida.", nil)

		// B. Cache (Redis)
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			log.Fatal("Falha ao conectar ao Redis.", err)
		}
		defer redisClient.Close()
		cacheClient = redisClient
		log.Info("Conexão Redis estabelecida.", nil)

		userRepo = userrepo.NewUserRepository(db, cfg.DBTimeout, log)
		addressRepo = userrepo.NewAddressRepository(db, cfg.DBTimeout, log)
		orderRepo = orderrepo.NewOrderRepository(db, cfg.DBTimeout, log)
		productRepo = productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, log)
		categoryRepo = categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, log)
		settingsRepo = settingsrepo.NewSettingsRepository(db, cfg.DBTimeout, log, m)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	denylist := token.NewDenylist(cacheClient)

	userSvc := userservice.NewService(userRepo, tokenSvc, denylist, log)
	addressSvc := addressservice.NewService(addressRepo, log)
	settingsSvc := settingsservice.NewService(settingsRepo, settingsservice.Defaults(cfg), log)
	pricingSvc := pricing.NewService(settingsSvc)
	productSvc := productservice.NewService(productRepo, log)
	categorySvc := categoryservice.NewService(categoryRepo, log)
	cartSvc := cartservice.NewService(
		cartrepo.NewCartRepository(cacheClient, cfg.CartTTL, log, m), productRepo, pricingSvc, log)
	orderSvc := orderservice.NewService(orderRepo, log, m)
	checkoutSvc := checkoutservice.NewService(cartSvc, addressSvc, settingsSvc, orderSvc, cacheClient, cfg.IdempotencyTTL, log)

	// Garante que a loja sempre tenha um administrador.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), cfg.DBTimeout)
	if err := userSvc.EnsureAdmin(bootCtx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		bootCancel()
		log.Fatal("Falha ao garantir o administrador inicial.", err)
	}
	bootCancel()

	handlers := router.Handlers{
		User:     user.NewHandler(userSvc, log),
		Address:  address.NewHandler(addressSvc, log),
		Cart:     cart.NewHandler(cartSvc, log),
		Order:    order.NewHandler(orderSvc, checkoutSvc, log),
		Product:  product.NewHandler(productSvc, log),
		Category: category.NewHandler(categorySvc, log),
		Settings: settings.NewHandler(settingsSvc, pricingSvc, log),
	}

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(handlers, router.Options{
		Tokens:      tokenSvc,
		Sessions:    userSvc,
		Cache:       cacheClient,
		Metrics:     m,
		Gatherer:    registry,
		Logger:      log,
		RateLimit:   cfg.RateLimitMaxRequests,
		RatePeriod:  cfg.RateLimitPeriod,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoFarma ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
