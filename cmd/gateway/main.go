package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/latchjack/burger/gateway"
	"github.com/latchjack/burger/pkg/auth"
	"github.com/latchjack/burger/pkg/builder"
	"github.com/latchjack/burger/pkg/config"
	"github.com/latchjack/burger/pkg/discovery"
	bgrpc "github.com/latchjack/burger/pkg/grpc"
	"github.com/latchjack/burger/pkg/messaging"
	"github.com/latchjack/burger/pkg/repository"
	"go.uber.org/zap"
)

// ServiceName is the etcd registration name of the HTTP API.
const ServiceName = "burger-gateway"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	authCfg, err := auth.LoadConfigFromEnv()
	if err != nil {
		logger.Fatal("Invalid auth configuration", zap.Error(err))
	}

	menu, err := cfg.Menu.BuildMenu()
	if err != nil {
		logger.Fatal("Invalid menu configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// MySQL
	db, err := repository.NewMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}
	ingredients := repository.NewIngredientStore(db)
	if err := ingredients.Seed(ctx, menu); err != nil {
		logger.Fatal("Failed to seed ingredients", zap.Error(err))
	}

	// Redis
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// MongoDB
	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	auditStore, err := repository.NewAuditStore(connectCtx, &cfg.MongoDB)
	if err != nil {
		cancelConnect()
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := auditStore.EnsureIndexes(connectCtx); err != nil {
		logger.Warn("Audit index not created", zap.Error(err))
	}
	cancelConnect()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = auditStore.Close(closeCtx)
	}()

	// RabbitMQ is optional
	var events gateway.EventPublisher = messaging.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := messaging.Dial(&cfg.RabbitMQ, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, order events disabled", zap.Error(err))
		} else {
			defer conn.Close()
			events = messaging.NewPublisher(conn, logger)
		}
	}

	system := actor.NewActorSystem()
	defer system.Shutdown()
	hub := builder.NewHub(system, menu, ingredients, redisRepo, logger)
	defer hub.Shutdown()

	gw := gateway.NewGateway(cfg, logger, gateway.Deps{
		Menu:        menu,
		Orders:      repository.NewOrderStore(db),
		Ingredients: ingredients,
		Users:       repository.NewUserStore(db),
		Cache:       redisRepo,
		Audit:       auditStore,
		Events:      events,
		Builders:    hub,
		Tokens:      auth.NewIssuer(authCfg),
	})
	gw.SetupRoutes()

	// gRPC health
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database handle", zap.Error(err))
	}
	health := bgrpc.NewHealthServer(logger, 15*time.Second,
		bgrpc.Check{Name: "mysql", Ping: sqlDB.PingContext},
		bgrpc.Check{Name: "redis", Ping: redisRepo.Ping},
		bgrpc.Check{Name: "mongodb", Ping: auditStore.Ping},
	)
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		logger.Fatal("Failed to listen for health service", zap.Error(err))
	}
	go health.Run(ctx)

	errCh := make(chan error, 2)
	go func() {
		if err := health.Serve(lis); err != nil {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()
	go func() {
		if err := gw.Start(); err != nil {
			errCh <- fmt.Errorf("gateway: %w", err)
		}
	}()

	// Service discovery is optional
	instance := &discovery.ServiceInstance{
		Name: ServiceName,
		Host: advertiseHost(cfg.Gateway.Host),
		Port: cfg.Gateway.Port,
	}
	var sd *discovery.ServiceDiscovery
	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register gateway", zap.Error(err))
		}
	}

	logger.Info("Gateway started successfully",
		zap.String("http", fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)),
		zap.String("health", lis.Addr().String()))

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}
	health.Stop()

	logger.Info("Gateway stopped")
}

// advertiseHost replaces a wildcard bind address with the machine hostname.
func advertiseHost(host string) string {
	if host != "" && host != "0.0.0.0" && host != "::" {
		return host
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "localhost"
}
