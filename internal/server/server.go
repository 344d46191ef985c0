package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"wallet-ledger/internal/cache"
	"wallet-ledger/internal/config"
	"wallet-ledger/internal/events"
	"wallet-ledger/internal/handler"
	"wallet-ledger/internal/repository"
	"wallet-ledger/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	db     *sql.DB
	redis  *redis.Client
	nats   *nats.Conn
	logger *slog.Logger
	port   string
}

// NewServer connects the ledger store and the optional cache and event bus, then
// wires the HTTP routes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Successfully connected to database")

	if cfg.MigrateOnStart {
		if err := repository.RunMigrations(ctx, db, "up"); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Migrations applied")
	}

	s := &Server{db: db, logger: logger}

	var balanceCache cache.BalanceCache = cache.NopBalanceCache{}
	if cfg.RedisAddr != "" {
		s.redis, err = connectRedis(ctx, cfg)
		if err != nil {
			s.close()
			return nil, err
		}
		balanceCache = cache.NewRedisBalanceCache(s.redis, cfg.BalanceCacheTTL)
		logger.Info("Balance cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.BalanceCacheTTL)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NatsURL != "" {
		s.nats, err = nats.Connect(cfg.NatsURL, nats.Name("wallet-ledger"))
		if err != nil {
			s.close()
			return nil, fmt.Errorf("nats connect: %w", err)
		}
		publisher = events.NewNATSPublisher(s.nats, cfg.NatsTransferSubject)
		logger.Info("Transfer events enabled", "subject", cfg.NatsTransferSubject)
	}

	store := repository.NewStore(db, logger, repository.WithLockTimeout(cfg.LockTimeout))

	transferService := service.NewTransferService(store, logger,
		service.WithBalanceCache(balanceCache),
		service.WithPublisher(publisher),
		service.WithFailedTransferRecords(cfg.RecordFailedTransfers),
	)
	queryService := service.NewQueryService(store.Wallets(), store.Transactions(), balanceCache, logger, cfg.HistoryIncludeSent)
	walletService := service.NewWalletService(store.Wallets(), logger)

	transactionHandler := handler.NewTransactionHandler(transferService, queryService)
	walletHandler := handler.NewWalletHandler(walletService, queryService)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	router.HandleFunc("/transfer", transactionHandler.Transfer).Methods("POST")
	router.HandleFunc("/transactions/{user_id}", transactionHandler.ListTransactions).Methods("GET")
	router.HandleFunc("/wallet/{user_id}", walletHandler.GetWallet).Methods("GET")
	router.HandleFunc("/wallets", walletHandler.CreateWallet).Methods("POST")
	router.HandleFunc("/health", s.health).Methods("GET")

	s.router = router
	return s, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return db, nil
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := s.db.PingContext(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
		return
	}

	body := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	// The cache is optional, so losing it degrades rather than fails the check.
	if s.redis != nil {
		body["cache"] = "up"
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			body["cache"] = "down"
		}
	}
	if s.nats != nil {
		body["events"] = s.nats.Status().String()
	}

	json.NewEncoder(w).Encode(body)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed", "error", err)
		}
	}()

	return s.port, nil
}

// Stop drains in-flight requests, then releases the store, cache and event bus.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.close()
	return err
}

func (s *Server) close() {
	if s.nats != nil {
		if err := s.nats.Drain(); err != nil {
			s.logger.Warn("NATS drain failed", "error", err)
		}
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		server.close()
		return nil, "", err
	}

	return server, port, nil
}
