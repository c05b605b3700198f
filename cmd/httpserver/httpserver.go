// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-petr/pet-ledger/internal/accountdelivery"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/credential"
	"github.com/go-petr/pet-ledger/internal/depositdelivery"
	"github.com/go-petr/pet-ledger/internal/depositservice"
	"github.com/go-petr/pet-ledger/internal/journaldelivery"
	"github.com/go-petr/pet-ledger/internal/journalrepo"
	"github.com/go-petr/pet-ledger/internal/journalservice"
	"github.com/go-petr/pet-ledger/internal/ledgerrepo"
	"github.com/go-petr/pet-ledger/internal/memstore"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/sessiondelivery"
	"github.com/go-petr/pet-ledger/internal/sessionrepo"
	"github.com/go-petr/pet-ledger/internal/sessionservice"
	"github.com/go-petr/pet-ledger/internal/transferdelivery"
	"github.com/go-petr/pet-ledger/internal/transferservice"
	"github.com/go-petr/pet-ledger/internal/userdelivery"
	"github.com/go-petr/pet-ledger/internal/userrepo"
	"github.com/go-petr/pet-ledger/internal/userservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// AccountRepo is the account storage needed by the account, transfer and deposit services.
type AccountRepo interface {
	accountservice.Repo
	transferservice.AccountReader
}

// LedgerRepo runs the balance changing units of work.
type LedgerRepo interface {
	transferservice.Repo
	depositservice.Repo
}

// Repos is one storage backend.
type Repos struct {
	Users    userservice.Repo
	Sessions sessionservice.Repo
	Accounts AccountRepo
	Ledger   LedgerRepo
	Journal  journalservice.Repo
}

// PostgresRepos returns the repositories backed by PostgreSQL.
func PostgresRepos(conn *sql.DB, config configpkg.Config) Repos {
	return Repos{
		Users:    userrepo.NewRepoPGS(conn),
		Sessions: sessionrepo.NewRepoPGS(conn),
		Accounts: accountrepo.NewRepoPGS(conn),
		Ledger:   ledgerrepo.NewRepoPGS(conn, config.LedgerMaxRetries, config.LedgerRetryBaseDelay),
		Journal:  journalrepo.NewRepoPGS(conn),
	}
}

// MemoryRepos returns repositories kept in process memory.
func MemoryRepos() Repos {
	s := memstore.New()

	return Repos{
		Users:    s.Users(),
		Sessions: s.Sessions(),
		Accounts: s.Accounts(),
		Ledger:   s.Ledger(),
		Journal:  s.Journal(),
	}
}

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() error {
	if err := web.RegisterValidation("pin", credential.ValidPINField); err != nil {
		return fmt.Errorf("cannot register pin validator: %w", err)
	}

	if err := web.RegisterValidation("money", moneypkg.ValidMoney); err != nil {
		return fmt.Errorf("cannot register money validator: %w", err)
	}

	return nil
}

// New creates Server type with instantiated domains and routes.
//
// conn is kept for the caller and may be nil when repos do not use it.
func New(conn *sql.DB, repos Repos, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	guard := credential.NewGuard(config.PinHashCost)

	userService := userservice.New(repos.Users, bcrypt.DefaultCost)
	accountService := accountservice.New(repos.Accounts, guard)
	transferService := transferservice.New(repos.Ledger, repos.Accounts, guard)
	depositService := depositservice.New(repos.Ledger, repos.Accounts, guard)
	journalService := journalservice.New(repos.Journal, repos.Accounts)

	sessionService, err := sessionservice.New(repos.Sessions, config, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize session service: %w", err)
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)
	accountHandler := accountdelivery.NewHandler(accountService, journalService)
	transferHandler := transferdelivery.NewHandler(transferService)
	depositHandler := depositdelivery.NewHandler(depositService)
	journalHandler := journaldelivery.NewHandler(journalService)

	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())
	engine.Use(middleware.Metrics())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/")
	api.Use(middleware.Throttle(config.RateLimitRPS, config.RateLimitBurst))

	api.POST("/users", userHandler.Create)
	api.POST("/users/login", userHandler.Login)
	api.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := api.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.GET("/users/me", userHandler.Me)

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.PATCH("/accounts/:id", accountHandler.UpdatePIN)
	authRoutes.DELETE("/accounts/:id", accountHandler.Delete)
	authRoutes.POST("/accounts/:id/deposit", depositHandler.Create)
	authRoutes.GET("/accounts/:id/reconciliation", accountHandler.Reconcile)

	authRoutes.POST("/transactions", transferHandler.Create)
	authRoutes.GET("/transactions", journalHandler.List)
	authRoutes.GET("/transactions/:id", journalHandler.Get)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
