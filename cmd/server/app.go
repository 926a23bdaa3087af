package main

import (
	"context"
	"fmt"
	"net/http"

	"dailybread/config"
	"dailybread/db"
	"dailybread/db/mongo"
	"dailybread/db/postgres"
	"dailybread/handlers"
	"dailybread/payments"
	"dailybread/repository"
	"dailybread/routes"
	"dailybread/services"
	"dailybread/utils"
	"dailybread/worker"

	"go.uber.org/zap"
)

// repos bundles one implementation of every repository.
type repos struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	roles    repository.RoleRepository
	churches repository.ChurchRepository
	settings repository.SettingsRepository
	giving   repository.GivingRepository
	audit    repository.AuditRepository
	contact  repository.ContactRepository
}

// App owns the connections and services of one process.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	conns  []db.DB
	repos  repos

	Auth       *services.AuthService
	Churches   *services.ChurchService
	Admin      *services.AdminService
	Giving     *services.GivingService
	Dashboard  *services.DashboardService
	Statements *services.StatementService
	Contact    *services.ContactService
	Settler    *worker.Settler
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	switch cfg.DBType {
	case "postgres":
		pg := postgres.NewPostgresDB(cfg.PostgresURL, postgres.Pool{
			MaxOpen:     cfg.DBMaxOpen,
			MaxIdle:     cfg.DBMaxIdle,
			MaxLifetime: cfg.DBMaxLifetime,
		})
		if err := pg.Connect(); err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.conns = append(a.conns, pg)
		a.repos = repos{
			users:    repository.NewPostgresUserRepo(pg.Conn),
			sessions: repository.NewPostgresSessionRepo(pg.Conn),
			roles:    repository.NewPostgresRoleRepo(pg.Conn),
			churches: repository.NewPostgresChurchRepo(pg.Conn),
			settings: repository.NewPostgresSettingsRepo(pg.Conn),
			giving:   repository.NewPostgresGivingRepo(pg.Conn),
			audit:    repository.NewPostgresAuditRepo(pg.Conn),
			contact:  repository.NewPostgresContactRepo(pg.Conn),
		}

	case "memory":
		logger.Warn("using in-memory storage; data is lost on exit")
		m := repository.NewMemoryStore()
		a.repos = repos{
			users: m, sessions: m, roles: m, churches: m,
			settings: m, giving: m, audit: m, contact: m,
		}

	default:
		return nil, fmt.Errorf("DB_TYPE %q not supported", cfg.DBType)
	}

	if cfg.MongoURL != "" {
		mg := mongo.NewMongoDB(cfg.MongoURL, cfg.MongoDB)
		if err := mg.Connect(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		a.conns = append(a.conns, mg)
		auditRepo := repository.NewMongoAuditRepo(mg.Database())
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("could not create audit indexes", zap.Error(err))
		}
		a.repos.audit = auditRepo
		logger.Info("audit log stored in mongodb", zap.String("db", cfg.MongoDB))
	}

	var store services.ObjectStore
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Store(ctx, utils.R2Options{
			AccountID:       cfg.R2.AccountID,
			Bucket:          cfg.R2.Bucket,
			PublicURL:       cfg.R2.PublicURL,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		store = r2
	}

	var gateway payments.Gateway = payments.SandboxGateway{}
	if cfg.PaymentSecretKey != "" {
		gateway = payments.NewHTTPGateway(cfg.PaymentBaseURL, cfg.PaymentSecretKey)
	} else {
		logger.Warn("PAYMENT_SECRET_KEY not set, using sandbox payments")
	}

	r := a.repos
	a.Auth = services.NewAuthService(r.users, r.sessions, r.roles, cfg.SessionTTL, logger)
	a.Churches = &services.ChurchService{
		Churches: r.churches, Users: r.users, Audit: r.audit, Store: store, Logger: logger,
	}
	a.Admin = &services.AdminService{
		Churches: r.churches, Users: r.users, Roles: r.roles, Audit: r.audit, Logger: logger,
	}
	a.Giving = services.NewGivingService(r.users, r.churches, r.settings, r.giving, logger)
	a.Dashboard = services.NewDashboardService(r.users, r.churches, r.settings, r.giving, cfg.AppBaseURL)
	a.Statements = services.NewStatementService(r.users, r.churches, r.giving, store, logger)
	a.Contact = &services.ContactService{Messages: r.contact, Logger: logger}
	a.Settler = worker.NewSettler(r.giving, r.settings, gateway, a.Auth, logger, cfg.SettleBatch, cfg.SettleWorkers)
	return a, nil
}

func (a *App) Handler() http.Handler {
	return routes.SetupRoutes(routes.Handlers{
		Auth:       a.Auth,
		User:       &handlers.UserHandler{Auth: a.Auth, Logger: a.logger},
		Church:     &handlers.ChurchHandler{Churches: a.Churches, Dashboard: a.Dashboard, Logger: a.logger},
		Giving:     &handlers.GivingHandler{Giving: a.Giving, Dashboard: a.Dashboard, Logger: a.logger},
		Admin:      &handlers.AdminHandler{Admin: a.Admin, Logger: a.logger},
		PDF:        &handlers.PDFHandler{Statements: a.Statements, Logger: a.logger},
		Contact:    &handlers.ContactHandler{Contact: a.Contact, Logger: a.logger},
		CORSOrigin: a.cfg.CORSOrigin,
		Logger:     a.logger,
	})
}

func (a *App) Close() {
	for i := len(a.conns) - 1; i >= 0; i-- {
		if err := a.conns[i].Disconnect(); err != nil {
			a.logger.Warn("disconnect failed", zap.Error(err))
		}
	}
	a.conns = nil
}
