// Package main is the entry point for the authorization decision service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"trinogate/internal/accesscontrol"
	"trinogate/internal/api"
	"trinogate/internal/audit"
	"trinogate/internal/config"
	internaldb "trinogate/internal/db"
	"trinogate/internal/db/repository"
	"trinogate/internal/domain"
	"trinogate/internal/groups"
	"trinogate/internal/middleware"
	"trinogate/internal/policy"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	// Open the policy store with hardened connection settings.
	// writeDB: single-connection pool for serialized writes.
	// readDB:  4-connection pool for concurrent reads.
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.PolicyDBPath, 4)
	if err != nil {
		return err
	}
	defer writeDB.Close()
	defer readDB.Close()

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	policyRepo := repository.NewPolicyRepo(writeDB)
	groupRepo := repository.NewGroupRepo(writeDB)
	auditRepo := repository.NewAuditRepo(writeDB)

	ctx := context.Background()

	// Optional bundle import before the first snapshot load.
	if cfg.PolicyBundle != "" {
		if err := importBundle(ctx, cfg.PolicyBundle, policyRepo, groupRepo); err != nil {
			return err
		}
		logger.Info("policy bundle imported", "path", cfg.PolicyBundle)
	}

	store := policy.NewStore()
	if err := policyRepo.LoadInto(ctx, store); err != nil {
		return err
	}
	logger.Info("policy snapshot loaded",
		"access_policies", len(store.AccessPolicies()),
		"row_filters", len(store.RowFilterPolicies()),
		"data_masks", len(store.DataMaskPolicies()))

	var resolver domain.GroupResolver = groups.IdentityGroups{}
	if cfg.UseExternalGroups {
		resolver = groups.NewStoreResolver(repository.NewGroupRepo(readDB))
		logger.Info("group membership resolved from the policy store")
	}

	ac := accesscontrol.New(accesscontrol.Config{
		Evaluator: policy.NewEvaluator(store, logger),
		Groups:    resolver,
		Audit:     audit.NewRecorder(cfg.AppID, auditRepo, logger),
		Logger:    logger,
	})

	handler := api.NewHandler(ac, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.Auth([]byte(cfg.JWTSecret)))
		}
		r.Mount("/", handler.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("decision service listening", "addr", cfg.ListenAddr, "tls", cfg.TLSCertFile != "")
		var err error
		if cfg.TLSCertFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-stop:
			logger.Info("shutting down", "signal", sig.String())
		case <-gctx.Done():
			return gctx.Err()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// importBundle persists a YAML policy bundle into the control plane
// store. Existing policies with the same name are left untouched;
// conflicts are logged and skipped so a restart with the same bundle
// stays idempotent.
func importBundle(ctx context.Context, path string, policyRepo *repository.PolicyRepo, groupRepo *repository.GroupRepo) error {
	bundle, err := policy.LoadBundleFile(path)
	if err != nil {
		return err
	}
	for _, p := range bundle.AccessPolicyList() {
		p := p
		if err := policyRepo.SaveAccessPolicy(ctx, &p); err != nil {
			if !isConflict(err) {
				return err
			}
			slog.Debug("access policy already present", "policy", p.Name)
		}
	}
	for _, p := range bundle.RowFilterPolicyList() {
		p := p
		if err := policyRepo.SaveRowFilterPolicy(ctx, &p); err != nil {
			if !isConflict(err) {
				return err
			}
		}
	}
	for _, p := range bundle.DataMaskPolicyList() {
		p := p
		if err := policyRepo.SaveDataMaskPolicy(ctx, &p); err != nil {
			if !isConflict(err) {
				return err
			}
		}
	}
	for _, g := range bundle.Groups {
		if err := groupRepo.EnsureGroup(ctx, g.Name); err != nil {
			return err
		}
		for _, m := range g.Members {
			if err := groupRepo.AddMember(ctx, g.Name, "user", m); err != nil && !isConflict(err) {
				return err
			}
		}
	}
	return nil
}

func isConflict(err error) bool {
	var conflict *domain.ConflictError
	return errors.As(err, &conflict)
}
