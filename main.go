// Command iamkernel boots the identity/authorization service: configuration,
// database, OAuth2/OIDC provider, RBAC evaluator, and the HTTP router.
//
// This file is composition only; business rules live in their own packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"iamkernel/config"
	"iamkernel/credential"
	"iamkernel/handlers"
	"iamkernel/invite"
	"iamkernel/middleware"
	"iamkernel/oauth2"
	"iamkernel/principal"
	"iamkernel/rbac"
	"iamkernel/revocation"
	"iamkernel/rolegraph"
	"iamkernel/routes"
	"iamkernel/session"
	"iamkernel/store"
)

func main() {
	log.Println("Identity kernel starting...")

	loadEnvFiles()
	cfg := config.Load()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	st, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer st.Close()

	if err := runMigrations(ctx, cfg); err != nil {
		log.Printf("migration warning: %v", err)
	}

	users := store.NewUserRepository(st)
	organizations := store.NewOrganizationRepository(st)
	orgMembers := store.NewOrganizationMemberRepository(st)
	projects := store.NewProjectRepository(st)
	projectMembers := store.NewProjectMemberRepository(st)
	apiKeys := store.NewAPIKeyRepository(st)
	roles := store.NewRoleRepository(st)
	assignments := store.NewRoleAssignmentRepository(st)
	oauthClients := store.NewOAuthClientRepository(st)
	invites := store.NewInviteRepository(st)

	graph := rolegraph.New(roles)
	evaluator := rbac.New(assignments, roles, projects, graph)

	jwt := credential.NewJWTSigner(cfg.Security.JWTSecret, "", cfg.OAuth2.Issuer)

	blacklist, err := newRevocationSet(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize revocation set: %v", err)
	}

	resolver := principal.NewResolver(jwt, blacklist, users, apiKeys)

	inviteOrchestrator := invite.New(invites, assignments, roles)

	sess := session.New(cfg.Security.JWTSecret, "idsess", cfg.Security.SessionDuration, cfg.Server.Environment == "production")
	guard := session.NewLoginGuard(5, 15*time.Minute, 15*time.Minute)

	oauthProvider, err := oauth2.NewProvider(cfg, st.Pool)
	if err != nil {
		log.Fatalf("failed to construct oauth2 provider: %v", err)
	}
	oauthHandlers := oauth2.NewHandlers(oauthProvider, users, sess, cfg.Server.Environment != "production")

	authMiddleware := middleware.NewAuthMiddleware(resolver)
	permissionMiddleware := middleware.NewPermissionMiddleware(evaluator)
	manager := middleware.NewManager(cfg, authMiddleware, permissionMiddleware)

	h := handlers.New(
		cfg,
		users,
		organizations,
		orgMembers,
		projects,
		projectMembers,
		apiKeys,
		roles,
		assignments,
		oauthClients,
		evaluator,
		graph,
		jwt,
		blacklist,
		sess,
		guard,
		inviteOrchestrator,
		oauthHandlers,
		st,
	)

	router := routes.SetupRouter(&routes.Dependencies{
		Config:     cfg,
		Handlers:   h,
		Middleware: manager,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("identity kernel listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	log.Println("server gracefully stopped")
}

// newRevocationSet builds the Redis-backed revocation set when CACHE_URL is
// configured, falling back to the in-process implementation for local
// development and single-instance deployments.
func newRevocationSet(ctx context.Context, cfg *config.Config) (revocation.Set, error) {
	if cfg.Cache.URL == "" {
		return revocation.NewMemorySet(), nil
	}
	return revocation.NewRedisSet(ctx, cfg.Cache.URL, "iamkernel:revoked:")
}

// runMigrations applies every pending migration under Database.MigrationsPath.
// A relative path is resolved against this file's directory so the binary
// can be run from any working directory.
func runMigrations(ctx context.Context, cfg *config.Config) error {
	migrationsPath := cfg.Database.MigrationsPath
	if migrationsPath == "" {
		log.Printf("no migrations path configured, skipping migrations")
		return nil
	}
	if !filepath.IsAbs(migrationsPath) {
		migrationsPath = filepath.Join(getServiceDir(), migrationsPath)
	}

	migrator, err := store.NewMigrator(cfg.Database.URL, migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to construct migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// loadEnvFiles loads .env.local then .env from the directory containing this
// file, allowing local overrides: godotenv.Load never replaces a variable
// that is already set, so the OS environment wins over .env.local, and
// .env.local wins over .env.
func loadEnvFiles() {
	serviceDir := getServiceDir()
	_ = godotenv.Load(filepath.Join(serviceDir, ".env.local"))
	_ = godotenv.Load(filepath.Join(serviceDir, ".env"))
}

func getServiceDir() string {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Dir(thisFile)
}
