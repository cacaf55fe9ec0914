// internal/platform/di/container.go
package di

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"shopez/internal/adapters/in/http/handler"
	"shopez/internal/adapters/in/http/middleware"
	fsadapters "shopez/internal/adapters/out/firestore"
	"shopez/internal/adapters/out/localcache"
	"shopez/internal/adapters/out/mail"
	"shopez/internal/application/query"
	usecase "shopez/internal/application/usecase"
	"shopez/internal/infra/catalog"
	appcfg "shopez/internal/infra/config"
	firebaseinfra "shopez/internal/infra/firebase"
	firestoreinfra "shopez/internal/infra/firestore"
	"shopez/internal/infra/localdb"
	"shopez/internal/infra/secrets"
)

// Container owns the storefront runtime.
//
// Firestore and the local cache are strict (startup fails without them).
// Firebase Auth, Secret Manager and mail are best-effort: they log a warning
// and leave their feature degraded or disabled.
type Container struct {
	Config *appcfg.Config

	// Clients (owned; Close-managed)
	Firestore *firestoreinfra.ClientWrapper
	CacheDB   *sql.DB
	Secrets   *secrets.Provider

	FirebaseAuth *middleware.FirebaseAuthClient

	// Services
	Engines  *usecase.CartSyncPool
	Register *usecase.RegisterUsecase
	Catalog  *query.CatalogQuery

	Router http.Handler
}

func New(ctx context.Context) (*Container, error) {
	cfg := appcfg.Load()

	projectID := strings.TrimSpace(cfg.FirestoreProjectID)
	if projectID == "" {
		return nil, errors.New("di: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	}

	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds)
	}

	c := &Container{Config: cfg}

	// 1) Strict: Firestore (the authoritative cart store). NewClient succeeds
	// without credentials being usable, so ping before serving.
	fsw, err := firestoreinfra.NewClient(ctx, projectID, credFile)
	if err != nil {
		return nil, err
	}
	c.Firestore = fsw
	if err := fsw.Ping(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// 2) Strict: local cart cache
	cacheDB, err := localdb.Open(cfg.CartCachePath)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.CacheDB = cacheDB
	log.Printf("[di] cart cache ready path=%s", cfg.CartCachePath)

	// 3) Best-effort: Firebase Auth (cart endpoints 503 without it)
	if auth, err := firebaseinfra.NewAuthClient(ctx, cfg.FirebaseProjectID, credFile); err != nil {
		log.Printf("[di] WARN: firebase auth unavailable: %v", err)
	} else {
		c.FirebaseAuth = auth
	}

	// 4) Best-effort: Secret Manager, only needed to resolve the mail key
	if strings.TrimSpace(cfg.SendGridAPIKeySecret) != "" {
		if sp, err := secrets.NewProvider(ctx, projectID); err != nil {
			log.Printf("[di] WARN: secret manager unavailable: %v", err)
		} else {
			c.Secrets = sp
		}
	}

	// 5) Optional: welcome mail
	var mailer usecase.Mailer
	if apiKey := c.resolveMailKey(ctx); apiKey != "" && strings.TrimSpace(cfg.MailFrom) != "" {
		mailer = mail.NewSendGridClient(apiKey)
		log.Printf("[di] welcome mail enabled from=%s", cfg.MailFrom)
	} else {
		log.Printf("[di] welcome mail disabled (no api key or MAIL_FROM)")
	}

	// Adapters
	remote := fsadapters.NewCartRemoteFS(fsw.Client)
	local := localcache.NewStoreSQLite(cacheDB)
	profiles := fsadapters.NewProfileRepositoryFS(fsw.Client)

	// Usecases / queries
	c.Engines = usecase.NewCartSyncPool(remote, local)
	c.Register = usecase.NewRegisterUsecase(remote, profiles, mailer, cfg.MailFrom)
	c.Catalog = query.NewCatalogQuery(catalog.NewClient(cfg.CatalogBaseURL))

	c.Router = c.buildRouter()
	return c, nil
}

// resolveMailKey prefers the env key and falls back to Secret Manager.
func (c *Container) resolveMailKey(ctx context.Context) string {
	if key := strings.TrimSpace(c.Config.SendGridAPIKey); key != "" {
		return key
	}
	secretName := strings.TrimSpace(c.Config.SendGridAPIKeySecret)
	if secretName == "" || c.Secrets == nil {
		return ""
	}
	key, err := c.Secrets.Resolve(ctx, secretName)
	if err != nil {
		log.Printf("[di] WARN: mail key resolution failed: %v", err)
		return ""
	}
	return key
}

// cartEngines adapts the pool to the handler's provider port.
type cartEngines struct {
	pool *usecase.CartSyncPool
}

func (p cartEngines) Engine(userID string) handler.CartEngine {
	return p.pool.Engine(userID)
}

func (c *Container) buildRouter() http.Handler {
	auth := &middleware.Auth{FirebaseAuth: c.FirebaseAuth}

	cartHandler := auth.Handler(handler.NewCartHandler(cartEngines{pool: c.Engines}))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/cart", cartHandler)
	mux.Handle("/cart/items", cartHandler)
	mux.Handle("/products", handler.NewCatalogHandler(c.Catalog))
	mux.Handle("/products/categories", handler.NewCatalogHandler(c.Catalog))
	mux.Handle("/register", handler.NewRegisterHandler(c.Register))

	// chain order matters: CORS outermost so even panics get headers
	return middleware.CORS(middleware.Recover(middleware.RequestID(mux)))
}

// Close releases owned clients. Engines are deactivated first so no snapshot
// delivery races the client teardown.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	if c.Engines != nil {
		c.Engines.DeactivateAll()
	}

	var firstErr error
	if c.Secrets != nil {
		if err := c.Secrets.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.CacheDB != nil {
		if err := c.CacheDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
