package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "ticketchain/docs"
	ldg "ticketchain/internal/adapters/stores/ledger"
	mem "ticketchain/internal/adapters/stores/memory"
	objst "ticketchain/internal/adapters/stores/objectstore"
	pg "ticketchain/internal/adapters/stores/postgres"
	"ticketchain/internal/domain/events"
	"ticketchain/internal/middleware"
	"ticketchain/internal/platform/logger"
	"ticketchain/internal/ports/auth"
)

type Options struct {
	AuthVerifier auth.WalletVerifier // puede ser nil (modo dev)

	// Stores explícitos (tests / wiring custom). Nil => se resuelven por env
	// con in-memory como fallback dev.
	Stores *events.Stores

	// Opcional: conexión a Postgres ya abierta.
	DB *sql.DB

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	stores := resolveStores(opts, log)
	orch := events.NewOrchestrator(stores, log)

	events.RegisterRoutes(r, orch)

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}

// resolveStores arma los tres adapters. Cada uno cae a in-memory si su
// backend real no está configurado, para que el servicio levante igual en
// dev/handoff.
func resolveStores(opts Options, log logger.Logger) events.Stores {
	if opts.Stores != nil {
		return *opts.Stores
	}

	stores := events.Stores{
		Ledger:      mem.NewLedger(),
		Database:    mem.NewDatabase(),
		ObjectStore: mem.NewObjectStore(),
	}

	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err != nil {
				log.Warn("postgres unavailable, falling back to memory", map[string]any{"error": err.Error()})
			} else {
				db = opened
			}
		}
	}
	if db != nil {
		stores.Database = pg.NewAdapter(db)
	}

	if base := os.Getenv("LEDGER_GATEWAY_URL"); base != "" {
		client, err := ldg.NewClient(ldg.Config{
			BaseURL: base,
			APIKey:  os.Getenv("LEDGER_GATEWAY_API_KEY"),
		})
		if err != nil {
			log.Warn("ledger gateway misconfigured, falling back to memory", map[string]any{"error": err.Error()})
		} else {
			stores.Ledger = ldg.NewAdapter(client)
		}
	}

	if bucket := os.Getenv("OBJECTSTORE_BUCKET"); bucket != "" {
		a, err := objst.New(context.Background(), objst.Config{
			Endpoint:      os.Getenv("OBJECTSTORE_ENDPOINT"),
			Region:        os.Getenv("OBJECTSTORE_REGION"),
			Bucket:        bucket,
			AccessKey:     os.Getenv("OBJECTSTORE_ACCESS_KEY"),
			SecretKey:     os.Getenv("OBJECTSTORE_SECRET_KEY"),
			PublicBaseURL: os.Getenv("OBJECTSTORE_PUBLIC_URL"),
		})
		if err != nil {
			log.Warn("object store misconfigured, falling back to memory", map[string]any{"error": err.Error()})
		} else {
			stores.ObjectStore = a
		}
	}

	return stores
}
