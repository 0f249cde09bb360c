// Package api exposes accounts, bank transactions, posting and the day book over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/accountcache"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/categorize"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/posting"
)

// Deps are the shared services behind every request.
type Deps struct {
	Conn      *db.Connection
	Cache     *accountcache.Cache // optional
	DaySource posting.DaySource
	Logger    *slog.Logger
}

// Handler serves the /api/v1 endpoints. Each request is scoped to the
// owner set by OwnerMiddleware.
type Handler struct {
	deps Deps
	base *db.Store
	log  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{deps: deps, base: db.NewStore(deps.Conn, ""), log: log}
}

// NewRouter builds the HTTP router.
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps)

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(OwnerMiddleware)

		r.Get("/accounts", h.ListAccounts)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/categorize", h.BulkCategorize)
			r.Post("/post", h.BulkPost)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}/category", h.SetCategory)
			r.Post("/{id}/post", h.Post)
		})

		r.Get("/journal-entries/{id}", h.GetJournalEntry)
		r.Get("/day-book", h.DayBook)
	})

	return r
}

func (h *Handler) store(r *http.Request) *db.Store {
	return h.base.ForOwner(ownerFromContext(r.Context()))
}

func (h *Handler) engine(store *db.Store) *posting.Engine {
	cfg := posting.Config{Logger: h.log, DaySource: h.deps.DaySource}
	if h.deps.Cache != nil {
		cfg.Resolver = posting.CachedResolver{Cache: h.deps.Cache.ForOwner(store.OwnerID()), Logger: h.log}
	}
	return posting.NewEngine(posting.FromStore(store), cfg)
}

func (h *Handler) categorizer(store *db.Store) *categorize.Service {
	opts := []categorize.Option{categorize.WithLogger(h.log)}
	if h.deps.Cache != nil {
		opts = append(opts, categorize.WithCache(h.deps.Cache.ForOwner(store.OwnerID())))
	}
	return categorize.NewService(store, opts...)
}
