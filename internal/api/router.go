// Package api assembles the HTTP routes and middleware of the advisor API.
package api

import (
	"net/http"
	"strings"

	"github.com/dvloznov/finance-advisor/internal/api/handlers"
	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/rs/zerolog"
)

// Deps are the services the routes are served from.
type Deps struct {
	Transactions handlers.TransactionStore
	Insights     handlers.InsightStore
	Reference    handlers.ReferenceStore
	Categorizer  handlers.Categorizer
	Advisor      handlers.TransactionAdvisor
	Runner       handlers.AdviceRunner
	CORSOrigins  []string
	Log          zerolog.Logger
}

// NewRouter returns the API handler with middleware applied.
func NewRouter(d Deps) http.Handler {
	transactionsHandler := handlers.NewTransactionsHandler(d.Transactions, d.Log)
	categorizeHandler := handlers.NewCategorizeHandler(d.Transactions, d.Categorizer, d.Advisor, d.Log)
	adviceHandler := handlers.NewAdviceHandler(d.Runner, d.Insights, d.Log)
	seedHandler := handlers.NewSeedHandler(d.Reference, d.Log)

	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		handlers.Health(w, r)
	})
	mux.HandleFunc("/health", handlers.Health)

	// Transactions endpoints
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/transactions/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/transactions/")
		idPart, ok := strings.CutSuffix(rest, "/enriched")
		if !ok {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		id, ok := handlers.ParseID(idPart)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid transaction ID")
			return
		}
		transactionsHandler.GetEnrichment(w, r, id)
	})

	// Categorization and single-transaction advice
	mux.HandleFunc("/categorize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			categorizeHandler.Categorize(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/advisor/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		id, ok := handlers.ParseID(strings.TrimPrefix(r.URL.Path, "/advisor/"))
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid transaction ID")
			return
		}
		categorizeHandler.Advise(w, r, id)
	})

	// Advice endpoints
	mux.HandleFunc("/advice/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			adviceHandler.Run(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/advice/latest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			adviceHandler.Latest(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/advice/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		id, ok := handlers.ParseID(strings.TrimPrefix(r.URL.Path, "/advice/"))
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid advice ID")
			return
		}
		adviceHandler.Delete(w, r, id)
	})

	// Reference data
	mux.HandleFunc("/seed/benchmarks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			seedHandler.SeedBenchmarks(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/seed/homebrew", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			seedHandler.SeedHomebrew(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	return middleware.Chain(mux,
		middleware.Recovery(d.Log),
		middleware.RequestID,
		middleware.Logger(d.Log),
		middleware.CORS(d.CORSOrigins),
	)
}
