package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter builds the HTTP routing table over the given handler.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/customers", h.RegisterCustomer)
		r.Post("/login", h.Login)

		r.Post("/accounts", h.OpenAccount)
		r.Get("/accounts/{number}", h.GetAccount)
		r.Post("/accounts/{number}/approve", h.ApproveAccount)
		r.Get("/accounts/{number}/history", h.History)
		r.Get("/customers/{id}/accounts", h.ListAccounts)

		r.Post("/transfers", h.Transfer)
		r.Post("/loans/{number}/payments", h.PayLoan)
		r.Post("/deposits", h.Deposit)
	})

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
