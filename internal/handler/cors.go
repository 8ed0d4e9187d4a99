package handler

import (
	"net/http"

	"github.com/go-chi/cors"
)

var corsContract = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization",
	"Access-Control-Max-Age":       "86400",
}

// corsNegotiation handles origin matching and Vary for browser requests.
// Preflights are passed on so that corsHeaders can finish them with the
// same headers and status as any other OPTIONS.
func corsNegotiation() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials:   false,
		MaxAge:             86400,
		OptionsPassthrough: true,
	})
}

// setCORSHeaders writes the contract headers, replacing the narrower values
// the negotiation echoes back for a browser preflight.
func setCORSHeaders(h http.Header) {
	for key, value := range corsContract {
		h.Set(key, value)
	}
}

// corsHeaders puts the CORS contract on every response and ends every
// OPTIONS request with an empty 200.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w.Header())
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// preflight handles OPTIONS for handlers mounted without the router.
func preflight(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodOptions {
		return false
	}
	setCORSHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
	return true
}
