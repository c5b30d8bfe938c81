package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors lets browser clients served from anywhere play and read the
// leaderboard. Credentials are allowed for the basic-auth protected clear.
func Cors() Middleware {
	options := cors.Options{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}
	return cors.New(options).Handler
}
