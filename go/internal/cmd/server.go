package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/rs/cors"
)

func setupServer(services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// JSON API plus health check
	services.API.RegisterRoutes(mux)

	// Prometheus scrape endpoint
	mux.Handle("/metrics", services.Metrics.Handler())

	// WebSocket feed
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := services.Hub.ServeWS(w, r); err != nil {
			log.Printf("Failed to serve websocket: %v", err)
		}
	})

	// Wrap with CORS
	handler := c.Handler(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", getEnv("PORT", "8080")),
		Handler: handler,
	}
}
