package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	webAdapter "fulfillment-console/internal/adapters/web"
	"fulfillment-console/internal/app"
	"fulfillment-console/internal/backend"
	"fulfillment-console/internal/core"

	"github.com/joho/godotenv"
)

const defaultPageSize = 25

func main() {
	_ = godotenv.Load()

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		log.Fatal("BACKEND_URL environment variable not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	sessionUser := os.Getenv("SESSION_USER")
	if sessionUser == "" {
		log.Println("Warning: SESSION_USER is not set; the only-mine filter matches nothing")
	}

	pageSize := defaultPageSize
	if raw := os.Getenv("PAGE_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			log.Fatalf("invalid PAGE_SIZE %q", raw)
		}
		pageSize = n
	}

	client := backend.NewClient(backendURL, os.Getenv("BACKEND_TOKEN"))
	svc := app.NewService(client, sessionUser, pageSize)

	// Warm the session with the early pipeline so the first request does
	// not pay for the initial fetch. Startup survives a cold backend; the
	// operator's first stage switch retries.
	if err := svc.SetStage(context.Background(), core.StatusPending); err != nil {
		log.Printf("Warning: initial catalog load failed: %v", err)
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	handler := webAdapter.NewHandler(svc, os.Getenv("ALLOWED_ORIGINS"), jwtSecret)

	log.Printf("fulfillment console starting on :%s (backend %s)", port, backendURL)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
