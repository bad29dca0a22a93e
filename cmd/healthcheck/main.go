// healthcheck consulta GET /health del servicio local. Sale 0 si responde
// "healthy", 1 en cualquier otro caso. Pensado para HEALTHCHECK de contenedor,
// donde no hay curl.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"pet-service/internal/platform/httpclient"
	"pet-service/internal/platform/logger"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	target := flag.String("url", "http://127.0.0.1:"+port, "base url of the pet service")
	timeout := flag.Duration("timeout", 3*time.Second, "request timeout")
	flag.Parse()

	log := logger.NewFromEnv()

	c, err := httpclient.New(*target, *timeout)
	if err != nil {
		log.Error("healthcheck misconfigured", map[string]any{"error": err})
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	h, err := c.Health(ctx)
	if err != nil {
		log.Error("healthcheck failed", map[string]any{"url": *target, "error": err})
		os.Exit(1)
	}
	log.Debug("healthcheck ok", map[string]any{"service": h.Service})
}
