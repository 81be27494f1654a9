package main

import (
	"context"
	"flag"
	"log"
	"time"

	"acty-backend-go/internal/config"
	"acty-backend-go/internal/db"
	"acty-backend-go/internal/seed"
	"acty-backend-go/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	path := flag.String("file", "seed/sample.yaml", "seed file to apply")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	file, err := seed.LoadFile(*path)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	st, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closeStore()

	tokens := services.TokenService{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
	report, err := seed.Apply(ctx, st, tokens, file, time.Now().UTC())
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %s: %d activities, %d history rows, %d users", *path, report.Activities, report.History, report.Users)
}
