// Package main seeds the configured store with a small catalogue of books.
//
// It reads the same flags, environment and .env file as the server:
//
//	go run ./cmd/seed
//	go run ./cmd/seed -store-driver badger -data-path /tmp/library
package main

import (
	"context"
	"os"
	"time"

	"github.com/librarykit/loan-server/internal/config"
	"github.com/librarykit/loan-server/internal/di/providers"
	"github.com/librarykit/loan-server/internal/logger"
	"github.com/librarykit/loan-server/internal/service"
	"github.com/librarykit/loan-server/internal/validation"
)

var sampleBooks = []service.CreateBookRequest{
	{Title: "The Hobbit", Author: "J.R.R. Tolkien"},
	{Title: "Dune", Author: "Frank Herbert"},
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin"},
	{Title: "Neuromancer", Author: "William Gibson"},
	{Title: "Kindred", Author: "Octavia E. Butler"},
	{Title: "Foundation", Author: "Isaac Asimov"},
	{Title: "Pride and Prejudice", Author: "Jane Austen"},
	{Title: "One Hundred Years of Solitude", Author: "Gabriel García Márquez"},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.New(logger.Config{}).Fatal("Failed to load config", logger.Err(err))
	}

	log := providers.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := providers.OpenStore(ctx, cfg, log.Logger)
	if err != nil {
		log.Fatal("Failed to open store", logger.Err(err))
	}

	books := service.NewBookService(st, validation.New(), log.Logger)

	existing, err := books.ListBooks(ctx)
	if err != nil {
		st.Close()
		log.Fatal("Failed to list books", logger.Err(err))
	}
	titles := make(map[string]bool, len(existing))
	for _, b := range existing {
		titles[b.Title] = true
	}

	created := 0
	for _, req := range sampleBooks {
		if titles[req.Title] {
			continue
		}
		if _, err := books.CreateBook(ctx, req); err != nil {
			log.Error("Failed to seed book", "title", req.Title, logger.Err(err))
			continue
		}
		created++
	}

	log.Info("Seeding complete", "created", created, "skipped", len(sampleBooks)-created)

	if err := st.Close(); err != nil {
		log.Error("Failed to close store", logger.Err(err))
		os.Exit(1)
	}
}
