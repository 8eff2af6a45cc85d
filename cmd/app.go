// Package cmd implements the CLI application to manage a personal finance tracker.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	tracker "github.com/mohamedar97/finance-tracker"
	"github.com/mohamedar97/finance-tracker/kafka"
	"github.com/mohamedar97/finance-tracker/postgres"
)

// Commands lists every subcommand a main package should register.
var Commands = []subcommands.Command{
	&accountsCmd{},
	&accountCmd{},
	&txCmd{},
	&transactionsCmd{},
	&transferCmd{},
	&snapshotCmd{},
	&historyCmd{},
	&seriesCmd{},
	&dashboardCmd{},
	&ratesCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeFile = flag.String("store-file", "tracker.jsonl", "Path to the tracker data file (JSONL format)")
var databaseURL = flag.String("database-url", "", "PostgreSQL connection string. Overrides -store-file. Defaults to $DATABASE_URL")
var kafkaBrokers = flag.String("kafka-brokers", "", "Comma separated Kafka brokers to publish events to. Defaults to $KAFKA_BROKERS")
var userID = flag.String("user", "", "User the command acts for. Defaults to $FTRACK_USER")

func init() {
	// missing .env is fine, the environment may already be set
	godotenv.Load()
}

// User returns the acting user, from the flag or the environment.
func User() string {
	if *userID != "" {
		return *userID
	}
	return os.Getenv("FTRACK_USER")
}

// OpenStore opens the configured backend: PostgreSQL when a connection
// string is set, the local JSONL file otherwise.
func OpenStore(ctx context.Context) (tracker.Store, error) {
	dsn := *databaseURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn != "" {
		return postgres.Open(ctx, dsn)
	}
	return tracker.OpenFileStore(*storeFile)
}

// NewService assembles the service from the configured store, rate fetcher
// and event publisher.
func NewService(ctx context.Context) (*tracker.Service, error) {
	store, err := OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot open store: %w", err)
	}

	var fetcher tracker.RateFetcher
	gemini, err := tracker.NewGeminiFetcher(ctx)
	if err != nil {
		log.Printf("warning: rate fetching disabled: %v", err)
	} else {
		fetcher = gemini
	}
	rates := tracker.NewRateSource(store, fetcher)

	var pub tracker.Publisher
	brokers := *kafkaBrokers
	if brokers == "" {
		brokers = os.Getenv("KAFKA_BROKERS")
	}
	if brokers != "" {
		pub = kafka.NewPublisher(splitList(brokers), "")
	}

	return tracker.NewService(store, rates, pub), nil
}

// Render prints a markdown document to stdout, styled for the terminal when
// possible.
func Render(markdown string) {
	out, err := glamour.Render(markdown, "auto")
	if err != nil {
		fmt.Println(markdown)
		return
	}
	fmt.Print(out)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
