package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/internal/domain/reconcile"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/external/openai"
)

func main() {
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	model := flag.String("model", "gpt-4o-mini", "Chat model")
	promptsPath := flag.String("prompts", "", "Optional prompts YAML overriding the built-in prompts")
	timeout := flag.Duration("timeout", 60*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: extract-trip --key sk-... \"Client summit in Berlin next week\"\n")
		os.Exit(1)
	}

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		fmt.Fprintf(os.Stderr, "ERROR: no trip description given\n")
		os.Exit(1)
	}

	prompts, err := openai.LoadPrompts(*promptsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prompts: %v\n", err)
		os.Exit(1)
	}

	extractor := openai.NewExtractor(openai.Config{
		APIKey:  *apiKey,
		Model:   *model,
		Timeout: *timeout,
	}, prompts, logger)

	fmt.Printf("Sending request to %s...\n", *model)
	start := time.Now()
	patch, err := extractor.ExtractTrip(context.Background(), text, time.Now())
	duration := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: extraction failed after %v: %v\n", duration, err)
		os.Exit(1)
	}
	fmt.Printf("Response time: %v\n\n", duration)

	if patch == nil {
		fmt.Println("The model returned nothing usable.")
		return
	}

	// Show what a fresh draft would look like after the merge
	merged := reconcile.Trip(entity.NewTripRecord(), *patch)
	out, _ := json.MarshalIndent(merged, "", "  ")
	fmt.Println(string(out))
}
