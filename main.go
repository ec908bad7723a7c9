package main

import (
	"fmt"
	"os"
	"time"

	"github.com/andesco/rephrase/handlers"
	"github.com/andesco/rephrase/pkg/rephraselib"

	"github.com/akamensky/argparse"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

var version = "1.0.0"

func main() {
	parser := argparse.NewParser("rephrase", "HTTP proxy that rewrites terms in the pages it fetches")
	port := parser.String("p", "port", &argparse.Options{
		Required: false,
		Default:  getenv("PORT", "8080"),
		Help:     "Port the server listens on",
	})
	rulesetPath := parser.String("r", "ruleset", &argparse.Options{
		Required: false,
		Default:  os.Getenv("RULESET"),
		Help:     "File or directory of YAML rewrite rules (semicolon-separated)",
	})
	verbose := parser.Flag("v", "verbose", &argparse.Options{
		Required: false,
		Help:     "Enable debug logging",
	})
	printVersion := parser.Flag("", "version", &argparse.Options{
		Required: false,
		Help:     "Print version and exit",
	})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	if *printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	log := newLogger(*verbose)

	rephraser, err := rephraselib.NewRephraser(*rulesetPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rephraser")
	}

	app := fiber.New(fiber.Config{
		AppName: "rephrase " + version,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/fetch", handlers.Fetch(rephraser, log))
	app.Get("/proxy/*", handlers.Proxy(rephraser, log))
	app.Get("/raw/*", handlers.Raw(rephraser, log))
	app.Get("/api/*", handlers.API(rephraser, version, log))
	app.Get("/ruleset", handlers.Ruleset(rephraser))

	log.Info().Str("port", *port).Str("version", version).Msg("starting server")
	if err := app.Listen(":" + *port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if parsed, err := zerolog.ParseLevel(levelStr); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
