package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"wellness-planner/internal/app"
	"wellness-planner/internal/config"
	"wellness-planner/internal/profile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := app.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if cfg.SessionSecretGenerated {
		logger.Warn().Msg("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	command := "serve"
	args := []string{}
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	switch command {
	case "serve":
		if err := application.Serve(ctx); err != nil {
			logger.Error().Err(err).Msg("Server stopped with error")
			application.Close()
			os.Exit(1)
		}
		logger.Info().Msg("Server exiting")
	case "generate":
		prof := parseProfileFlags("generate", args)
		if err := application.GenerateMealPlan(ctx, prof, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			application.Close()
			os.Exit(1)
		}
	case "prompt":
		prof := parseProfileFlags("prompt", args)
		if err := application.PrintPrompt(prof, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			application.Close()
			os.Exit(1)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(args)

		affected, err := application.CleanupMetrics(ctx, *days)
		if err != nil {
			logger.Error().Err(err).Msg("Cleanup failed")
			application.Close()
			os.Exit(1)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	case "admin-token":
		tokenCmd := flag.NewFlagSet("admin-token", flag.ExitOnError)
		ttl := tokenCmd.Duration("ttl", 24*time.Hour, "Token lifetime")
		tokenCmd.Parse(args)

		token, err := application.IssueAdminToken(*ttl)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to issue admin token")
			application.Close()
			os.Exit(1)
		}
		fmt.Println(token)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		application.Close()
		os.Exit(1)
	}
}

func parseProfileFlags(name string, args []string) profile.Profile {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	userName := fs.String("name", "", "Nombre")
	gender := fs.String("gender", "", "Sexo (Masculino o Femenino)")
	age := fs.String("age", "", "Edad en años")
	weight := fs.String("weight", "", "Peso en kg")
	height := fs.String("height", "", "Estatura en cm")
	fs.Parse(args)

	prof := profile.Profile{
		Name:   *userName,
		Gender: profile.Gender(*gender),
		Age:    *age,
		Weight: *weight,
		Height: *height,
	}
	if err := prof.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	}
	return prof
}

func printUsage() {
	fmt.Println("Usage: wellness-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Run the web server (default)")
	fmt.Println("  generate           Generate one plan: -name -gender -age -weight -height")
	fmt.Println("  prompt             Print the prompt for a profile without calling the model")
	fmt.Println("  metrics-cleanup    Remove old metric records")
	fmt.Println("  admin-token        Print a bearer token for /admin routes (-ttl)")
}
