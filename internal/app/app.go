package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wellness-planner/internal/config"
	"wellness-planner/internal/database"
	"wellness-planner/internal/llm"
	"wellness-planner/internal/mealplan"
	"wellness-planner/internal/metrics"
	"wellness-planner/internal/planner"
	"wellness-planner/internal/profile"
	"wellness-planner/internal/ruleset"
	"wellness-planner/internal/session"
	"wellness-planner/internal/web"
)

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	closer       llm.Closer
	rules        *ruleset.Store
	mealPlanner  *planner.Planner
	db           *database.DB
	metricsStore *metrics.Store
	recorder     metrics.Recorder
	hub          *web.Hub
	registry     *session.Registry
}

// New connects to Gemini and opens the optional metrics database.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	a, err := newApp(cfg, logger, geminiClient)
	if err != nil {
		geminiClient.Close()
		return nil, err
	}
	a.closer = geminiClient
	return a, nil
}

func newApp(cfg *config.Config, logger zerolog.Logger, gen llm.StructuredGenerator) (*App, error) {
	rules, err := ruleset.Open(cfg.RulesetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ruleset: %w", err)
	}

	a := &App{
		cfg:         cfg,
		log:         logger,
		rules:       rules,
		mealPlanner: planner.NewPlanner(gen, rules, cfg.Temperature),
		recorder:    metrics.NopRecorder{},
		hub:         web.NewHub(logger.With().Str("component", "websocket").Logger()),
	}

	if cfg.MetricsDBPath != "" {
		db, err := database.Open(cfg.MetricsDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics database: %w", err)
		}
		logger.Debug().Uint("schema_version", db.SchemaVersion).Msg("Metrics database ready")
		a.db = db
		a.metricsStore = metrics.NewStore(db.SQL)
		a.recorder = a.metricsStore
	}

	a.registry, err = session.NewRegistry(cfg.SessionCapacity, a.newOrchestrator)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Close releases the model client and the metrics database.
func (a *App) Close() error {
	var errs []error
	if a.closer != nil {
		errs = append(errs, a.closer.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) newOrchestrator(key string) *session.Orchestrator {
	return session.New(a.mealPlanner,
		session.WithTimeout(a.cfg.RequestTimeout),
		session.WithRecorder(a.recorder),
		session.WithLogger(a.log.With().Str("session", key).Logger()),
		session.WithListener(func(session.Snapshot) { a.hub.Notify(key) }),
	)
}

// usageReporter returns nil when metrics are disabled.
func (a *App) usageReporter() web.UsageReporter {
	if a.metricsStore == nil {
		return nil
	}
	return a.metricsStore
}

func (a *App) dataDir() string {
	if a.cfg.MetricsDBPath == "" {
		return ""
	}
	return filepath.Dir(a.cfg.MetricsDBPath)
}

// GenerateMealPlan creates a meal plan for prof and prints it.
func (a *App) GenerateMealPlan(ctx context.Context, prof profile.Profile, w io.Writer) error {
	fmt.Fprintf(w, "Generando plan de comidas para %s...\n", strings.TrimSpace(prof.Name))

	o := a.newOrchestrator("cli")
	done, err := o.Submit(ctx, prof)
	if err != nil {
		return fmt.Errorf("failed to start generation: %w", err)
	}

	var snap session.Snapshot
	select {
	case snap = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if msg := snap.ErrorMessage(); msg != "" {
		return errors.New(msg)
	}
	printPlan(w, snap.Profile.Name, snap.Plan())
	return nil
}

// PrintPrompt writes the prompt that would be sent for prof.
func (a *App) PrintPrompt(prof profile.Profile, w io.Writer) error {
	prompt, err := a.mealPlanner.BuildPrompt(prof)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "=== SYSTEM INSTRUCTION ===")
	fmt.Fprintln(w, a.rules.Current().SystemInstruction)
	fmt.Fprintln(w, "\n=== PROMPT ===")
	fmt.Fprint(w, prompt)
	return nil
}

// IssueAdminToken signs a bearer token for the admin endpoints.
func (a *App) IssueAdminToken(ttl time.Duration) (string, error) {
	return web.IssueAdminToken(a.cfg.AdminSecret, ttl)
}

// CleanupMetrics removes usage records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if a.metricsStore == nil {
		return 0, errors.New("METRICS_DB_PATH environment variable not set")
	}
	return a.metricsStore.Cleanup(ctx, days)
}

func printPlan(w io.Writer, name string, plan *mealplan.Plan) {
	fmt.Fprintf(w, "\n=== MENÚ PERSONALIZADO PARA HOY, %s ===\n", strings.ToUpper(name))
	for _, lc := range plan.Courses() {
		fmt.Fprintf(w, "\n%-12s %s\n", lc.Label+":", lc.Course.CourseTitle())
		fmt.Fprintf(w, "             %s\n", lc.Course.CourseDescription())
		if meal, ok := lc.Course.(mealplan.Meal); ok {
			for i, step := range meal.Recipe {
				fmt.Fprintf(w, "             %d. %s\n", i+1, step)
			}
		}
	}

	fmt.Fprintf(w, "\n=== HIDRATACIÓN: %s ===\n", plan.Hydration.Title)
	for _, rec := range plan.Hydration.Recommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}

	fmt.Fprintf(w, "\n=== CONSEJOS DE BIENESTAR: %s ===\n", plan.HealthAdvice.Title)
	for _, rec := range plan.HealthAdvice.Recommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}
}
