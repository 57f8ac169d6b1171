package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wellness-planner/internal/config"
	"wellness-planner/internal/llm"
	"wellness-planner/internal/profile"
	"wellness-planner/internal/shared"
)

const planJSON = `{
  "breakfast": {"title": "Avena cocida", "description": "Con plátano", "recipe": ["Hervir la avena"]},
  "lunch": {"title": "Pollo al vapor", "description": "Con arroz", "recipe": ["Cocer"]},
  "dinner": {"title": "Pescado", "description": "A la plancha", "recipe": []},
  "snacks": [{"title": "Compota", "description": "Manzana"}],
  "hydration": {"title": "Agua", "recommendations": ["2 litros"]},
  "healthAdvice": {"title": "Descanso", "recommendations": ["Dormir 8 horas"]}
}`

type MockStructuredGenerator struct {
	Content string
	Err     error
}

func (m *MockStructuredGenerator) GenerateStructured(ctx context.Context, req llm.Request) (llm.ContentResponse, error) {
	usage := shared.TokenUsage{PromptTokens: 900, CompletionTokens: 300, TotalTokens: 1200, Model: "gemini-2.5-flash"}
	return llm.ContentResponse{Content: m.Content, Usage: usage}, m.Err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		GeminiAPIKey:    "test",
		GeminiModel:     config.DefaultGeminiModel,
		Temperature:     config.DefaultTemperature,
		RequestTimeout:  5 * time.Second,
		SessionCapacity: 4,
		MetricsDBPath:   filepath.Join(t.TempDir(), "data", "metrics.db"),
	}
}

func anaProfile() profile.Profile {
	return profile.Profile{Name: "Ana", Gender: profile.GenderFemale, Age: "40", Weight: "70", Height: "165"}
}

func TestGenerateMealPlan(t *testing.T) {
	a, err := newApp(testConfig(t), zerolog.Nop(), &MockStructuredGenerator{Content: planJSON})
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.Close()

	var out bytes.Buffer
	if err := a.GenerateMealPlan(context.Background(), anaProfile(), &out); err != nil {
		t.Fatalf("GenerateMealPlan failed: %v", err)
	}

	for _, want := range []string{
		"MENÚ PERSONALIZADO PARA HOY, ANA",
		"Desayuno:    Avena cocida",
		"1. Hervir la avena",
		"Colación 1:  Compota",
		"HIDRATACIÓN: Agua",
		"- Dormir 8 horas",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out.String())
		}
	}

	usage, err := a.metricsStore.GetDailyUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalPrompt != 900 {
		t.Errorf("Expected the generation to be recorded, got %+v", usage)
	}
}

func TestGenerateMealPlan_Failure(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsDBPath = ""
	a, err := newApp(cfg, zerolog.Nop(), &MockStructuredGenerator{Err: errors.New("timeout")})
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.Close()

	err = a.GenerateMealPlan(context.Background(), anaProfile(), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "Falló la generación del plan de comidas desde la IA: timeout") {
		t.Errorf("Expected generation error, got %v", err)
	}

	if _, err := a.CleanupMetrics(context.Background(), 30); err == nil {
		t.Error("Expected cleanup to fail without a metrics database")
	}
}

func TestPrintPrompt(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsDBPath = ""
	a, err := newApp(cfg, zerolog.Nop(), &MockStructuredGenerator{})
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}

	var out bytes.Buffer
	if err := a.PrintPrompt(anaProfile(), &out); err != nil {
		t.Fatalf("PrintPrompt failed: %v", err)
	}
	for _, want := range []string{"nutricionista y chef experto", "Edad: 40 años", "Peso: 70 kg", "Estatura: 165 cm"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected prompt output to contain %q", want)
		}
	}
}

func TestCleanupMetrics(t *testing.T) {
	a, err := newApp(testConfig(t), zerolog.Nop(), &MockStructuredGenerator{Content: planJSON})
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.Close()

	removed, err := a.CleanupMetrics(context.Background(), 30)
	if err != nil {
		t.Fatalf("CleanupMetrics failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected nothing to remove, got %d", removed)
	}
}

func TestNewApp_InvalidRuleset(t *testing.T) {
	cfg := testConfig(t)
	cfg.RulesetPath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := newApp(cfg, zerolog.Nop(), &MockStructuredGenerator{}); err == nil {
		t.Error("Expected an error for a missing ruleset file")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "json", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("session", "web:1").Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("Expected info to be filtered at warn level")
	}
	if !strings.Contains(buf.String(), `"session":"web:1"`) {
		t.Errorf("Expected JSON output, got %q", buf.String())
	}

	buf.Reset()
	fallbackLogger := NewLogger("bogus", "console", &buf)
	fallbackLogger.Info().Msg("fallback")
	if !strings.Contains(buf.String(), "fallback") {
		t.Error("Expected info level fallback for an unknown level")
	}
}

const rulesetYAML = `
system_instruction: Eres un chef.
food_groups:
  - name: Líquidos
    foods:
      - name: Agua
deliverables:
  - Un desayuno
`

// rejectingTelegram answers every Bot API call as an unauthorized token.
func rejectingTelegram(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/bot%s/%s"
}

func TestBotFailureStopsBeforeRulesetWatcher(t *testing.T) {
	for name, run := range map[string]func(*App, context.Context) error{
		"Serve":  (*App).Serve,
		"RunBot": (*App).RunBot,
	} {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "rules")
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatal(err)
			}
			cfg := testConfig(t)
			cfg.MetricsDBPath = ""
			cfg.RulesetPath = filepath.Join(dir, "ruleset.yaml")
			cfg.TelegramBotToken = "bad-token"
			cfg.TelegramAPIEndpoint = rejectingTelegram(t)
			if err := os.WriteFile(cfg.RulesetPath, []byte(rulesetYAML), 0644); err != nil {
				t.Fatal(err)
			}

			a, err := newApp(cfg, zerolog.Nop(), &MockStructuredGenerator{})
			if err != nil {
				t.Fatalf("newApp failed: %v", err)
			}
			defer a.Close()

			// With the directory gone a watcher would fail to start, so the
			// returned error shows which step ran first.
			if err := os.RemoveAll(dir); err != nil {
				t.Fatal(err)
			}

			err = run(a, context.Background())
			if err == nil || !strings.Contains(err.Error(), "Telegram") {
				t.Errorf("Expected the bot error before any watcher was created, got %v", err)
			}
		})
	}
}
