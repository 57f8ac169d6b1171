package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"wellness-planner/internal/ruleset"
	"wellness-planner/internal/telegram"
	"wellness-planner/internal/web"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the web server, the Telegram bot when configured and the
// ruleset watcher until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	srv := a.newWebServer()

	var bot *telegram.Bot
	if a.cfg.TelegramBotToken != "" {
		var err error
		bot, err = a.newBot()
		if err != nil {
			return err
		}
		if bot.WebhookEnabled() {
			srv.Mount(telegram.WebhookPath, bot.WebhookHandler())
		}
	}

	// Created last: nothing below can fail before Run takes ownership.
	watcher, err := a.newWatcher()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	g.Go(func() error {
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if bot != nil {
		g.Go(func() error { return bot.Run(gctx) })
	}
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	return g.Wait()
}

// RunBot runs only the Telegram bot. In webhook mode a minimal HTTP server
// receives the updates.
func (a *App) RunBot(ctx context.Context) error {
	if a.cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	bot, err := a.newBot()
	if err != nil {
		return err
	}
	watcher, err := a.newWatcher()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(gctx) })

	if bot.WebhookEnabled() {
		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Recover())
		e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "OK") })
		e.POST(telegram.WebhookPath, echo.WrapHandler(bot.WebhookHandler()))

		addr := fmt.Sprintf(":%d", a.cfg.Port)
		g.Go(func() error {
			a.log.Info().Str("addr", addr).Msg("Telegram Bot Server listening")
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("webhook server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		})
	}

	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	return g.Wait()
}

func (a *App) newWebServer() *web.Server {
	return web.NewServer(web.Options{
		Registry:      a.registry,
		Hub:           a.hub,
		SessionSecret: a.cfg.SessionSecret,
		SecureCookies: a.cfg.SecureCookies,
		Usage:         a.usageReporter(),
		AdminSecret:   a.cfg.AdminSecret,
		DataDir:       a.dataDir(),
		Logger:        a.log.With().Str("component", "web").Logger(),
	})
}

// newBot creates the bot and routes usage records through its admin alerts.
// It must run before any session is created.
func (a *App) newBot() (*telegram.Bot, error) {
	var usage telegram.UsageReporter
	if a.metricsStore != nil {
		usage = a.metricsStore
	}

	bot, err := telegram.NewBot(a.cfg, a.registry, usage, a.dataDir(), a.log.With().Str("component", "telegram").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram Bot: %w", err)
	}
	a.recorder = bot.AlertingRecorder(a.recorder)
	return bot, nil
}

// newWatcher returns nil when the embedded ruleset is in use.
func (a *App) newWatcher() (*ruleset.Watcher, error) {
	if a.cfg.RulesetPath == "" {
		return nil, nil
	}
	w, err := ruleset.NewWatcher(a.cfg.RulesetPath, a.rules, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to watch ruleset: %w", err)
	}
	return w, nil
}
