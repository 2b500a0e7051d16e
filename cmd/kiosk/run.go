package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/koscakluka/ema-kiosk/cmd/kiosk/tui"
	kiosk "github.com/koscakluka/ema-kiosk/core"
	"github.com/koscakluka/ema-kiosk/internal/config"
)

func runKiosk(ctx context.Context, flags runFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(flags.configPath, flags.overrides()...)
	if err != nil {
		return err
	}

	shutdownLogging, err := setupLogging(flags.logFile)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownLogging(shutdownCtx)
	}()

	shutdownTracing, err := setupTracing(flags.traceFile)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	pump := newEventPump()

	opts := []kiosk.ClientOption{
		kiosk.WithStore(cfg.Server.StoreID, cfg.Server.MenuVersion),
		kiosk.WithReconnectDelay(cfg.Server.ReconnectDelay.Std()),
		kiosk.WithReturnToIdleAfter(cfg.Flow.ReturnToIdleAfter.Std()),
		kiosk.WithEventHandler(pump.push),
	}
	if cfg.Voice.Enabled {
		voiceOption, closeAudio, err := buildVoice(cfg.Voice)
		if err != nil {
			return fmt.Errorf("failed to set up voice, try --no-voice: %w", err)
		}
		defer closeAudio()
		opts = append(opts, voiceOption)
	}
	client := kiosk.NewClient(cfg.Server.URL, opts...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	program := tea.NewProgram(tui.NewModel(ctx, client, cfg.Voice.Enabled), tea.WithAltScreen(), tea.WithContext(ctx))
	go pump.run(program.Send)

	slog.Info("kiosk starting", "url", cfg.Server.URL, "store", cfg.Server.StoreID, "voice", cfg.Voice.Enabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		_, err := program.Run()
		if err != nil && gctx.Err() == nil {
			return fmt.Errorf("terminal ui failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// a failed first dial keeps retrying in the background
		if err := client.Connect(gctx); err != nil {
			slog.Warn("initial connect failed", "error", err)
		}
		return nil
	})

	err = g.Wait()
	if disconnectErr := client.Disconnect(); disconnectErr != nil {
		slog.Warn("failed to disconnect", "error", disconnectErr)
	}
	pump.close()
	<-pump.done
	slog.Info("kiosk stopped")
	return err
}

func (f runFlags) overrides() []config.Override {
	overrides := []config.Override{config.WithServerURL(f.url)}
	if f.noVoice {
		overrides = append(overrides, config.WithoutVoice())
	}
	return overrides
}
