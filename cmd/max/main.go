package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/max/internal/dispatch"
	"github.com/rahul/max/internal/exec"
	"github.com/rahul/max/internal/gateway"
	"github.com/rahul/max/internal/observability"
	"github.com/rahul/max/internal/pipeline"
	"github.com/rahul/max/internal/plan"
	"github.com/rahul/max/internal/provider"
	"github.com/rahul/max/internal/rules"
	"github.com/rahul/max/internal/safety"
	"github.com/rahul/max/internal/store"
	"github.com/rahul/max/internal/validate"
	"github.com/rahul/max/pkg/config"
)

func main() {
	observability.PrintBanner()
	observability.InitializeTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg, err := config.Load("max.yaml")
	if err != nil {
		log.Fatal(err)
	}

	catalog := plan.DefaultCatalog()
	logger := observability.NewLogger()

	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer history.Close()
	if cfg.Memory.KeepLast > 0 {
		if err := history.Prune(cfg.Memory.KeepLast); err != nil {
			log.Printf("Warning: failed to prune history: %v", err)
		}
	}

	// Plan provider backends.
	prov := &provider.Provider{
		Mode:    provider.Mode(cfg.Provider.Mode),
		Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		Catalog: catalog,
		OnFallback: func(backend string, err error) {
			logger.LogFallback("", backend, err.Error())
		},
		OnTrace: logger.LogLLM,
	}
	if local := cfg.Local(); local.Enabled {
		b, err := provider.NewOllamaBackend(local.BaseURL, local.Model)
		if err != nil {
			log.Printf("Warning: local backend unavailable: %v", err)
		} else {
			prov.Local = b
		}
	}
	if cloud := cfg.Cloud(); cloud.Enabled {
		b, err := provider.NewCloudBackend(cloud.APIKey, cloud.Model, cloud.BaseURL)
		if err != nil {
			log.Printf("Warning: cloud backend unavailable: %v", err)
		} else {
			prov.Cloud = b
		}
	}

	// Safety chain.
	guard := safety.NewPathGuard(cfg.Safety.ProtectedPaths)
	classifier := safety.NewClassifier(catalog, guard, cfg.Safety.MaxPowerDelaySeconds)
	if len(cfg.Safety.DeniedActions) > 0 || len(cfg.Safety.DeniedPatterns) > 0 {
		policy := safety.NewPolicy()
		for _, at := range cfg.Safety.DeniedActions {
			policy.DenyAction(at)
		}
		for _, pat := range cfg.Safety.DeniedPatterns {
			if err := policy.DenyPattern(pat); err != nil {
				log.Fatalf("Invalid denied_patterns entry %q: %v", pat, err)
			}
		}
		classifier.Policy = policy
	}
	// Simple-only mode implies complex-plan rejection; the dedicated
	// toggle also works alone, leaving unmatched commands to the planner.
	rejectComplex := cfg.Safety.SimpleCommandsOnly || cfg.Safety.RejectComplexPlans
	validator := validate.NewValidator(catalog, cfg.Safety.MaxActionsPerPlan, rejectComplex)

	// Handlers.
	registry := dispatch.NewRegistry()
	deps := exec.Deps{
		Browser: exec.NewBrowserSession(),
		Guard:   guard,
		Prefs:   history,
	}
	if searcher, err := exec.NewSearcher(); err != nil {
		log.Printf("Warning: failed to initialize web search: %v", err)
	} else {
		deps.Searcher = searcher
	}
	exec.RegisterAll(registry, deps)
	defer deps.Browser.Close()

	confirmations := gateway.NewConfirmations()

	pl := pipeline.New()
	pl.Rules = rules.NewMatcher()
	pl.Planner = prov
	pl.Validator = validator
	pl.Safety = classifier
	pl.Confirm = confirmations
	pl.Dispatcher = dispatch.NewDispatcher(registry)
	pl.Memory = history
	pl.Events = logger
	pl.ConfirmDangerous = cfg.Safety.ConfirmDangerous
	pl.SimpleOnly = cfg.Safety.SimpleCommandsOnly
	pl.ContextLimit = cfg.Memory.ContextLimit

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Gateways.
	var gateways []gateway.Messenger
	if tgCfg, ok := cfg.Gateway("telegram"); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, pl, confirmations)
		if err != nil {
			log.Fatal(err)
		}
		gateways = append(gateways, tg)
	}
	if dcCfg, ok := cfg.Gateway("discord"); ok {
		dc, err := gateway.NewDiscordGateway(dcCfg.Token, pl, confirmations)
		if err != nil {
			log.Fatal(err)
		}
		gateways = append(gateways, dc)
	}
	if len(gateways) == 0 {
		log.Fatal("No gateway is enabled; configure telegram or discord in max.yaml")
	}

	for _, g := range gateways {
		g := g
		go func() {
			if err := g.Start(); err != nil {
				log.Printf("\033[91m[ FAIL ] GATEWAY CRITICAL ERROR: %v\033[0m", err)
				stop()
			}
		}()
	}

	// Live resource dashboard (1-second updates).
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	<-ctx.Done()

	for _, g := range gateways {
		if err := g.Stop(); err != nil {
			log.Printf("Gateway shutdown error: %v", err)
		}
	}

	observability.CleanupTerminal()

	// Give a short time for final logs/syncs
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] MAX DE-INITIALIZED. GOODBYE.\033[0m")
}
