package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/emirozbir/clinic-insights/internal/agent"
	"github.com/emirozbir/clinic-insights/internal/config"
	"github.com/emirozbir/clinic-insights/internal/database"
	"github.com/emirozbir/clinic-insights/internal/formatter"
	"github.com/emirozbir/clinic-insights/internal/ui"
)

func main() {
	orgID := flag.Int64("org", 0, "Organization ID")
	timeframe := flag.String("timeframe", "", "Analysis window: 1h, 24h, 7d or 30d (default from config)")
	configPath := flag.String("config", "", "Path to config file")
	outputFormat := flag.String("format", "pretty", "Output format: 'pretty' or 'json'")
	noColor := flag.Bool("no-color", false, "Disable colored output")

	flag.Parse()

	if *orgID <= 0 {
		log.Fatal("-org must be a positive organization ID")
	}

	// Logs go to stderr so JSON output stays clean.
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()

	agentInstance, err := agent.NewAgent(cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to create agent", zap.Error(err))
	}

	req := agent.InsightRequest{
		OrganizationID: *orgID,
		Timeframe:      *timeframe,
	}

	var spinner *ui.SpinnerProgress
	if *outputFormat != "json" {
		spinner = ui.NewSpinnerProgress()
		spinner.Start(fmt.Sprintf("Generating insights for organization %d...", *orgID))
		req.Progress = spinner
	}

	report, err := agentInstance.GenerateReport(ctx, req)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		logger.Fatal("Insight generation failed", zap.Error(err))
	}

	if err := store.SaveReport(ctx, report); err != nil {
		logger.Warn("Failed to save report", zap.Error(err))
	}

	if *outputFormat == "json" {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Fatal("Failed to marshal report", zap.Error(err))
		}
		fmt.Println(string(output))
		return
	}

	fmt.Println(formatter.NewFormatter(!*noColor).FormatHealthReport(report))
}
