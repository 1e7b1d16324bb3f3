package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joseph-ayodele/bizscan/internal/app"
	"github.com/joseph-ayodele/bizscan/internal/bizno"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/delivery"
)

func main() {
	number := flag.String("n", "", "business registration number (10 digits, hyphens allowed)")
	level := flag.String("log", "warn", "log level")
	flag.Parse()

	if v := common.NewValidator().Field("n", *number, common.Required, common.RegistrationNumber); v.HasErrors() {
		fmt.Fprintf(os.Stderr, "Error: %s\n", v.ErrorMessage())
		os.Exit(2)
	}

	logger := app.NewLogger(*level)
	common.LoadDotEnv(logger)
	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	digits := bizno.Digits(*number)
	avail := app.NewChecker(cfg, logger).CheckAll(ctx, digits)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"registrationNumber": bizno.Canonical(digits),
		"availability":       avail,
		"summary":            delivery.FormatSummary(avail),
		"fullySaturated":     delivery.IsFullySaturated(avail),
	})
}
