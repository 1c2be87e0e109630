package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/checkout"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/promo"
)

func main() {
	_ = godotenv.Load()

	catalogPath := flag.String("catalog", os.Getenv("CATALOG_FILE"), "path to the catalog YAML file")
	at := flag.String("at", "", "evaluate rule periods on this date (dd/mm/yyyy); defaults to now")
	verbose := flag.Bool("v", false, "log every rule evaluation")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := obs.NewLoggerTo(os.Stderr, "console", level)

	if err := run(os.Stdout, logger, *catalogPath, *at, flag.Args()); err != nil {
		logger.Error().Err(err).Msg("pricecheck failed")
		os.Exit(1)
	}
}

func run(out io.Writer, logger zerolog.Logger, catalogPath, at string, skus []string) error {
	if strings.TrimSpace(catalogPath) == "" {
		return errors.New("catalog path is required (-catalog or CATALOG_FILE)")
	}
	now := time.Now()
	if at != "" {
		parsed, err := time.ParseInLocation(promo.PeriodLayout, at, time.UTC)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		now = parsed
	}

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}
	items, err := cat.LookupAll(skus)
	if err != nil {
		return err
	}

	co := checkout.New(cat.Rules(),
		checkout.WithClock(func() time.Time { return now }),
		checkout.WithLogger(logger),
	)
	summary, err := checkout.Quote(co, items)
	if err != nil {
		return err
	}
	return render(out, summary)
}

func render(out io.Writer, s checkout.Summary) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, it := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", it.SKU, it.Name, it.Price.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t\t\n")
	fmt.Fprintf(tw, "\tsubtotal\t%s\t\n", s.Subtotal.StringFixed(2))
	for _, a := range s.Applied {
		fmt.Fprintf(tw, "\t%s\t-%s\t\n", a.Name, a.Discount.StringFixed(2))
	}
	fmt.Fprintf(tw, "\ttotal\t%s\t\n", s.Total.StringFixed(2))
	return tw.Flush()
}
