package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maltedev/amazon-search-scraper/internal/config"
	"github.com/maltedev/amazon-search-scraper/internal/domain"
	"github.com/maltedev/amazon-search-scraper/internal/scraper"
	"github.com/maltedev/amazon-search-scraper/pkg/logger"
	"github.com/spf13/cobra"
)

type searchFlags struct {
	keyword string
	domain  string
	format  string
	output  string
}

func newRootCmd() *cobra.Command {
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "search scrapes one Amazon search-result page and prints the products.",
		Long: fmt.Sprintf("search fetches the first search-result page for a keyword on one storefront.\nSupported domains: %s",
			strings.Join(domain.DefaultRegistry().Keys(), ", ")),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.keyword, "keyword", "k", "", "search keyword (required)")
	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "us", "storefront key")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "output format: table, json or csv")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write results to this file instead of stdout")
	_ = cmd.MarkFlagRequired("keyword")

	return cmd
}

func run(ctx context.Context, flags *searchFlags, stdout io.Writer) error {
	write, err := writerFor(flags.format)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// stdout carries the results, logs go to stderr
	log := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	service := scraper.New(scraper.OptionsFromConfig(cfg.Scraper), nil, nil, log)
	products, err := service.Scrape(ctx, flags.keyword, flags.domain)
	if err != nil {
		return err
	}

	out := stdout
	if flags.output != "" {
		file, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if err := write(out, products); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if flags.output != "" {
		log.Info("results saved", "file", flags.output, "count", len(products))
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
