package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	gazetteerPath string
	configPath    string
	verbose       bool

	logger = zap.NewNop()
)

func main() {
	// Ctrl+C hủy batch đang chạy; kết quả đã xử lý vẫn được ghi ra --out
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "matcher",
		Short: "Korean address matcher",
		Long:  `Match Korean addresses against an lv0..lv4 gazetteer, extract them from news articles, and seed gazetteer stores`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewDevelopmentConfig()
			if !verbose {
				cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&gazetteerPath, "gazetteer", "g", envOr("GAZETTEER_SOURCE", "data/address_lv0_lv4.csv"), "gazetteer file (.csv, .json, .db)")
	flags.StringVarP(&configPath, "config", "c", envOr("MATCHER_CONFIG", "config/matcher.yaml"), "matcher config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(createMatchCmd())
	rootCmd.AddCommand(createProcessCmd())
	rootCmd.AddCommand(createBatchCmd())
	rootCmd.AddCommand(createSeedCmd())
	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
