package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wattnudge/wattnudge/internal/config"
	"github.com/wattnudge/wattnudge/internal/log"
	"github.com/wattnudge/wattnudge/internal/monitor"
	"github.com/wattnudge/wattnudge/internal/prices"
	"github.com/wattnudge/wattnudge/internal/rates"
	"github.com/wattnudge/wattnudge/internal/store"
	"github.com/wattnudge/wattnudge/internal/uiapi"
	"github.com/wattnudge/wattnudge/internal/weather"
)

func main() {
	var cfgFile string
	var dbPath string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "wattnudged",
		Short: "WattNudge background daemon serving the menu-bar frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetDefaultLogLevel(slog.LevelDebug)
			}

			v := viper.New()
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			} else {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				v.AddConfigPath(filepath.Join(home, ".wattnudge"))
				v.SetConfigName("config")
				v.SetConfigType("yaml")
			}
			v.AutomaticEnv()
			v.ReadInConfig()

			settings, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			if dbPath == "" {
				home, _ := os.UserHomeDir()
				dir := filepath.Join(home, ".wattnudge")
				os.MkdirAll(dir, 0755)
				dbPath = filepath.Join(dir, "wattnudge.db")
			}

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			conv := rates.NewConverter(st)
			conv.SetPrecision(settings.Currency, settings.CurrencyPrecision)
			agg := prices.NewAggregator(prices.NewOTEClient(), conv, settings.Currency, settings.CurrencyPrecision)

			mon := monitor.New(settings, agg, weather.NewOpenMeteoClient(), st, monitor.NewBus())
			srv := uiapi.NewServer(mon)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
					log.Ctx(ctx).Error("monitor stopped", "error", err)
				}
			}()

			httpSrv := &http.Server{Addr: settings.ListenAddr, Handler: srv.Handler()}
			go func() {
				<-ctx.Done()
				httpSrv.Shutdown(context.Background())
			}()

			log.Ctx(ctx).Info("daemon started",
				"addr", settings.ListenAddr,
				"db", dbPath,
				"region", settings.Region,
				"currency", settings.Currency)

			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wattnudge/config.yaml)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "cache database path")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
