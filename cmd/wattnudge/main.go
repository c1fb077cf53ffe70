package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wattnudge/wattnudge/internal/config"
	"github.com/wattnudge/wattnudge/internal/engine"
	"github.com/wattnudge/wattnudge/internal/prices"
	"github.com/wattnudge/wattnudge/internal/rates"
	"github.com/wattnudge/wattnudge/internal/store"
	"github.com/wattnudge/wattnudge/internal/weather"
)

var (
	cfgFile string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wattnudge",
		Short: "WattNudge - Know when electricity is cheap and the sun is out",
		Long: `WattNudge polls day-ahead spot prices and a solar forecast and tells
you when it is a good time to charge the EV or run the laundry.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wattnudge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "cache database path (default is $HOME/.wattnudge/wattnudge.db)")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(ratesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".wattnudge")
		os.MkdirAll(configDir, 0755)

		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.ReadInConfig()

	if dbPath == "" {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, ".wattnudge", "wattnudge.db")
	}
}

func loadSettings() (config.Settings, error) {
	return config.Load(viper.GetViper())
}

func openStore() (*store.Store, error) {
	return store.NewStore(dbPath)
}

func newAggregator(settings config.Settings, st *store.Store) *prices.Aggregator {
	conv := rates.NewConverter(st)
	conv.SetPrecision(settings.Currency, settings.CurrencyPrecision)
	return prices.NewAggregator(prices.NewOTEClient(), conv, settings.Currency, settings.CurrencyPrecision)
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch day-ahead prices and print the normalized series",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			defer st.Close()

			agg := newAggregator(settings, st)
			today, tomorrow := agg.Refresh(ctx, time.Now())

			if today.Empty() && tomorrow.Empty() {
				return fmt.Errorf("no prices available (feed down and cache empty)")
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]engine.DailySeries{
				"today":    today,
				"tomorrow": tomorrow,
			})
		},
	}
}

func statusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run one recommendation cycle and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			defer st.Close()

			now := time.Now()
			agg := newAggregator(settings, st)
			today, tomorrow := agg.Refresh(ctx, now)

			var sun *engine.SunSnapshot
			if forecast, err := weather.NewOpenMeteoClient().FetchForecast(ctx, settings.Latitude, settings.Longitude); err == nil {
				sun = weather.ReduceSnapshot(forecast, now)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: weather unavailable: %v\n", err)
			}

			in := engine.Inputs{Now: now, Today: today, Tomorrow: tomorrow, Sun: sun}
			if r, ok := today.At(now.Hour()); ok {
				in.Current = &r
			}
			state := engine.Recommend(in)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}

			printStatus(in, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printStatus(in engine.Inputs, state engine.RecommendationState) {
	if in.Current != nil {
		fmt.Printf("Current price: %.2f %s/MWh (%s, rank %d)\n",
			in.Current.Display, in.Current.Currency, in.Current.Tier, in.Current.Rank)
	} else {
		fmt.Println("Current price: unavailable")
	}
	if in.Sun != nil {
		fmt.Printf("Sun: %.0f W/m², %s, potential %s\n", in.Sun.Irradiance, in.Sun.Condition, in.Sun.Potential)
	}

	fmt.Printf("\nStatus: %s (%s)\n", state.Overall, state.Message)
	for _, r := range state.Recommendations {
		line := fmt.Sprintf("  %s: %s (%s)", r.Activity, r.Quality, r.Reason)
		if r.WindowEnd != nil {
			line += fmt.Sprintf(" until %s", r.WindowEnd.Local().Format("15:04"))
		}
		fmt.Println(line)
	}
	if state.NextWindow != nil {
		fmt.Printf("Next window: %s (%s)\n", state.NextWindow.Time.Local().Format("Mon 15:04"), state.NextWindow.Reason)
	}
}

func ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Show the current exchange rate for the display currency",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			defer st.Close()

			conv := rates.NewConverter(st)
			rate := conv.Rate(ctx, settings.Currency)
			fmt.Printf("1 EUR = %.3f %s\n", rate, settings.Currency)
			return nil
		},
	}
}
