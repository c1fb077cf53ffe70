package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/wattnudge/wattnudge/internal/engine"
)

// Settings is the read-only configuration the core consults at the start
// of each recomputation cycle.
type Settings struct {
	Region            string          `mapstructure:"region"`
	Currency          string          `mapstructure:"currency"`
	CurrencyPrecision int             `mapstructure:"currency_precision"`
	Latitude          float64         `mapstructure:"latitude"`
	Longitude         float64         `mapstructure:"longitude"`
	SolarCapacityKwp  float64         `mapstructure:"solar_capacity_kwp"`
	Notifications     engine.Toggles  `mapstructure:"notifications"`
	PriceInterval     time.Duration   `mapstructure:"price_interval"`
	FullInterval      time.Duration   `mapstructure:"full_interval"`
	ListenAddr        string          `mapstructure:"listen_addr"`
}

// SetDefaults registers the default settings on a viper instance.
// Location defaults to Prague, matching the CZ day-ahead market.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("region", "CZ")
	v.SetDefault("currency", "CZK")
	v.SetDefault("currency_precision", 2)
	v.SetDefault("latitude", 50.0755)
	v.SetDefault("longitude", 14.4378)
	v.SetDefault("solar_capacity_kwp", 0.0)
	v.SetDefault("notifications.low_price", true)
	v.SetDefault("notifications.high_price", false)
	v.SetDefault("price_interval", 5*time.Minute)
	v.SetDefault("full_interval", 30*time.Minute)
	v.SetDefault("listen_addr", "127.0.0.1:8390")
}

// Load reads settings out of a viper instance.
func Load(v *viper.Viper) (Settings, error) {
	SetDefaults(v)
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
