package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// .env is optional, real environment variables win
		if _, err := os.Stat(".env"); err == nil {
			_ = godotenv.Load()
		}

		viper.AutomaticEnv()

		viper.BindEnv("port", "PORT")
		viper.BindEnv("telegram_bot_token", "BOT_TOKEN")
		viper.BindEnv("tonapi_key", "TONAPI_KEY")
		viper.BindEnv("tonapi_url", "TONAPI_URL")
		viper.BindEnv("jetton_address", "JETTON_ADDRESS")
		viper.BindEnv("token_symbol", "TOKEN_SYMBOL")
		viper.BindEnv("price_source", "PRICE_SOURCE")
		viper.BindEnv("coinpaprika_coin_id", "COINPAPRIKA_COIN_ID")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("chat_id", "CHAT_ID")
		viper.BindEnv("admin_chat_id", "ADMIN_CHAT_ID")
		viper.BindEnv("collect_interval", "COLLECT_INTERVAL")
		viper.BindEnv("update_interval", "UPDATE_INTERVAL")
		viper.BindEnv("report_interval", "REPORT_INTERVAL")
		viper.BindEnv("first_run_delay", "FIRST_RUN_DELAY")
		viper.BindEnv("report_window", "REPORT_WINDOW")
		viper.BindEnv("history_max_samples", "HISTORY_MAX_SAMPLES")
		viper.BindEnv("celebrate_every", "CELEBRATE_EVERY")
		viper.BindEnv("gif_urls", "GIF_URLS")
		viper.BindEnv("report_chart", "REPORT_CHART")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("port", 8080)
		viper.SetDefault("tonapi_url", "https://tonapi.io")
		viper.SetDefault("token_symbol", "TAC")
		viper.SetDefault("price_source", "tonapi")
		viper.SetDefault("coinpaprika_coin_id", "ton-toncoin")
		viper.SetDefault("admin_chat_id", 0)
		viper.SetDefault("collect_interval", 30*time.Minute)
		viper.SetDefault("update_interval", 5*time.Minute)
		viper.SetDefault("report_interval", 4*time.Hour)
		viper.SetDefault("first_run_delay", 10*time.Second)
		viper.SetDefault("report_window", 4*time.Hour)
		viper.SetDefault("history_max_samples", 0)
		viper.SetDefault("celebrate_every", 10)
		viper.SetDefault("report_chart", false)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// GetList splits a comma separated value, skipping blanks.
func GetList(key string) []string {
	var out []string
	for _, item := range strings.Split(GetString(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports every required key that is missing.
func Validate() error {
	var missing []string
	if GetString("telegram_bot_token") == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if GetInt64("chat_id") == 0 {
		missing = append(missing, "CHAT_ID")
	}
	if strings.EqualFold(GetString("price_source"), "tonapi") {
		if GetString("tonapi_key") == "" {
			missing = append(missing, "TONAPI_KEY")
		}
		if GetString("jetton_address") == "" {
			missing = append(missing, "JETTON_ADDRESS")
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if GetDuration("report_window") <= 0 {
		return errors.Errorf("REPORT_WINDOW must be positive, got %s", GetDuration("report_window"))
	}
	if GetInt("history_max_samples") < 0 {
		return errors.Errorf("HISTORY_MAX_SAMPLES must not be negative, got %d", GetInt("history_max_samples"))
	}
	return nil
}
