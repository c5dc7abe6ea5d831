package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Pricing  PricingConfig
	Tracking TrackingConfig
	Order    OrderConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr string
	DB   int
}

type LogConfig struct {
	Level string
}

// PricingConfig holds every fare knob the engine reads. Percentages are basis
// points so the engine never touches floating point.
type PricingConfig struct {
	RatePerMinuteCents int64
	AverageSpeedKMH    int64
	TierShortMeters    int64
	TierLongMeters     int64
	MidTierBps         int64
	LongTierBps        int64
	CourierFeeBps      int64
	CarbonFeeBps       int64
	ServiceFeeBps      int64
	GSTBps             int64
	SizeMultiplierBps  map[string]int64
}

type TrackingConfig struct {
	PublishInterval      time.Duration
	PollInterval         time.Duration
	SampleTTL            time.Duration
	RouteThresholdMeters float64
}

type OrderConfig struct {
	// PendingTTL bounds how long an unclaimed order stays claimable.
	// Zero disables expiry.
	PendingTTL  time.Duration
	CodePrefix  string
	EvidenceDir string
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "swiftparcel")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "swiftparcel")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("FARE_RATE_PER_MINUTE_CENTS", 110)
	viper.SetDefault("FARE_AVERAGE_SPEED_KMH", 30)
	viper.SetDefault("FARE_TIER_SHORT_METERS", 5000)
	viper.SetDefault("FARE_TIER_LONG_METERS", 15000)
	viper.SetDefault("FARE_MID_TIER_BPS", 500)
	viper.SetDefault("FARE_LONG_TIER_BPS", 800)
	viper.SetDefault("FARE_COURIER_FEE_BPS", 200)
	viper.SetDefault("FARE_CARBON_FEE_BPS", 90)
	viper.SetDefault("FARE_SERVICE_FEE_BPS", 100)
	viper.SetDefault("FARE_GST_BPS", 500)
	viper.SetDefault("FARE_SIZE_XS_BPS", 10000)
	viper.SetDefault("FARE_SIZE_S_BPS", 10000)
	viper.SetDefault("FARE_SIZE_M_BPS", 11500)
	viper.SetDefault("FARE_SIZE_L_BPS", 13000)

	viper.SetDefault("TRACK_PUBLISH_INTERVAL", "5s")
	viper.SetDefault("TRACK_POLL_INTERVAL", "5s")
	viper.SetDefault("TRACK_SAMPLE_TTL", "30s")
	viper.SetDefault("TRACK_ROUTE_THRESHOLD_METERS", 50)

	viper.SetDefault("ORDER_PENDING_TTL", "0s")
	viper.SetDefault("ORDER_CODE_PREFIX", "SP")
	viper.SetDefault("ORDER_EVIDENCE_DIR", "/var/lib/swiftparcel/evidence")

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}
	publishInterval, err := time.ParseDuration(viper.GetString("TRACK_PUBLISH_INTERVAL"))
	if err != nil {
		return nil, err
	}
	pollInterval, err := time.ParseDuration(viper.GetString("TRACK_POLL_INTERVAL"))
	if err != nil {
		return nil, err
	}
	sampleTTL, err := time.ParseDuration(viper.GetString("TRACK_SAMPLE_TTL"))
	if err != nil {
		return nil, err
	}
	pendingTTL, err := time.ParseDuration(viper.GetString("ORDER_PENDING_TTL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Pricing: PricingConfig{
			RatePerMinuteCents: viper.GetInt64("FARE_RATE_PER_MINUTE_CENTS"),
			AverageSpeedKMH:    viper.GetInt64("FARE_AVERAGE_SPEED_KMH"),
			TierShortMeters:    viper.GetInt64("FARE_TIER_SHORT_METERS"),
			TierLongMeters:     viper.GetInt64("FARE_TIER_LONG_METERS"),
			MidTierBps:         viper.GetInt64("FARE_MID_TIER_BPS"),
			LongTierBps:        viper.GetInt64("FARE_LONG_TIER_BPS"),
			CourierFeeBps:      viper.GetInt64("FARE_COURIER_FEE_BPS"),
			CarbonFeeBps:       viper.GetInt64("FARE_CARBON_FEE_BPS"),
			ServiceFeeBps:      viper.GetInt64("FARE_SERVICE_FEE_BPS"),
			GSTBps:             viper.GetInt64("FARE_GST_BPS"),
			SizeMultiplierBps: map[string]int64{
				"XS": viper.GetInt64("FARE_SIZE_XS_BPS"),
				"S":  viper.GetInt64("FARE_SIZE_S_BPS"),
				"M":  viper.GetInt64("FARE_SIZE_M_BPS"),
				"L":  viper.GetInt64("FARE_SIZE_L_BPS"),
			},
		},
		Tracking: TrackingConfig{
			PublishInterval:      publishInterval,
			PollInterval:         pollInterval,
			SampleTTL:            sampleTTL,
			RouteThresholdMeters: viper.GetFloat64("TRACK_ROUTE_THRESHOLD_METERS"),
		},
		Order: OrderConfig{
			PendingTTL:  pendingTTL,
			CodePrefix:  viper.GetString("ORDER_CODE_PREFIX"),
			EvidenceDir: viper.GetString("ORDER_EVIDENCE_DIR"),
		},
	}

	return cfg, nil
}
