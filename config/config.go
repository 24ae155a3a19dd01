package config

import (
	"os"
	"strings"

	"meal-delivery-api/models"

	"github.com/glebarez/sqlite"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const envPrefix = "FOODAPI_"

type Config struct {
	Server struct {
		Port int    `koanf:"port"`
		Mode string `koanf:"mode"`
	} `koanf:"server"`

	Database struct {
		Path string `koanf:"path"`
	} `koanf:"database"`

	JWT struct {
		Secret   string `koanf:"secret"`
		TTLHours int    `koanf:"ttlhours"`
	} `koanf:"jwt"`

	Orders struct {
		// TaxRate is applied to the order subtotal, rounded to cents.
		TaxRate float64 `koanf:"taxrate"`
	} `koanf:"orders"`

	OTP struct {
		TTLMinutes int `koanf:"ttlminutes"`
	} `koanf:"otp"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.Mode = "debug"
	cfg.Database.Path = "meal_delivery.db"
	cfg.JWT.Secret = "meal_delivery_super_secret_2024"
	cfg.JWT.TTLHours = 24
	cfg.Orders.TaxRate = 0.08
	cfg.OTP.TTLMinutes = 10
	return cfg
}

// Load builds the configuration from defaults, an optional YAML file and
// FOODAPI_-prefixed environment variables, in increasing precedence.
// FOODAPI_JWT_SECRET overrides jwt.secret, and so on.
func Load(path string) (*Config, error) {
	cfg := defaults()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitDB opens the database and migrates all models.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.CustomerProfile{},
		&models.RestaurantProfile{},
		&models.DeliveryProfile{},
		&models.Meal{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEvent{},
		&models.EmailOTP{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

// NewLogger builds the process logger; release mode gets the production
// encoder, everything else the development one.
func NewLogger(mode string) (*zap.Logger, error) {
	if mode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
