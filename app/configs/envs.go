package configs

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultWPURL          = "https://arterio.com.br/wp"
	defaultCatalogTimeout = 10 * time.Second
	defaultStoragePath    = ".storefront"
)

type ENV struct {
	AppEnv         string        `yaml:"app_env" validate:"omitempty,oneof=development production test"`
	Port           string        `yaml:"app_port"`
	LogLevel       string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	WPURL          string        `yaml:"wp_url" validate:"required,url"`
	StoreAPIURL    string        `yaml:"store_api_url" validate:"required,url"`
	CheckoutURL    string        `yaml:"checkout_url" validate:"required,url"`
	CatalogTimeout time.Duration `yaml:"catalog_timeout" validate:"gt=0"`
	StorageDriver  string        `yaml:"storage_driver" validate:"oneof=file mysql sqlite"`
	StoragePath    string        `yaml:"storage_path" validate:"required"`
	DBHost         string        `yaml:"db_host" validate:"required_if=StorageDriver mysql"`
	DBPort         string        `yaml:"db_port"`
	DBUser         string        `yaml:"db_user" validate:"required_if=StorageDriver mysql"`
	DBPassword     string        `yaml:"db_password"`
	DBName         string        `yaml:"db_name" validate:"required_if=StorageDriver mysql"`
	AppAuthKey     string        `yaml:"app_auth_key"`
	AppEncKey      string        `yaml:"app_enc_key"`
}

// LoadEnv reads .env, an optional YAML file named by STOREFRONT_CONFIG, then
// the process environment. Environment variables win over the YAML file.
func LoadEnv() (ENV, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: No .env file found")
	}

	var env ENV
	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := loadYAML(path, &env); err != nil {
			return ENV{}, err
		}
	}

	env.applyEnvOverrides()
	env.applyDefaults()

	if err := validator.New().Struct(env); err != nil {
		return ENV{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return env, nil
}

func loadYAML(path string, env *ENV) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, env); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (e *ENV) applyEnvOverrides() {
	setString(&e.AppEnv, "APP_ENV")
	setString(&e.Port, "APP_PORT")
	setString(&e.LogLevel, "LOG_LEVEL")
	setString(&e.WPURL, "WP_URL")
	setString(&e.StoreAPIURL, "STORE_API_URL")
	setString(&e.CheckoutURL, "CHECKOUT_URL")
	setString(&e.StorageDriver, "STORAGE_DRIVER")
	setString(&e.StoragePath, "STORAGE_PATH")
	setString(&e.DBHost, "DB_HOST")
	setString(&e.DBPort, "DB_PORT")
	setString(&e.DBUser, "DB_USER")
	setString(&e.DBPassword, "DB_PASSWORD")
	setString(&e.DBName, "DB_NAME")
	setString(&e.AppAuthKey, "APP_AUTH_KEY")
	setString(&e.AppEncKey, "APP_ENC_KEY")

	if v := os.Getenv("CATALOG_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			e.CatalogTimeout = d
		} else {
			log.Printf("Warning: ignoring invalid CATALOG_TIMEOUT %q: %v", v, err)
		}
	}
}

func (e *ENV) applyDefaults() {
	if e.AppEnv == "" {
		e.AppEnv = "development"
	}
	if e.Port == "" {
		e.Port = ":8080"
	}
	if !strings.Contains(e.Port, ":") {
		e.Port = ":" + e.Port
	}
	if e.LogLevel == "" {
		e.LogLevel = "info"
	}
	if e.WPURL == "" {
		e.WPURL = defaultWPURL
	}
	e.WPURL = strings.TrimRight(e.WPURL, "/")
	if e.StoreAPIURL == "" {
		e.StoreAPIURL = e.WPURL + "/wp-json/wc/store/v1"
	}
	e.StoreAPIURL = strings.TrimRight(e.StoreAPIURL, "/")
	if e.CheckoutURL == "" {
		e.CheckoutURL = e.WPURL + "/checkout"
	}
	if e.CatalogTimeout == 0 {
		e.CatalogTimeout = defaultCatalogTimeout
	}
	if e.StorageDriver == "" {
		e.StorageDriver = "file"
	}
	if e.StoragePath == "" {
		e.StoragePath = defaultStoragePath
	}
	if e.DBPort == "" {
		e.DBPort = "3306"
	}
}

func (e ENV) IsProduction() bool {
	return e.AppEnv == "production"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
