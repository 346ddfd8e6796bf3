package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultFilemoonUploadURL = "https://filemoon.sx/api/upload/server"
	DefaultVoeServerURL      = "https://voe.sx/api/upload/server"
	DefaultDiscoveryTimeout  = 10 * time.Second
	DefaultUploadTimeout     = 5 * time.Minute
	DefaultMultipartMemory   = 32 << 20
)

type ServerConfig struct {
	Config              string        `env:"CONFIG"`
	RunAddr             string        `env:"SERVER_ADDRESS"`
	FileStoragePath     string        `env:"FILE_STORAGE_PATH"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	MongoURL            string        `env:"MONGO_URL"`
	DBName              string        `env:"DB_NAME"`
	RedisURL            string        `env:"REDIS_URL"`
	FilemoonAPIKey      string        `env:"FILEMOON_API_KEY"`
	VoeAPIKey           string        `env:"VOE_API_KEY"`
	FilemoonUploadURL   string        `env:"FILEMOON_UPLOAD_URL"`
	VoeServerURL        string        `env:"VOE_SERVER_URL"`
	LogLevel            string        `env:"LOG_LEVEL"`
	TLSCertPath         string        `env:"TLS_CERT_PATH"`
	TLSKeyPath          string        `env:"TLS_KEY_PATH"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET"`
	AllowOrigins        []string      `env:"ALLOW_ORIGINS" envSeparator:","`
	VoeDiscoveryTimeout time.Duration `env:"VOE_DISCOVERY_TIMEOUT"`
	UploadTimeout       time.Duration `env:"UPLOAD_TIMEOUT"`
	MaxMultipartMemory  int64         `env:"MAX_MULTIPART_MEMORY"`
	EnableHTTPS         bool          `env:"ENABLE_HTTPS"`
	ProfileMode         bool          `env:"PROFILE_MODE"`
}

// fileConfig is the JSON config file layout. Pointers tell unset keys apart.
type fileConfig struct {
	RunAddr             *string   `json:"server_address"`
	FileStoragePath     *string   `json:"file_storage_path"`
	DatabaseDSN         *string   `json:"database_dsn"`
	MongoURL            *string   `json:"mongo_url"`
	DBName              *string   `json:"db_name"`
	RedisURL            *string   `json:"redis_url"`
	FilemoonUploadURL   *string   `json:"filemoon_upload_url"`
	VoeServerURL        *string   `json:"voe_server_url"`
	LogLevel            *string   `json:"log_level"`
	TrustedSubnet       *string   `json:"trusted_subnet"`
	AllowOrigins        []string  `json:"allow_origins"`
	VoeDiscoveryTimeout *duration `json:"voe_discovery_timeout"`
	UploadTimeout       *duration `json:"upload_timeout"`
	EnableHTTPS         *bool     `json:"enable_https"`
	ProfileMode         *bool     `json:"profile_mode"`
}

type duration time.Duration

func (d *duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// ParseFlags builds the config from defaults, an optional JSON file, command
// line flags and the environment, later sources overriding earlier ones.
// A .env file in the working directory is loaded into the environment first.
func ParseFlags(args []string) (*ServerConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &ServerConfig{}

	fset := flag.NewFlagSet("uploader", flag.ContinueOnError)
	fset.StringVar(&config.Config, "c", "", "path to JSON config file")
	fset.StringVar(&config.RunAddr, "a", ":8080", "address and port to run server")
	fset.StringVar(&config.FileStoragePath, "f", "", "file storage path")
	fset.StringVar(&config.DatabaseDSN, "d", "", "Data Source Name (DSN)")
	fset.StringVar(&config.MongoURL, "m", "", "MongoDB connection URL")
	fset.StringVar(&config.DBName, "db-name", "uploader", "MongoDB database name")
	fset.StringVar(&config.RedisURL, "r", "", "Redis connection URL")
	fset.StringVar(&config.FilemoonUploadURL, "filemoon-url", DefaultFilemoonUploadURL, "Filemoon upload endpoint")
	fset.StringVar(&config.VoeServerURL, "voe-url", DefaultVoeServerURL, "Voe.sx upload server discovery endpoint")
	fset.StringVar(&config.LogLevel, "l", "info", "log level")
	fset.StringVar(&config.TLSCertPath, "tls-cert", "./certs/cert.pem", "TLS certificate path")
	fset.StringVar(&config.TLSKeyPath, "tls-key", "./certs/private.pem", "TLS private key path")
	fset.StringVar(&config.TrustedSubnet, "t", "", "CIDR allowed to read /metrics and pprof")
	fset.DurationVar(&config.VoeDiscoveryTimeout, "discovery-timeout", DefaultDiscoveryTimeout, "upload server discovery timeout")
	fset.DurationVar(&config.UploadTimeout, "upload-timeout", DefaultUploadTimeout, "file transfer timeout")
	fset.Int64Var(&config.MaxMultipartMemory, "max-memory", DefaultMultipartMemory, "multipart form bytes kept in memory")
	fset.BoolVar(&config.EnableHTTPS, "s", false, "serve HTTPS with a self-signed certificate")
	fset.BoolVar(&config.ProfileMode, "p", false, "register pprof handlers")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	if path := configPath(config.Config); path != "" {
		explicit := make(map[string]bool)
		fset.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

		if err := applyFile(config, path, explicit); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("error parsing env variables: %w", err)
	}

	return config, nil
}

func configPath(fromFlag string) string {
	if fromFlag != "" {
		return fromFlag
	}
	return os.Getenv("CONFIG")
}

// applyFile copies values from the JSON file into config unless the matching
// flag was set on the command line.
func applyFile(config *ServerConfig, path string, explicit map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("error decoding config file: %w", err)
	}

	setString := func(name string, dst *string, src *string) {
		if src != nil && !explicit[name] {
			*dst = *src
		}
	}
	setBool := func(name string, dst *bool, src *bool) {
		if src != nil && !explicit[name] {
			*dst = *src
		}
	}
	setDuration := func(name string, dst *time.Duration, src *duration) {
		if src != nil && !explicit[name] {
			*dst = time.Duration(*src)
		}
	}

	setString("a", &config.RunAddr, fc.RunAddr)
	setString("f", &config.FileStoragePath, fc.FileStoragePath)
	setString("d", &config.DatabaseDSN, fc.DatabaseDSN)
	setString("m", &config.MongoURL, fc.MongoURL)
	setString("db-name", &config.DBName, fc.DBName)
	setString("r", &config.RedisURL, fc.RedisURL)
	setString("filemoon-url", &config.FilemoonUploadURL, fc.FilemoonUploadURL)
	setString("voe-url", &config.VoeServerURL, fc.VoeServerURL)
	setString("l", &config.LogLevel, fc.LogLevel)
	setString("t", &config.TrustedSubnet, fc.TrustedSubnet)
	setBool("s", &config.EnableHTTPS, fc.EnableHTTPS)
	setBool("p", &config.ProfileMode, fc.ProfileMode)
	setDuration("discovery-timeout", &config.VoeDiscoveryTimeout, fc.VoeDiscoveryTimeout)
	setDuration("upload-timeout", &config.UploadTimeout, fc.UploadTimeout)
	if fc.AllowOrigins != nil {
		config.AllowOrigins = fc.AllowOrigins
	}

	return nil
}
