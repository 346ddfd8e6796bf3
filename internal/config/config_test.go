package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *ServerConfig {
	return &ServerConfig{
		RunAddr:             ":8080",
		DBName:              "uploader",
		FilemoonUploadURL:   DefaultFilemoonUploadURL,
		VoeServerURL:        DefaultVoeServerURL,
		LogLevel:            "info",
		TLSCertPath:         "./certs/cert.pem",
		TLSKeyPath:          "./certs/private.pem",
		VoeDiscoveryTimeout: DefaultDiscoveryTimeout,
		UploadTimeout:       DefaultUploadTimeout,
		MaxMultipartMemory:  DefaultMultipartMemory,
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		env               map[string]string
		want              func(path string) *ServerConfig
		name              string
		configFileContent string
		args              []string
	}{
		{
			name: "defaults",
			want: func(string) *ServerConfig { return defaults() },
		},
		{
			name: "flags override defaults",
			args: []string{"-a", "localhost:9000", "-f", "/tmp/history.json", "-upload-timeout", "1m"},
			want: func(string) *ServerConfig {
				c := defaults()
				c.RunAddr = "localhost:9000"
				c.FileStoragePath = "/tmp/history.json"
				c.UploadTimeout = time.Minute
				return c
			},
		},
		{
			name: "test configs merge",
			configFileContent: `{
				"server_address": "localhost:8081",
				"file_storage_path": "/path/to/file.db",
				"database_dsn": "",
				"enable_https": true,
				"trusted_subnet": "10.0.0.0/8",
				"voe_discovery_timeout": "3s"
			}`,
			args: []string{"-a", ":8080"},
			want: func(path string) *ServerConfig {
				c := defaults()
				c.Config = path
				c.FileStoragePath = "/path/to/file.db"
				c.EnableHTTPS = true
				c.TrustedSubnet = "10.0.0.0/8"
				c.VoeDiscoveryTimeout = 3 * time.Second
				return c
			},
		},
		{
			name:              "env wins over file and flags",
			configFileContent: `{"mongo_url": "mongodb://file:27017"}`,
			args:              []string{"-m", "mongodb://flag:27017"},
			env: map[string]string{
				"MONGO_URL":        "mongodb://env:27017",
				"FILEMOON_API_KEY": "fm-key",
				"VOE_API_KEY":      "voe-key",
				"ALLOW_ORIGINS":    "http://a.test,http://b.test",
			},
			want: func(path string) *ServerConfig {
				c := defaults()
				c.Config = path
				c.MongoURL = "mongodb://env:27017"
				c.FilemoonAPIKey = "fm-key"
				c.VoeAPIKey = "voe-key"
				c.AllowOrigins = []string{"http://a.test", "http://b.test"}
				return c
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			args := tt.args
			path := ""
			if tt.configFileContent != "" {
				path = filepath.Join(t.TempDir(), "config.json")
				require.NoError(t, os.WriteFile(path, []byte(tt.configFileContent), 0600))
				args = append([]string{"-c", path}, args...)
			}

			got, err := ParseFlags(args)
			require.NoError(t, err)

			assert.Equal(t, tt.want(path), got)
		})
	}
}

func TestParseFlags_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"upload_timeout": 10}`), 0600))

	_, err := ParseFlags([]string{"-c", path})

	assert.Error(t, err)
}
