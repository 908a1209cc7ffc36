package config

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to clear environment variables
func clearEnvVars() {
	os.Unsetenv("PDF_TABLES_MODE")
	os.Unsetenv("PDF_TABLES_HOST")
	os.Unsetenv("PDF_TABLES_PORT")
	os.Unsetenv("PDF_TABLES_DIR")
	os.Unsetenv("PDF_TABLES_ENGINE")
	os.Unsetenv("PDF_TABLES_LOGLEVEL")
	os.Unsetenv("PDF_TABLES_MAXFILESIZE")
}

func withArgs(t *testing.T, args []string) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})
	os.Args = args
	resetFlags()
	clearEnvVars()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	withArgs(t, []string{"mcp-pdf-tables"})

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.Engine != "tabula" {
		t.Errorf("LoadFromFlags() Engine = %v, want %v", cfg.Engine, "tabula")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.PDFDirectory == "" {
		t.Error("LoadFromFlags() PDFDirectory should not be empty")
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name            string
		extraArgs       []string
		wantMode        string
		wantHost        string
		wantPort        int
		wantEngine      string
		wantLogLevel    string
		wantMaxFileSize int64
	}{
		{
			name:            "stdio mode with custom directory",
			extraArgs:       nil,
			wantMode:        "stdio",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantEngine:      "tabula",
			wantLogLevel:    "info",
			wantMaxFileSize: 100 * 1024 * 1024,
		},
		{
			name:            "server mode with custom host and port",
			extraArgs:       []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			wantMode:        "server",
			wantHost:        "0.0.0.0",
			wantPort:        9090,
			wantEngine:      "tabula",
			wantLogLevel:    "info",
			wantMaxFileSize: 100 * 1024 * 1024,
		},
		{
			name:            "custom engine and debug logging",
			extraArgs:       []string{"--engine=textgrid", "--loglevel=debug"},
			wantMode:        "stdio",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantEngine:      "textgrid",
			wantLogLevel:    "debug",
			wantMaxFileSize: 100 * 1024 * 1024,
		},
		{
			name:            "custom max file size",
			extraArgs:       []string{"--maxfilesize=50000000"},
			wantMode:        "stdio",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantEngine:      "tabula",
			wantLogLevel:    "info",
			wantMaxFileSize: 50000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			args := append([]string{"mcp-pdf-tables", "--dir=" + tempDir}, tt.extraArgs...)
			withArgs(t, args)

			cfg, err := LoadFromFlags()
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}

			if cfg.Mode != tt.wantMode {
				t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, tt.wantMode)
			}
			if cfg.Host != tt.wantHost {
				t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, tt.wantHost)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, tt.wantPort)
			}
			if cfg.Engine != tt.wantEngine {
				t.Errorf("LoadFromFlags() Engine = %v, want %v", cfg.Engine, tt.wantEngine)
			}
			if cfg.LogLevel != tt.wantLogLevel {
				t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, tt.wantLogLevel)
			}
			if cfg.MaxFileSize != tt.wantMaxFileSize {
				t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, tt.wantMaxFileSize)
			}
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	tempDir := t.TempDir()
	withArgs(t, []string{"mcp-pdf-tables"})

	os.Setenv("PDF_TABLES_MODE", "server")
	os.Setenv("PDF_TABLES_HOST", "192.168.1.1")
	os.Setenv("PDF_TABLES_PORT", "3000")
	os.Setenv("PDF_TABLES_DIR", tempDir)
	os.Setenv("PDF_TABLES_ENGINE", "textgrid")
	os.Setenv("PDF_TABLES_LOGLEVEL", "warn")
	os.Setenv("PDF_TABLES_MAXFILESIZE", "200000000")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "server")
	}
	if cfg.Host != "192.168.1.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "192.168.1.1")
	}
	if cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 3000)
	}
	if cfg.Engine != "textgrid" {
		t.Errorf("LoadFromFlags() Engine = %v, want %v", cfg.Engine, "textgrid")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 200000000 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 200000000)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	withArgs(t, []string{"mcp-pdf-tables", "--mode=stdio", "--host=localhost", "--port=8888"})

	os.Setenv("PDF_TABLES_MODE", "server")
	os.Setenv("PDF_TABLES_HOST", "192.168.1.1")
	os.Setenv("PDF_TABLES_PORT", "3000")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	// Flags should override environment variables
	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v (should override env)", cfg.Mode, "stdio")
	}
	if cfg.Host != "localhost" {
		t.Errorf("LoadFromFlags() Host = %v, want %v (should override env)", cfg.Host, "localhost")
	}
	if cfg.Port != 8888 {
		t.Errorf("LoadFromFlags() Port = %v, want %v (should override env)", cfg.Port, 8888)
	}
}

func TestLoadFromFlags_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "invalid mode",
			args:    []string{"--mode=invalid"},
			wantErr: "mode must be either 'stdio' or 'server'",
		},
		{
			name:    "invalid port",
			args:    []string{"--mode=server", "--port=99999"},
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "invalid log level",
			args:    []string{"--loglevel=invalid"},
			wantErr: "invalid log level",
		},
		{
			name:    "empty engine",
			args:    []string{"--engine="},
			wantErr: "engine cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			args := append([]string{"mcp-pdf-tables", "--dir=" + tempDir}, tt.args...)
			withArgs(t, args)

			_, err := LoadFromFlags()
			if err == nil {
				t.Fatal("LoadFromFlags() expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	withArgs(t, []string{"mcp-pdf-tables", "--version"})

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected version error")
	}
	if err != nil && err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}
