package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/server"
	"github.com/jingkaihe/skillkit/pkg/skills"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host string
	Port int
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host: "localhost",
		Port: 8080,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the skill catalog over a JSON API",
	Long: `Start a local HTTP server exposing the skills directory:

  GET  /api/skills                    catalog entries (?domain=, ?tag=)
  GET  /api/skills/{name}             one skill with its body
  GET  /api/skills/{name}/validation  validation findings
  GET  /api/skills/{name}/tests       trigger test report
  POST /api/match                     skills whose keywords occur in {"text": ...}

Skills are re-read on every request, so edits show up without a restart.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServeCommand(cmd.Context(), getServeConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the API server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the API server to")
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if host, err := cmd.Flags().GetString("host"); err == nil {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil {
		config.Port = port
	}

	return config
}

func validateServeConfig(ctx context.Context, config *ServeConfig) error {
	if config.Host == "" {
		return errors.New("host cannot be empty")
	}

	if config.Host != "localhost" && config.Host != "0.0.0.0" {
		if ip := net.ParseIP(config.Host); ip == nil {
			if strings.Contains(config.Host, " ") || strings.Contains(config.Host, ":") {
				return errors.Errorf("invalid host: %s", config.Host)
			}
		}
	}

	if config.Port < 1 || config.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", config.Port)
	}

	if config.Port < 1024 {
		logger.G(ctx).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}

	return nil
}

func runServeCommand(ctx context.Context, config *ServeConfig) error {
	if err := validateServeConfig(ctx, config); err != nil {
		return errors.Wrap(err, "invalid server configuration")
	}

	d, err := skills.NewDiscoveryFromConfig(ctx, skills.HiddenOnly)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(&server.ServerConfig{Host: config.Host, Port: config.Port}, d, skills.NewValidatorFromConfig())
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.G(ctx).WithFields(map[string]any{
		"host": config.Host,
		"port": config.Port,
		"dirs": d.SkillDirs(),
	}).Info("starting skills API server")
	presenter.Info("Press Ctrl+C to stop the server")

	if err := srv.Start(ctx); err != nil {
		return err
	}

	presenter.Info("Server stopped")
	return nil
}
