// Command careerauth serves the account, session and credential recovery API.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/kbukum/careerauth/auth/password"
	"github.com/kbukum/careerauth/encryption"
	"github.com/kbukum/careerauth/logger"
	"github.com/kbukum/careerauth/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("careerauth failed")
		cancel()
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    serviceName,
		Usage:   "Authentication and session service for the career guidance app",
		Version: version.Get().String(),
		Commands: []*cli.Command{
			serveCmd(),
			keygenCmd(),
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API until SIGINT or SIGTERM",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.yml (default: search cmd/careerauth, config/ and the working directory)",
				EnvVars: []string{"CAREERAUTH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "Path to a .env file loaded before the environment is read",
				EnvVars: []string{"CAREERAUTH_ENV_FILE"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, files, err := loadConfig(c.String("config"), c.String("env-file"))
			if err != nil {
				return err
			}

			l := logger.Init(cfg.Logging)
			l.Info("configuration loaded", logger.Fields(
				"config_file", files.ConfigFile,
				"env_file", files.EnvFile,
				"environment", cfg.Environment,
				"version", cfg.Version,
			))

			a, err := newApp(c.Context, cfg, l)
			if err != nil {
				return err
			}
			return a.run(c.Context)
		},
	}
}

func keygenCmd() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Print fresh secrets in .env format",
		Action: func(c *cli.Context) error {
			return writeSecrets(c.App.Writer)
		},
	}
}

func writeSecrets(w io.Writer) error {
	key, err := encryption.GenerateKey()
	if err != nil {
		return err
	}
	tokenSecret, err := password.GenerateSecret(32)
	if err != nil {
		return err
	}
	sessionSecret, err := password.GenerateSecret(32)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "AUTH_ENCRYPTION_KEY=%s\nAUTH_TOKEN_SECRET=%s\nAUTH_SESSION_SECRET=%s\n",
		hex.EncodeToString(key), hex.EncodeToString(tokenSecret), hex.EncodeToString(sessionSecret))
	return err
}
