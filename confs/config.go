package confs

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultListenAddr = "0.0.0.0:3536"
	DefaultMaxConns   = 5
)

// Config holds everything the server needs at startup.
type Config struct {
	ListenAddr  string
	Env         string
	CORSOrigins cli.StringSlice

	DBURL      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int
}

// IsDevelopment reports whether error details may be shown to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// LoadConfig loads environment variables from a .env file if present.
func LoadConfig() error {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return nil
}

// Flags binds every setting to a command line flag backed by an
// environment variable. Values land in cfg once the app parses its args.
func Flags(cfg *Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "listen",
			Usage:       "address the HTTP server listens on",
			EnvVars:     []string{"RECORDER_LISTEN"},
			Value:       DefaultListenAddr,
			Destination: &cfg.ListenAddr,
		},
		&cli.StringFlag{
			Name:        "env",
			Usage:       "deployment environment (development|production)",
			EnvVars:     []string{"RECORDER_ENV"},
			Value:       EnvProduction,
			Destination: &cfg.Env,
		},
		&cli.StringSliceFlag{
			Name:        "cors-origin",
			Usage:       "allowed CORS origin, repeatable",
			EnvVars:     []string{"RECORDER_CORS_ORIGINS"},
			Value:       cli.NewStringSlice("*"),
			Destination: &cfg.CORSOrigins,
		},
		&cli.StringFlag{
			Name:        "db-url",
			Usage:       "PostgreSQL connection URL",
			EnvVars:     []string{"DB_URL"},
			Destination: &cfg.DBURL,
		},
		&cli.StringFlag{
			Name:        "db-host",
			EnvVars:     []string{"DB_HOST"},
			Destination: &cfg.DBHost,
		},
		&cli.StringFlag{
			Name:        "db-port",
			EnvVars:     []string{"DB_PORT"},
			Value:       "5432",
			Destination: &cfg.DBPort,
		},
		&cli.StringFlag{
			Name:        "db-user",
			EnvVars:     []string{"DB_USER"},
			Destination: &cfg.DBUser,
		},
		&cli.StringFlag{
			Name:        "db-password",
			EnvVars:     []string{"DB_PASSWORD"},
			Destination: &cfg.DBPassword,
		},
		&cli.StringFlag{
			Name:        "db-name",
			EnvVars:     []string{"DB_NAME"},
			Destination: &cfg.DBName,
		},
		&cli.IntFlag{
			Name:        "db-max-conns",
			Usage:       "upper bound on concurrent database connections",
			EnvVars:     []string{"DB_MAX_CONNS"},
			Value:       DefaultMaxConns,
			Destination: &cfg.DBMaxConns,
		},
	}
}
