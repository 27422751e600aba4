// Package config resolves streameye's settings from, in increasing
// priority, built-in defaults, environment variables (optionally loaded
// from a .env file), and command-line flags — the same layering the
// teacher project used for its camera settings, generalized to the
// fan-out server's CLI surface described in spec section 6.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/urfave/cli"
)

// Config holds every setting streameye's components need.
type Config struct {
	Port              uint16 `env:"PORT" envDefault:"8080"`
	ListenLocalhost   bool   `env:"LISTEN_LOCALHOST" envDefault:"false"`
	ClientReadTimeout uint32 `env:"CLIENT_READ_TIMEOUT_SEC" envDefault:"10"`
	InputSeparator    string `env:"INPUT_SEPARATOR" envDefault:""`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr       string `env:"METRICS_ADDR" envDefault:""`
	SnapshotURL       string `env:"SNAPSHOT_URL" envDefault:""`
	SnapshotFPS       int    `env:"SNAPSHOT_FPS" envDefault:"5"`
	SnapshotToken     string `env:"SNAPSHOT_TOKEN" envDefault:""`
	SnapshotCookie    string `env:"SNAPSHOT_COOKIE" envDefault:""`
}

// ListenAddr returns the address the acceptor should bind to.
func (c *Config) ListenAddr() string {
	host := "0.0.0.0"
	if c.ListenLocalhost {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}

// defaults reads environment-variable defaults, falling back to the
// envDefault tags above when a variable is unset.
func defaults() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment defaults: %w", err)
	}
	return cfg, nil
}

// App builds the urfave/cli application that parses streameye's flags
// (spec section 6) and invokes run with the resolved Config.
func App(run func(*Config) error) (*cli.App, error) {
	seed, err := defaults()
	if err != nil {
		return nil, err
	}

	cfg := seed
	app := cli.NewApp()
	app.Name = "streameye"
	app.Usage = "one-to-many MJPEG fan-out server"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "d",
			Usage: "debug log level",
		},
		cli.BoolFlag{
			Name:  "q",
			Usage: "quiet (errors only)",
		},
		cli.BoolFlag{
			Name:  "l",
			Usage: "bind to 127.0.0.1 instead of 0.0.0.0",
		},
		cli.IntFlag{
			Name:  "p",
			Value: int(seed.Port),
			Usage: "TCP port",
		},
		cli.StringFlag{
			Name:  "s",
			Value: seed.InputSeparator,
			Usage: "explicit input separator (byte string); default: auto-detect via FF D9 FF D8",
		},
		cli.IntFlag{
			Name:  "t",
			Value: int(seed.ClientReadTimeout),
			Usage: "client socket receive timeout in seconds",
		},
		cli.StringFlag{
			Name:  "metrics-addr",
			Value: seed.MetricsAddr,
			Usage: "address for an optional Prometheus /metrics listener (disabled if empty)",
		},
		cli.StringFlag{
			Name:  "snapshot-url",
			Value: seed.SnapshotURL,
			Usage: "poll this HTTP(S) URL for JPEG snapshots instead of reading stdin",
		},
		cli.IntFlag{
			Name:  "snapshot-fps",
			Value: seed.SnapshotFPS,
			Usage: "snapshot polling rate in frames per second",
		},
	}
	app.Action = func(c *cli.Context) error {
		if c.Bool("d") {
			cfg.LogLevel = "debug"
		}
		if c.Bool("q") {
			cfg.LogLevel = "quiet"
		}
		if c.Bool("l") {
			cfg.ListenLocalhost = true
		}
		cfg.Port = uint16(c.Int("p"))
		cfg.InputSeparator = c.String("s")
		cfg.ClientReadTimeout = uint32(c.Int("t"))
		cfg.MetricsAddr = c.String("metrics-addr")
		cfg.SnapshotURL = c.String("snapshot-url")
		cfg.SnapshotFPS = c.Int("snapshot-fps")
		cfg.SnapshotToken = seed.SnapshotToken
		cfg.SnapshotCookie = seed.SnapshotCookie
		return run(&cfg)
	}
	return app, nil
}
