package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	allBluff      bool
	bind          string
	maxPlayers    int
	phaseCooldown time.Duration
	port          int
	prefix        string
	profile       bool
	roundTimer    int
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxPlayers < 2 {
		return fmt.Errorf("invalid max player count (the game needs at least 2): %d", c.maxPlayers)
	}
	if c.roundTimer < 1 {
		return fmt.Errorf("invalid round timer (must be at least 1 second): %d", c.roundTimer)
	}
	if c.phaseCooldown < 0 {
		return fmt.Errorf("invalid phase cooldown (must not be negative): %s", c.phaseCooldown)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FIBBERY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "fibbery",
		Short:         "A moderator-less fake-definition bluffing game for your local network.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.BoolVar(&cfg.allBluff, "all-bluff", false, "no contestant receives the real definition, for playtesting (env: FIBBERY_ALL_BLUFF)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: FIBBERY_BIND)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 20, "maximum number of players in the game (env: FIBBERY_MAX_PLAYERS)")
	fs.DurationVar(&cfg.phaseCooldown, "phase-cooldown", 2*time.Second, "minimum interval between phase advances (env: FIBBERY_PHASE_COOLDOWN)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: FIBBERY_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: FIBBERY_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: FIBBERY_PROFILE)")
	fs.IntVar(&cfg.roundTimer, "round-timer", 30, "advisory per-phase countdown in seconds, shown to clients (env: FIBBERY_ROUND_TIMER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: FIBBERY_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: FIBBERY_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: FIBBERY_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: FIBBERY_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("fibbery v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
