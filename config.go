package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind            string
	chatBurst       int
	chatRate        float64
	guessTimeout    time.Duration
	playerTimeout   time.Duration
	port            int
	prefix          string
	profile         bool
	resultCountdown time.Duration
	sessionTimeout  time.Duration
	tlsCert         string
	tlsKey          string
	turnDelay       time.Duration
	verbose         bool
	version         bool
	voteTimeout     time.Duration
	words           string

	logger zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}

	for name, d := range map[string]time.Duration{
		"player-timeout":   c.playerTimeout,
		"session-timeout":  c.sessionTimeout,
		"vote-timeout":     c.voteTimeout,
		"guess-timeout":    c.guessTimeout,
		"turn-delay":       c.turnDelay,
		"result-countdown": c.resultCountdown,
	} {
		if d < 0 {
			return fmt.Errorf("invalid --%s (must not be negative): %s", name, d)
		}
	}

	if c.chatRate <= 0 {
		return fmt.Errorf("invalid --chat-rate (must be positive): %v", c.chatRate)
	}
	if c.chatBurst < 1 {
		return fmt.Errorf("invalid --chat-burst (must be at least 1): %d", c.chatBurst)
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
	v.SetEnvPrefix("LIARGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "liargame",
		Short:         "A room-based party game where everyone knows the secret word except the liar.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			cfg.logger = newLogger(cfg, cmd.ErrOrStderr())

			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: LIARGAME_BIND)")
	fs.IntVar(&cfg.chatBurst, "chat-burst", 10, "messages a connection may send in a burst (env: LIARGAME_CHAT_BURST)")
	fs.Float64Var(&cfg.chatRate, "chat-rate", 5, "sustained messages per second allowed per connection (env: LIARGAME_CHAT_RATE)")
	fs.DurationVar(&cfg.guessTimeout, "guess-timeout", 20*time.Second, "time the liar has to guess the word (env: LIARGAME_GUESS_TIMEOUT)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 30*time.Second, "time before disconnected players are removed (env: LIARGAME_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: LIARGAME_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: LIARGAME_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: LIARGAME_PROFILE)")
	fs.DurationVar(&cfg.resultCountdown, "result-countdown", 10*time.Second, "time before a finished round restarts on its own, 0 to disable (env: LIARGAME_RESULT_COUNTDOWN)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: LIARGAME_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: LIARGAME_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: LIARGAME_TLS_KEY)")
	fs.DurationVar(&cfg.turnDelay, "turn-delay", time.Second, "pause between one speaker and the next (env: LIARGAME_TURN_DELAY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LIARGAME_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: LIARGAME_VERSION)")
	fs.DurationVar(&cfg.voteTimeout, "vote-timeout", 20*time.Second, "time players have to vote (env: LIARGAME_VOTE_TIMEOUT)")
	fs.StringVar(&cfg.words, "words", "", "yaml, json or toml file of word categories to use instead of the built-in list (env: LIARGAME_WORDS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("liargame v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
