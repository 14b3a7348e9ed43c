package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/senryu/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	storeRedis  = "redis"
	storeMemory = "memory"
)

type Config struct {
	bind           string
	cards          string
	port           int
	prefix         string
	profile        bool
	rateLimit      float64
	redisAddr      string
	redisDB        int
	redisPassword  string
	roomTTL        time.Duration
	seed           int64
	sessionTimeout time.Duration
	store          string
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.store != storeRedis && c.store != storeMemory {
		return fmt.Errorf("invalid store (must be %q or %q): %s", storeRedis, storeMemory, c.store)
	}
	if c.store == storeRedis && c.redisAddr == "" {
		return errors.New("--redis-addr is required when --store=redis")
	}
	if c.redisDB < 0 {
		return fmt.Errorf("invalid redis database: %d", c.redisDB)
	}
	if c.roomTTL <= 0 {
		return fmt.Errorf("invalid room ttl (must be positive): %s", c.roomTTL)
	}
	if c.rateLimit < 0 {
		return fmt.Errorf("invalid rate limit (must not be negative): %v", c.rateLimit)
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
	v.SetEnvPrefix("SENRYU")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "senryu",
		Short:         "Game server for Senryu, a party game of mix-and-match haiku.",
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

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SENRYU_BIND)")
	fs.StringVar(&cfg.cards, "cards", "", "path to a json file of card pools, replacing the built-in set (env: SENRYU_CARDS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SENRYU_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SENRYU_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SENRYU_PROFILE)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 10, "messages per second accepted from each connection, 0 to disable (env: SENRYU_RATE_LIMIT)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "localhost:6379", "redis server address (env: SENRYU_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database number (env: SENRYU_REDIS_DB)")
	fs.StringVar(&cfg.redisPassword, "redis-password", "", "redis password (env: SENRYU_REDIS_PASSWORD)")
	fs.DurationVar(&cfg.roomTTL, "room-ttl", store.DefaultTTL, "time an untouched room is kept in redis (env: SENRYU_ROOM_TTL)")
	fs.Int64Var(&cfg.seed, "seed", 0, "seed for dealing cards, 0 for random (env: SENRYU_SEED)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are unloaded from memory (env: SENRYU_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.store, "store", storeRedis, "where rooms are kept: redis or memory (env: SENRYU_STORE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SENRYU_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SENRYU_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SENRYU_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SENRYU_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("senryu v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
