/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/senryu/room"
	"github.com/Seednode/senryu/senryu"
	"github.com/Seednode/senryu/store"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func humanReadableSize(bytes int) string {
	const unit = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "kMGTPE"[exp])
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("senryu v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Version page (%s) to %s in %s",
			humanReadableSize(written),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// newBackend opens the room repository and leaderboard selected by --store.
// The returned func releases any connection they hold.
func newBackend(cfg *Config) (store.Repository, store.Leaderboard, func(), error) {
	if cfg.store == storeMemory {
		logf(cfg, "STORE: Keeping rooms in memory; they will not survive a restart")

		return store.NewMemory(), store.NewMemoryLeaderboard(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	})

	repo, err := store.NewRedis(&store.Config{RedisClient: client, TTL: cfg.roomTTL})
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}

	leaderboard, err := store.NewRedisLeaderboard(&store.Config{RedisClient: client})
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}

	logf(cfg, "STORE: Keeping rooms in redis at %s (db %d) for %s", cfg.redisAddr, cfg.redisDB, cfg.roomTTL)

	return repo, leaderboard, func() { _ = client.Close() }, nil
}

func loadPools(cfg *Config) (senryu.PoolProvider, error) {
	if cfg.cards == "" {
		return senryu.DefaultPools(), nil
	}

	pools, err := senryu.LoadPools(cfg.cards)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards from %s: %w", cfg.cards, err)
	}

	logf(cfg, "CARDS: Loaded %d/%d/%d cards from %s",
		len(pools.Upper), len(pools.Middle), len(pools.Lower), cfg.cards)

	return pools, nil
}

func newRouter(cfg *Config, manager *room.Manager, errs chan<- error) *httprouter.Router {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		securityHeaders(cfg, w)
		writeError(cfg, w, r, fmt.Errorf("panic: %v", i))
	}

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	mux.GET(cfg.prefix+"/api/stats", serveStats(cfg, manager, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	registerSenryu(cfg, manager, mux, errs)

	return mux
}

func ServePage(ctx context.Context, cfg *Config, args []string) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: senryu v%s", releaseVersion)

	pools, err := loadPools(cfg)
	if err != nil {
		return err
	}

	repo, leaderboard, closeBackend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	manager, err := room.NewManager(&room.Config{
		Repository:  repo,
		Leaderboard: leaderboard,
		Pools:       pools,
		Logger:      roomLogger{cfg: cfg},
		IdleTimeout: cfg.sessionTimeout,
		Seed:        cfg.seed,
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	errs := make(chan error, 64)
	go func() {
		for err := range errs {
			logf(cfg, "ERROR: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           newRouter(cfg, manager, errs),
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	go func() {
		var err error
		logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("%s | ERROR: %v\n", time.Now().Format(logDate), err)
		}
	}()

	<-ctx.Done()

	logf(cfg, "STOP: Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
