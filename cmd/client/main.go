// Package main is the HaloLight console: an interactive shell over the
// client-side stores (session, tabs, UI settings, page cache) talking to
// the auth API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halolight/console/internal/client/auth"
	"github.com/halolight/console/internal/client/cookie"
	"github.com/halolight/console/internal/client/storage"
	"github.com/halolight/console/internal/client/transport"
	"github.com/halolight/console/internal/logger"
)

var (
	version   string
	buildDate string
)

// sessionTTL bounds how long a Redis-backed session namespace survives
// an abandoned console.
const sessionTTL = 24 * time.Hour

// main parses command-line flags, wires the stores and runs the shell.
func main() {
	var (
		baseURL   string
		caFile    string
		statePath string
		redisURL  string
		offline   bool
		logLevel  string
		showVer   bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for HTTPS servers")
	flag.StringVar(&statePath, "state", "halolight-console.json", "path to the persistent state file")
	flag.StringVar(&redisURL, "redis", "", "redis URL for session-scoped state (default: in memory)")
	flag.BoolVar(&offline, "offline", false, "use the built-in mock directory instead of the server")
	flag.StringVar(&logLevel, "log-level", "warn", "log level")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("HaloLight Console\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.InitDevelopment(logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	origin, err := url.Parse(baseURL)
	if err != nil || origin.Host == "" {
		log.Log.Fatal("invalid -url", zap.String("url", baseURL))
	}

	local := storage.NewFileStore(statePath)
	log.Log.Debug("using state file", zap.String("path", local.Path()))

	mem := storage.NewMemoryStore()
	var session storage.Store = mem
	if redisURL != "" {
		rs, err := storage.NewRedisStore(redisURL, uuid.NewString(), sessionTTL)
		if err != nil {
			log.Log.Fatal("redis connection failed", zap.Error(err))
		}
		defer func() { _ = rs.Close() }()
		session = rs
	}

	jar, err := cookie.NewPersistentJar(origin, local, log.Log)
	if err != nil {
		log.Log.Fatal("failed to create cookie jar", zap.Error(err))
	}

	var dir auth.Directory = auth.MockDirectory{}
	if !offline {
		hc, err := transport.NewHTTPClient(caFile, jar)
		if err != nil {
			log.Log.Fatal("failed to create http client", zap.Error(err))
		}
		dir = auth.NewHTTPDirectory(transport.NewRestyClient(baseURL, hc))
	}

	c := newConsole(consoleDeps{
		Local:     local,
		Session:   session,
		Cookies:   cookie.New(jar, origin),
		Directory: dir,
		Log:       log.Log,
		Out:       os.Stdout,
	})
	c.run(context.Background(), os.Stdin)
	if redisURL == "" {
		log.Log.Debug("discarding session state", zap.Int("keys", mem.Len()))
	}
}
