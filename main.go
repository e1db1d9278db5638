package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/whereami-sh/whereami/geolib"
	"github.com/whereami-sh/whereami/providers"
)

var (
	cli = kingpin.New(
		"whereami",
		"Lenient multi-provider IP geolocation service")

	debug = cli.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("WHEREAMI_DEBUG").
		Bool()
	configFile = cli.Arg("config-path", "Path to the config.").
			Required().
			ExistingFile()
)

func init() {
	cli.Version("1.0.0")
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func main() {
	kingpin.MustParse(cli.Parse(os.Args[1:]))

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	conf, err := parseConfig(*configFile)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Cannot parse a config")
	}

	primaries, fallback, err := buildProviders(conf)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Cannot build providers")
	}

	engine, err := geolib.NewEngine(primaries, fallback, newLogger(), geolib.Config{
		CacheSize:      int(conf.CacheSize),
		CacheTTL:       conf.CacheTTL.Duration,
		WorkerPoolSize: int(conf.WorkerPoolSize),
		DefaultCountry: conf.DefaultCountry,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("Cannot build an engine")
	}

	defer engine.Shutdown()

	srv := &http.Server{
		Addr:    conf.GetListen(),
		Handler: makeServer(engine),
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			5*time.Second)
		defer shutdownCancel()

		srv.Shutdown(shutdownCtx) // nolint: errcheck
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zlog.Fatal().Err(err).Msg("HTTP server has failed")
	}
}

func buildProviders(conf *config) ([]geolib.Provider, geolib.Provider, error) {
	var primaries []geolib.Provider
	var fallback geolib.Provider

	for _, pc := range conf.GetProviders() {
		client := geolib.NewHTTPClient(&http.Client{},
			conf.GetUserAgent(),
			pc.GetHTTPTimeout(),
			pc.GetRateLimitInterval(),
			pc.GetRateLimitBurst(),
			pc.GetBreakerThreshold(),
			pc.GetBreakerHalfOpenTimeout(),
			pc.GetBreakerResetFailuresTimeout())

		var prov geolib.Provider

		switch pc.GetName() {
		case providers.NameIPInfo:
			prov = providers.NewIPInfo(client, pc.GetSpecificParameters())
		case providers.NameIPWhois:
			prov = providers.NewIPWhois(client)
		case providers.NameIPAPI:
			prov = providers.NewIPAPI(client)
		case providers.NameIPAPICo:
			prov = providers.NewIPAPICo(client)
		default:
			return nil, nil, fmt.Errorf("provider %s is unknown", pc.GetName())
		}

		if pc.LookupCacheSize > 0 {
			ttl := pc.LookupCacheTTL.Duration
			if ttl == 0 {
				ttl = geolib.DefaultCacheTTL
			}

			prov = geolib.NewCachingProvider(prov, pc.LookupCacheSize, ttl)
		}

		if pc.GetRole() == ProviderRoleFallback {
			fallback = prov
		} else {
			primaries = append(primaries, prov)
		}
	}

	return primaries, fallback, nil
}
