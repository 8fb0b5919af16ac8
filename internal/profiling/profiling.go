// Package profiling provides opt-in pprof and Pyroscope profiling. Both are
// disabled unless their environment variables are set, so production builds
// carry no overhead by default.
package profiling

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
)

// StartPprofServer starts the pprof server on a separate localhost-only port
// when ENABLE_PROFILING=true. PPROF_PORT overrides the default 6060.
func StartPprofServer(log logger.Logger) {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = "6060"
	}

	// Bind to localhost only; profiles are never exposed externally.
	addr := "localhost:" + port

	go func() {
		log.Info("Starting pprof server", logger.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("pprof server stopped", logger.Error(err))
		}
	}()
}

// Profiler holds the Pyroscope profiler instance.
type Profiler struct {
	profiler *pyroscope.Profiler
}

// StartPyroscope starts continuous profiling when
// ENABLE_CONTINUOUS_PROFILING=true. Server address and environment tag come
// from PYROSCOPE_SERVER_URL and PYROSCOPE_ENVIRONMENT. Returns nil with no
// error when disabled.
func StartPyroscope(serviceName, version string, log logger.Logger) (*Profiler, error) {
	if os.Getenv("ENABLE_CONTINUOUS_PROFILING") != "true" {
		return nil, nil
	}

	serverURL := os.Getenv("PYROSCOPE_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://pyroscope:4040"
	}

	environment := os.Getenv("PYROSCOPE_ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	cfg := pyroscope.Config{
		ApplicationName: fmt.Sprintf("harare-metro.%s", serviceName),
		ServerAddress:   serverURL,
		Logger:          nil,

		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},

		Tags: map[string]string{
			"environment": environment,
			"version":     version,
			"hostname":    getHostname(),
			"go_version":  runtime.Version(),
		},
	}

	profiler, err := pyroscope.Start(cfg)
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}

	log.Info("Pyroscope continuous profiling started",
		logger.String("application", cfg.ApplicationName),
		logger.String("server", serverURL),
		logger.String("environment", environment),
	)
	return &Profiler{profiler: profiler}, nil
}

// Stop gracefully stops the profiler. Safe to call on a nil receiver.
func (p *Profiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
