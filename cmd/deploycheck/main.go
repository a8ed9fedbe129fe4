// Command deploycheck verifies that the current environment can run the
// server. It exits non-zero when any check fails.
package main

import (
	"context"
	"os"
	"runtime"

	adapthttp "travelbuddy/internal/adapter/http"
	"travelbuddy/internal/config"
	"travelbuddy/internal/deploycheck"
)

func main() {
	path := config.Path()

	// The config check reports load errors; the remaining checks fall back
	// to defaults so they still run.
	cfg, loadErr := config.Load(path)
	if cfg == nil {
		cfg = config.Default()
	}

	var dsn, redisURL string
	if cfg.Storage.Backend == config.BackendPostgres {
		dsn = cfg.Storage.DatabaseURL
	}
	if cfg.Sessions.Backend == config.BackendRedis {
		redisURL = cfg.Redis.URL
	}

	r := &deploycheck.Runner{
		Out: os.Stdout,
		Checks: []deploycheck.Check{
			deploycheck.GoVersion(runtime.Version(), cfg.Deploy.MinGoVersion),
			deploycheck.ConfigLoads(func() error { return loadErr }),
			deploycheck.SettingsContain(cfg.Deploy.SettingsFile, cfg.Deploy.RequiredSettings),
			deploycheck.FilesExist(cfg.Deploy.RequiredFiles),
			deploycheck.Database(dsn),
			deploycheck.StaticAssets(adapthttp.StaticFS(), cfg.Deploy.StaticAssets),
			deploycheck.Redis(redisURL),
		},
	}
	if !r.Run(context.Background()).OK() {
		os.Exit(1)
	}
}
