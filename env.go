package porter

import (
	"context"
	"os"
	"time"

	"porter/internal/platform/config"
	"porter/internal/platform/logger"
	"porter/internal/platform/store"
	"porter/internal/source"
	"porter/internal/source/jsonfile"
	"porter/internal/source/pgstore"
)

// NewFromEnv assembles an Engine from PORTER_-prefixed environment
// variables and initializes logging from LOG_*.
//
//	PORTER_SOURCE             json | postgres (default json)
//	PORTER_DATA_DIR           directory holding the JSON record files (default ".")
//	PORTER_PATTERNS_FILE      pattern records file (default "patterns.json")
//	PORTER_GAZETTEERS_FILE    gazetteer records file (default "gazetteers.json")
//	PORTER_PG_URL             postgres DSN, required for the postgres source
//	PORTER_PG_MAX_CONNS       pool size cap (default pgx's)
//	PORTER_PG_LOG_SQL         trace statements through the logger (default false)
//	PORTER_PG_SLOW_MS         slow query log threshold (default off)
//	PORTER_PG_CONNECT_RETRIES boot ping attempts (default 6)
//	PORTER_PG_PING_TIMEOUT    per-ping timeout (default 5s)
//
// With the postgres source the engine owns the pool; callers should
// Close the engine when done.
func NewFromEnv(ctx context.Context) (*Engine, error) {
	logger.Init(logger.FromEnv())
	cfg := config.New().Prefix("PORTER_")

	var (
		src    source.Source
		closer func(context.Context) error
	)
	switch cfg.MayEnum("SOURCE", "json", "json", "postgres") {
	case "postgres":
		pg := cfg.Prefix("PG_")
		st, err := store.Open(ctx, store.Config{
			AppName: cfg.MayString("APP_NAME", "porter"),
			PG: store.PGConfig{
				Enabled:        true,
				URL:            pg.MustString("URL"),
				MaxConns:       int32(pg.MayInt("MAX_CONNS", 0)),
				LogSQL:         pg.MayBool("LOG_SQL", false),
				SlowQueryMs:    pg.MayInt("SLOW_MS", 0),
				ConnectRetries: pg.MayInt("CONNECT_RETRIES", 0),
				PingTimeout:    pg.MayDuration("PING_TIMEOUT", 5*time.Second),
			},
		}, store.WithLogger(*logger.Named("store")))
		if err != nil {
			return nil, err
		}
		src = pgstore.New(st.PG)
		closer = st.Close

	default:
		src = jsonfile.New(
			os.DirFS(cfg.MayString("DATA_DIR", ".")),
			cfg.MayString("PATTERNS_FILE", "patterns.json"),
			cfg.MayString("GAZETTEERS_FILE", "gazetteers.json"),
		)
	}

	eng, err := New(ctx, Config{Source: src, Log: logger.Named("porter")})
	if err != nil {
		if closer != nil {
			_ = closer(ctx)
		}
		return nil, err
	}
	eng.closer = closer
	return eng, nil
}
