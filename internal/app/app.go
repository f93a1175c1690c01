// Package app carries startup plumbing shared by the entrypoints: schema
// migrations and the API-wide rate limiter.
package app

import (
	"errors"
	"net/http"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Migrate applies pending schema migrations from dir against databaseURL.
// A missing migrations directory or an up-to-date schema is not an error.
func Migrate(databaseURL, dir string) error {
	if dir == "" {
		return errors.New("migrations dir is empty")
	}
	m, err := migrate.New("file://"+dir, migrateURL(databaseURL))
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// migrateURL rewrites a pgx connection URL to the scheme the migrate pgx/v5
// driver registers under.
func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}

// NewAPILimiter builds a coarse per-IP middleware for the whole API surface.
// The rate uses the "<count>-<period>" notation, e.g. "300-M". Login gets its
// own tighter limiter on top of this one.
func NewAPILimiter(rdb *redis.Client, formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "rl:api"})
	if err != nil {
		return nil, err
	}
	mw := limiterstdlib.NewMiddleware(limiter.New(store, rate, limiter.WithTrustForwardHeader(true)))
	return mw.Handler, nil
}
