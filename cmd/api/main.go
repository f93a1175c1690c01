package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shinwari-dera/backend-pos/internal/app"
	"github.com/shinwari-dera/backend-pos/internal/auth"
	"github.com/shinwari-dera/backend-pos/internal/common"
	"github.com/shinwari-dera/backend-pos/internal/config"
	"github.com/shinwari-dera/backend-pos/internal/events"
	"github.com/shinwari-dera/backend-pos/internal/expense"
	"github.com/shinwari-dera/backend-pos/internal/health"
	"github.com/shinwari-dera/backend-pos/internal/inventory"
	"github.com/shinwari-dera/backend-pos/internal/lock"
	"github.com/shinwari-dera/backend-pos/internal/menu"
	"github.com/shinwari-dera/backend-pos/internal/obs"
	"github.com/shinwari-dera/backend-pos/internal/order"
	"github.com/shinwari-dera/backend-pos/internal/pricing"
	"github.com/shinwari-dera/backend-pos/internal/queue"
	"github.com/shinwari-dera/backend-pos/internal/ratelimit"
	"github.com/shinwari-dera/backend-pos/internal/reports"
	"github.com/shinwari-dera/backend-pos/internal/security"
	"github.com/shinwari-dera/backend-pos/internal/sequence"
	"github.com/shinwari-dera/backend-pos/internal/staff"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "dera")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pos-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.AutoMigrate {
		if err := app.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Str("dir", cfg.MigrationsDir).Msg("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "pos-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()
	rates := pricing.Rates{
		TaxPercent:           cfg.TaxRatePercent,
		ServiceChargePercent: cfg.ServiceChargeRatePercent,
	}

	bus := &events.Bus{
		Store:     &events.PGStore{Pool: pool},
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	menuSvc := &menu.Service{
		Store: &menu.Store{Pool: pool},
		Cache: menu.NewCache(redisClient, cfg.MenuCacheTTL),
	}
	menuHandler := &menu.Handler{Service: menuSvc, Validate: validate}

	inventorySvc := &inventory.Service{
		Store:   &inventory.PGStore{Pool: pool},
		Locks:   lock.Locker{R: redisClient},
		Authz:   auth.ContextAuthorizer{},
		Events:  bus,
		LockTTL: cfg.InventoryLockTTL,
	}
	inventoryHandler := &inventory.Handler{Service: inventorySvc, Validate: validate}

	counter := sequence.Counter{Pool: pool}
	enqueuer := queue.Enqueuer{R: redisClient, Prefix: cfg.QueueRedisPrefix, DedupTTL: cfg.IdempotencyTTL, MaxAttempts: cfg.QueueMaxAttempts}
	orderSvc := &order.Service{
		Store:           &order.PGStore{Pool: pool, Counter: counter},
		Menu:            menuSvc,
		Events:          bus,
		Queue:           enqueuer,
		Rates:           rates,
		RecipeDeduction: cfg.RecipeDeduction,
		Log:             logger,
	}
	orderHandler := &order.Handler{Service: orderSvc, Counter: counter}

	authService, err := auth.NewService(auth.Config{
		Store:          &auth.PGStore{Pool: pool},
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Service: authService, Validate: validate}
	authMiddleware := auth.Middleware{Service: authService}

	staffSvc := &staff.Service{Store: &staff.PGStore{Pool: pool}, Sessions: authService}
	staffHandler := &staff.Handler{Service: staffSvc}

	expenseSvc := &expense.Service{Store: &expense.PGStore{Pool: pool}, Events: bus}
	expenseHandler := &expense.Handler{Service: expenseSvc}

	reportsSvc := &reports.Service{Q: &reports.PGStore{Pool: pool}, R: redisClient, TTL: cfg.ReportsCacheTTL}
	reportsHandler := &reports.Handler{Svc: reportsSvc}

	queueStore := queue.NewStore(pool)
	queueAdmin := &queue.AdminHandler{
		Store:             queueStore,
		Queue:             enqueuer,
		Logger:            logger,
		VisibilityTimeout: cfg.QueueVisibilityTO,
	}

	apiLimit, err := app.NewAPILimiter(redisClient, cfg.APIRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise api rate limiter")
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	loginLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:login:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: cfg.LoginRatePeriod,
			Max:    int(cfg.LoginRateLimit),
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("login rate limiter") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:     envBool("SECURE_HEADERS_ENABLED", true),
		EnableHSTS: envBool("SECURE_HSTS_ENABLED", false),
	}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("SECURE_MAX_BODY_BYTES", 1<<20))}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(apiLimit)

		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimit.Middleware).Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/menu", func(m chi.Router) {
			m.Use(authMiddleware.RequireAuth)
			m.Get("/", menuHandler.List)
			m.Get("/categories", menuHandler.Categories)
			m.Get("/{id}", menuHandler.Get)
			m.Group(func(g chi.Router) {
				g.Use(authMiddleware.RequirePermission(staff.PermManageMenu))
				g.Put("/", menuHandler.Save)
				g.Patch("/{id}/availability", menuHandler.SetAvailability)
			})
		})

		v.Route("/orders", func(o chi.Router) {
			o.Use(authMiddleware.RequirePermission(staff.PermAccessPOS))
			o.With(idem.Middleware).Post("/", orderHandler.Create)
			o.Get("/", orderHandler.List)
			o.Get("/next-number", orderHandler.NextNumber)
			o.Get("/{id}", orderHandler.Get)
			o.Patch("/{id}/status", orderHandler.UpdateStatus)
		})

		v.Route("/inventory", func(i chi.Router) {
			i.Use(authMiddleware.RequireAuth)
			i.Get("/", inventoryHandler.List)
			i.Get("/low-stock", inventoryHandler.LowStock)
			i.Get("/transactions", inventoryHandler.Transactions)
			i.Get("/purchases", inventoryHandler.Purchases)
			i.Get("/{id}", inventoryHandler.Get)
			// Adjustment authorization is enforced by the ledger's policy,
			// not the router, so API consumers get a consistent error shape.
			i.Post("/{id}/adjust", inventoryHandler.Adjust)
			i.Group(func(g chi.Router) {
				g.Use(authMiddleware.RequirePermission(staff.PermManageInventory))
				g.Post("/", inventoryHandler.Create)
				g.With(idem.Middleware).Post("/purchases", inventoryHandler.RecordPurchase)
			})
		})

		v.Route("/staff", func(st chi.Router) {
			st.Use(authMiddleware.RequireAuth)
			st.Post("/attendance", staffHandler.MarkAttendance)
			st.Get("/attendance", staffHandler.ListAttendance)
			st.Group(func(g chi.Router) {
				g.Use(authMiddleware.RequirePermission(staff.PermManageSettings))
				g.Get("/", staffHandler.List)
				g.Post("/", staffHandler.Create)
				g.Get("/{id}", staffHandler.Get)
				g.Put("/{id}", staffHandler.Update)
				g.Patch("/{id}/active", staffHandler.SetActive)
				g.Patch("/{id}/pin", staffHandler.SetPIN)
			})
		})

		v.Route("/expenses", func(e chi.Router) {
			e.Use(authMiddleware.RequirePermission(staff.PermManageExpenses))
			e.Post("/", expenseHandler.Record)
			e.Get("/", expenseHandler.List)
		})

		v.Route("/reports", func(rp chi.Router) {
			rp.Use(authMiddleware.RequirePermission(staff.PermViewReports))
			rp.Get("/sales", reportsHandler.Sales)
			rp.Get("/sales/export", reportsHandler.ExportSalesCSV)
			rp.Get("/top-items", reportsHandler.TopItems)
			rp.Get("/expenses", reportsHandler.Expenses)
			rp.Get("/expenses/export", reportsHandler.ExportExpensesCSV)
		})

		v.Route("/admin/queue", func(q chi.Router) {
			q.Use(authMiddleware.RequirePermission(staff.PermManageSettings))
			q.Get("/dlq", queueAdmin.ListDLQ)
			q.Post("/dlq/{id}/replay", queueAdmin.ReplayDLQ)
			q.Get("/stats", queueAdmin.Stats)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
