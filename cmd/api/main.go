package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"collateral-service/internal/adapter/external"
	httpadp "collateral-service/internal/adapter/http"
	idemp "collateral-service/internal/adapter/middleware"
	"collateral-service/internal/adapter/repository/memory"
	"collateral-service/internal/adapter/repository/mysql"
	"collateral-service/internal/config"
	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/uow"
	"collateral-service/internal/domain/valuation"
	"collateral-service/internal/infrastructure/cache"
	"collateral-service/internal/infrastructure/db"
	"collateral-service/internal/infrastructure/logging"
	"collateral-service/internal/infrastructure/telemetry"
	"collateral-service/internal/usecase/autoloan"
	collateraluc "collateral-service/internal/usecase/collateral"
	encumbranceuc "collateral-service/internal/usecase/encumbrance"
	"collateral-service/internal/usecase/reconcile"
	"collateral-service/internal/usecase/records"
)

func main() {
	if err := run(); err != nil {
		slog.Error("collateral-service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// stores is the persistence chosen by DB_DRIVER.
type stores struct {
	uow          uow.UnitOfWork
	collaterals  collateral.Repository
	encumbrances encumbrance.Repository
	valuations   valuation.RecordRepository
	titles       title.RecordRepository
	checks       []httpadp.Check
	close        func() error
}

func openStores(cfg *config.Config, log *slog.Logger) (*stores, error) {
	if cfg.DBDriver == config.DriverMemory {
		s := memory.NewStore()
		return &stores{
			uow:          memory.NewUoW(s),
			collaterals:  memory.NewCollateralRepository(s),
			encumbrances: memory.NewEncumbranceRepository(s),
			valuations:   memory.NewValuationRecordRepository(s),
			titles:       memory.NewTitleRecordRepository(s),
			close:        func() error { return nil },
		}, nil
	}

	dsn := cfg.MySQLDSN()
	if cfg.DBDriver == config.DriverSQLite {
		dsn = cfg.SQLitePath
	}
	gdb, err := db.OpenGorm(db.Options{
		Driver: cfg.DBDriver,
		DSN:    dsn,
		Debug:  cfg.LogLevel == "debug",
		Log:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	return &stores{
		uow:          mysql.NewGormUoW(gdb),
		collaterals:  mysql.NewCollateralRepository(gdb),
		encumbrances: mysql.NewEncumbranceRepository(gdb),
		valuations:   mysql.NewValuationRecordRepository(gdb),
		titles:       mysql.NewTitleRecordRepository(gdb),
		checks:       []httpadp.Check{{Name: "database", Ping: sqlDB.PingContext}},
		close:        sqlDB.Close,
	}, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer logCloser.Close()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, shutdownTracing, err := telemetry.Init(ctx, telemetry.Options{Stdout: cfg.TracingStdout})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	rec := reconcile.New(st.uow,
		reconcile.WithTimeout(cfg.OperationTimeout()),
		reconcile.WithLogger(log),
	)

	colOpts := []collateraluc.Option{collateraluc.WithLogger(log), collateraluc.WithTitleRecords(st.titles)}
	autoOpts := []autoloan.Option{autoloan.WithLogger(log)}
	if cfg.ValuationBaseURL != "" {
		v := external.NewValuationClient(external.Config{
			BaseURL: cfg.ValuationBaseURL,
			Timeout: time.Duration(cfg.ValuationTimeoutSecs) * time.Second,
			RPS:     cfg.ProviderRPS,
			Burst:   int(cfg.ProviderRPS) + 1,
		})
		colOpts = append(colOpts, collateraluc.WithValuationProvider(v))
		autoOpts = append(autoOpts, autoloan.WithValuationProvider(v))
	}
	if cfg.TitleBaseURL != "" {
		colOpts = append(colOpts, collateraluc.WithTitleRegistry(external.NewTitleClient(external.Config{
			BaseURL: cfg.TitleBaseURL,
			Timeout: time.Duration(cfg.TitleTimeoutSecs) * time.Second,
			RPS:     cfg.ProviderRPS,
			Burst:   int(cfg.ProviderRPS) + 1,
		})))
	}

	colUC := collateraluc.NewUsecase(rec, st.collaterals, colOpts...)
	encUC := encumbranceuc.NewUsecase(rec, st.encumbrances,
		encumbranceuc.WithLogger(log),
		encumbranceuc.WithSweepConcurrency(cfg.SweepConcurrency),
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.RequestID(), middleware.Logger(), middleware.Recover())

	checks := st.checks
	var mutating []echo.MiddlewareFunc
	if cfg.IdempEnabled {
		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		checks = append(checks, httpadp.Check{Name: "redis", Ping: cache.Ping(rdb)})
		mutating = append(mutating, idemp.Idempotency(rdb, idemp.Config{TTL: cfg.IdempotencyTTL()}, log))
	}

	httpadp.Routes{
		Health:       httpadp.NewHandler(checks...),
		Collaterals:  httpadp.NewCollateralHandler(colUC),
		Encumbrances: httpadp.NewEncumbranceHandler(encUC),
		AutoLoan:     httpadp.NewAutoLoanHandler(autoloan.NewEngine(autoOpts...)),
		Records:      httpadp.NewRecordsHandler(records.NewUsecase(rec, st.valuations, st.titles, records.WithLogger(log))),
	}.Register(e, mutating...)

	go encUC.RunExpirySweeper(ctx, cfg.ExpirySweepInterval())

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", addr), slog.String("db_driver", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
