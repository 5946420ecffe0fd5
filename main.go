package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"sheetview/adapters/excel"
	"sheetview/adapters/memory"
	"sheetview/adapters/postgres"
	"sheetview/adapters/source"
	"sheetview/internal"
	"sheetview/internal/config"
	"sheetview/internal/errors"
	"sheetview/internal/migration"
	"sheetview/internal/storage"
	"sheetview/internal/viewer"
	"sheetview/ports"
	"sheetview/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and applies the load history schema
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to ping database"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

	// Load history goes to PostgreSQL when configured, memory otherwise
	var history ports.LoadHistoryRepository
	if appConfig.Database.Enabled() {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		history = postgres.NewLoadHistoryRepository(db)
		logger.Info("[Main] load history stored in PostgreSQL (schema %s)", migration.NewRunner().Version())
	} else {
		history = memory.NewLoadHistoryRepository(memory.DefaultHistoryCapacity)
		logger.Info("[Main] DATABASE_URL not set, keeping load history in memory")
	}

	parser := excel.NewRegistry(excel.ParserConfig{
		XLSCharset:         appConfig.Parsing.XLSCharset,
		CSVFallbackCharset: appConfig.Parsing.CSVFallbackCharset,
	})
	logger.Info("[Main] decoders registered for %v", parser.Formats())

	opts := []viewer.Option{viewer.WithHistory(history), viewer.WithLogger(logger)}
	if appConfig.Uploads.Dir != "" {
		store := storage.NewLocalFileStorageWithPath(appConfig.Uploads.Dir)
		if removed, err := store.Prune(context.Background()); err != nil {
			logger.Warn("[Main] pruning %s failed: %v", appConfig.Uploads.Dir, err)
		} else if removed > 0 {
			logger.Info("[Main] pruned %d expired uploads from %s", removed, appConfig.Uploads.Dir)
		}
		opts = append(opts, viewer.WithDocumentStore(store))
	}
	v := viewer.New(parser, opts...)

	urlConfig := source.DefaultURLConfig()
	urlConfig.Timeout = appConfig.Loading.FetchTimeout
	urlConfig.AllowedHosts = appConfig.Loading.AllowedHosts
	urlConfig.AllowPrivateNetworks = appConfig.Loading.AllowPrivateNetworks
	urlConfig.MaxBytes = appConfig.Loading.MaxBytes()

	serverConfig := ui.DefaultServerConfig()
	serverConfig.MaxUploadBytes = appConfig.Loading.MaxBytes()
	serverConfig.URL = urlConfig

	server, err := ui.NewServer(v, history, serverConfig)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("Performance profiling server starting on :%s", appConfig.Profiling.Port)
			log.Printf("View profiles: go tool pprof -http=:8081 http://localhost:%s/debug/pprof/profile?seconds=30", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	log.Printf("Starting sheet viewer on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
