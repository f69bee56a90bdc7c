package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knachinen/darkmaptour-webscraping/app/config"
	"github.com/knachinen/darkmaptour-webscraping/app/controllers"
	"github.com/knachinen/darkmaptour-webscraping/app/services"
	"github.com/knachinen/darkmaptour-webscraping/internal/extractor"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/geocoder"
	"github.com/knachinen/darkmaptour-webscraping/internal/matcher"
	"github.com/knachinen/darkmaptour-webscraping/internal/search"
	"github.com/knachinen/darkmaptour-webscraping/routes"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

func main() {
	// 1. Load configuration
	loadConfig()

	// 2. Khởi tạo logger
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Address Matcher Service")

	appCfg, err := config.Load(viper.GetString("matcher.config"))
	if err != nil {
		logger.Warn("Cannot read matcher config, using defaults", zap.Error(err))
		appCfg = config.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Kết nối MongoDB (tùy chọn)
	var mongoDB *mongo.Database
	if viper.GetString("mongo.url") != "" {
		mongoDB = initMongoDB(ctx, logger)
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
	}

	var store services.GazetteerStore
	if mongoDB != nil {
		store = services.NewGazetteerRepository(mongoDB, logger)
	}

	// 4. Nạp gazetteer và khởi tạo matcher
	source := viper.GetString("gazetteer.source")
	gaz, err := loadGazetteer(ctx, source, store)
	if err != nil {
		logger.Fatal("Failed to load gazetteer", zap.String("source", source), zap.Error(err))
	}
	addressMatcher, err := matcher.New(gaz, appCfg.Matcher.ToMatcherConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize matcher", zap.Error(err))
	}

	// 5. Cache services
	cacheService := initCache(ctx, mongoDB, gaz.Version(), logger)
	defer cacheService.Close()

	// 6. Collaborators: LLM extractor, Nominatim geocoder
	var ext extractor.Extractor
	if viper.GetBool("llm.enabled") {
		extCfg := extractor.DefaultConfig()
		if err := viper.UnmarshalKey("llm", &extCfg); err != nil {
			logger.Fatal("Invalid llm config", zap.Error(err))
		}
		ext = extractor.NewLLMExtractor(extCfg, logger)
	}

	var geo geocoder.Geocoder
	if viper.GetBool("nominatim.enabled") {
		geoCfg := geocoder.DefaultNominatimConfig()
		if err := viper.UnmarshalKey("nominatim", &geoCfg); err != nil {
			logger.Fatal("Invalid nominatim config", zap.Error(err))
		}
		nominatim, err := geocoder.NewNominatim(geoCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Nominatim", zap.Error(err))
		}
		geo = nominatim
	}

	// 7. Meilisearch (tùy chọn)
	var index services.GazetteerIndex
	if viper.GetString("meilisearch.url") != "" {
		searchConfig := search.SearchConfig{
			Host:          viper.GetString("meilisearch.url"),
			APIKey:        viper.GetString("meilisearch.master_key"),
			IndexName:     viper.GetString("meilisearch.index"),
			Timeout:       30 * time.Second,
			MaxCandidates: 20,
		}
		gazetteerSearcher, err := search.NewGazetteerSearcher(searchConfig, logger)
		if err != nil {
			logger.Warn("Meilisearch unavailable, gazetteer search disabled", zap.Error(err))
		} else {
			index = gazetteerSearcher
		}
	}

	// 8. Khởi tạo services
	batchCfg := services.BatchConfig{
		Workers:         appCfg.Batch.Workers,
		CheckpointEvery: appCfg.Batch.CheckpointEvery,
		CheckpointDir:   appCfg.Batch.CheckpointDir,
	}
	addressService := services.NewAddressService(addressMatcher, cacheService, ext, geo, batchCfg, logger)
	adminService := services.NewAdminService(addressService, store, index, cacheService, source, logger)

	if index != nil && viper.GetBool("meilisearch.build_on_start") {
		if _, err := adminService.BuildIndexes(ctx); err != nil {
			logger.Warn("Failed to build Meilisearch indexes", zap.Error(err))
		}
	}

	// 9. Khởi tạo controllers
	env := viper.GetString("app.env")
	addressController := controllers.NewAddressController(addressService, serviceVersion, logger)
	adminController := controllers.NewAdminController(adminService, serviceVersion, env, logger)

	// 10. Khởi tạo Gin router
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 11. Thiết lập routes
	routes.SetupAllRoutes(router, addressController, adminController, logger)

	// 12. Khởi động server
	port := viper.GetString("app.port")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Address Matcher Service starting",
			zap.String("port", port),
			zap.String("gazetteer_version", gaz.Version()),
			zap.Int("gazetteer_records", gaz.Len()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

// loadConfig load configuration từ file và env vars
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("matcher.config", "config/matcher.yaml")
	viper.SetDefault("gazetteer.source", "data/address_lv0_lv4.csv")
	viper.SetDefault("meilisearch.index", "gazetteer")
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.mongo_ttl", "720h")
	viper.SetDefault("cache.l1_size", 10000)
	viper.SetDefault("redis.url", "redis://localhost:6379")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

// initLogger khởi tạo structured logger
func initLogger() *zap.Logger {
	var config zap.Config
	if viper.GetString("app.env") == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	logger, err := config.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}

	return logger
}

// initMongoDB khởi tạo kết nối MongoDB
func initMongoDB(ctx context.Context, logger *zap.Logger) *mongo.Database {
	mongoURL := viper.GetString("mongo.url")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	dbName := viper.GetString("mongo.database")
	if dbName == "" {
		dbName = "address_matcher"
	}

	db := client.Database(dbName)
	logger.Info("Connected to MongoDB", zap.String("database", dbName))

	return db
}

// loadGazetteer đọc gazetteer từ MongoDB hoặc file
func loadGazetteer(ctx context.Context, source string, store services.GazetteerStore) (*gazetteer.Gazetteer, error) {
	if source == services.SourceMongo {
		if store == nil {
			return nil, services.ErrStoreDisabled
		}
		return store.Load(ctx)
	}
	return gazetteer.LoadFile(ctx, source)
}

// initCache chọn backend cache theo cache.backend: memory, redis, hybrid (Redis + MongoDB)
func initCache(ctx context.Context, mongoDB *mongo.Database, version string, logger *zap.Logger) services.ICacheService {
	memory := func() services.ICacheService {
		cs := services.NewCacheService(viper.GetDuration("cache.ttl"))
		cs.StartCleanupWorker(10 * time.Minute)
		return cs
	}

	backend := viper.GetString("cache.backend")
	if backend == "memory" {
		return memory()
	}

	redisCache, err := services.NewRedisCacheService(viper.GetString("redis.url"), logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
		return memory()
	}
	redisCache.SetTTL(viper.GetDuration("cache.ttl"))
	if backend == "redis" || mongoDB == nil {
		return redisCache
	}

	l1Size := viper.GetInt("cache.l1_size")
	mongoCache, err := services.NewMongoCacheService(mongoDB, l1Size, logger)
	if err != nil {
		logger.Warn("MongoDB cache unavailable, using Redis only", zap.Error(err))
		return redisCache
	}
	mongoCache.SetTTL(viper.GetDuration("cache.mongo_ttl"))
	if err := mongoCache.WarmUp(ctx, version, l1Size/2); err != nil {
		logger.Warn("Failed to warm up cache", zap.Error(err))
	} else {
		logger.Info("Cache warmed up", zap.Any("l1", mongoCache.GetL1Stats()))
	}

	// Hybrid cache service (Redis L1 + MongoDB L2)
	return services.NewHybridCacheService(redisCache, mongoCache, logger)
}
