package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	v1 "github.com/veersingh9540/DocumentDigitization-v1/internal/controller/http/v1"
	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/usecase"
	psqlRepo "github.com/veersingh9540/DocumentDigitization-v1/internal/repository/psql"
	"github.com/veersingh9540/DocumentDigitization-v1/internal/repository/rabbitmq"
	redisRepo "github.com/veersingh9540/DocumentDigitization-v1/internal/repository/redis"
	s3Repo "github.com/veersingh9540/DocumentDigitization-v1/internal/repository/s3"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/client/psql"
	redisClient "github.com/veersingh9540/DocumentDigitization-v1/pkg/client/redis"
	s3Client "github.com/veersingh9540/DocumentDigitization-v1/pkg/client/s3"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/logger"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/middleware"
)

type Config struct {
	RedisAddr string
	RedisDB   int

	PSQLHost     string
	PSQLPort     int
	PSQLUser     string
	PSQLPassword string
	PSQLDBName   string
	PSQLSSLMode  string

	S3Endpoint        string
	S3SourceBucket    string
	S3ProcessedBucket string
	S3AccessKey       string
	S3SecretKey       string
	S3UseSSL          bool

	RabbitMQURL string

	HTTPPort string
	LogMode  string
}

func loadConfig() Config {
	if err := godotenv.Load("./.env.local"); err != nil {
		log.Println("No .env file found. Falling back to OS environment variables.")
	}
	mustGetEnv := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			log.Fatalf("Environment variable %s is not set", key)
		}
		return val
	}

	redisHost := mustGetEnv("REDIS_HOST")
	redisPort := mustGetEnv("REDIS_PORT")
	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0"
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		log.Fatalf("Invalid REDIS_DB value: %v", err)
	}

	psqlPort, err := strconv.Atoi(mustGetEnv("PSQL_PORT"))
	if err != nil {
		log.Fatalf("Invalid PSQL_PORT value: %v", err)
	}

	rmqUser := mustGetEnv("RABBITMQ_USER")
	rmqPassword := mustGetEnv("RABBITMQ_PASSWORD")
	rmqHost := mustGetEnv("RABBITMQ_HOST")
	rmqPort := mustGetEnv("RABBITMQ_PORT")
	rabbitMQURL := "amqp://" + rmqUser + ":" + rmqPassword + "@" + rmqHost + ":" + rmqPort + "/"

	httpPort := os.Getenv("HTTP_PORT")
	if httpPort == "" {
		httpPort = "8080"
	}

	return Config{
		RedisAddr: redisHost + ":" + redisPort,
		RedisDB:   redisDB,

		PSQLHost:     mustGetEnv("PSQL_HOST"),
		PSQLPort:     psqlPort,
		PSQLUser:     mustGetEnv("PSQL_USER"),
		PSQLPassword: mustGetEnv("PSQL_PASSWORD"),
		PSQLDBName:   mustGetEnv("PSQL_DB"),
		PSQLSSLMode:  mustGetEnv("PSQL_SSLMODE"),

		S3Endpoint:        mustGetEnv("S3_HOST") + ":" + mustGetEnv("S3_PORT"),
		S3SourceBucket:    mustGetEnv("S3_SOURCE_BUCKET"),
		S3ProcessedBucket: mustGetEnv("S3_PROCESSED_BUCKET"),
		S3AccessKey:       mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey:       mustGetEnv("S3_SECRET_KEY"),
		S3UseSSL:          os.Getenv("S3_USE_SSL") == "true",

		RabbitMQURL: rabbitMQURL,

		HTTPPort: httpPort,
		LogMode:  os.Getenv("LOG_MODE"),
	}
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logg.Sync()

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	redisCli, err := redisClient.NewRedisClient(ctx, redisClient.Config{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err != nil {
		logg.Fatal("failed to connect to redis", "error", err)
	}

	r.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RedisClient: redisCli,
		Limit:       10,
		Window:      time.Second,
		KeyPrefix:   "rl:",
	}))

	db, err := psql.NewPostgresDB(psql.Config{
		Host:     cfg.PSQLHost,
		User:     cfg.PSQLUser,
		Password: cfg.PSQLPassword,
		DBName:   cfg.PSQLDBName,
		Port:     cfg.PSQLPort,
		SslMode:  cfg.PSQLSSLMode,
	})
	if err != nil {
		logg.Fatal("failed to connect to postgres", "error", err)
	}

	if err := db.AutoMigrate(&entity.DocumentMetadata{}, &entity.DocumentField{}); err != nil {
		logg.Fatal("failed to migrate schema", "error", err)
	}

	docRepo := psqlRepo.NewGormDocumentRepo(db)
	statsCache := redisRepo.NewStatsCache(redisCli, 30*time.Second)

	storage, err := s3Client.NewS3Client(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3SourceBucket, cfg.S3ProcessedBucket, cfg.S3UseSSL)
	if err != nil {
		logg.Fatal("failed to init s3 client", "error", err)
	}
	storageRepo := s3Repo.NewS3Repo(storage)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logg.Fatal("failed to connect to rabbitmq", "error", err)
	}
	defer conn.Close()

	eventPublisher, err := rabbitmq.NewPublisher(conn, "documents.exchange", "documents.uploaded")
	if err != nil {
		logg.Fatal("failed to init publisher", "error", err)
	}

	queryUC := usecase.NewQueryUseCase(docRepo, storageRepo, statsCache, eventPublisher, logg)
	handler := v1.NewDocumentHandler(queryUC)

	handler.Register(r.Group("/api/v1"))

	logg.Info("dashboard gateway started", "port", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		logg.Fatal("http server stopped", "error", err)
	}
}
