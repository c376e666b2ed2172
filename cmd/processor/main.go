package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/usecase"
	"github.com/veersingh9540/DocumentDigitization-v1/internal/repository/ocr"
	psqlRepo "github.com/veersingh9540/DocumentDigitization-v1/internal/repository/psql"
	"github.com/veersingh9540/DocumentDigitization-v1/internal/repository/rabbitmq"
	s3Repo "github.com/veersingh9540/DocumentDigitization-v1/internal/repository/s3"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/client/psql"
	s3Client "github.com/veersingh9540/DocumentDigitization-v1/pkg/client/s3"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/logger"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/utils"
)

type Config struct {
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

	OCREndpoint    string
	OCRAPIKey      string
	OCRTimeout     time.Duration
	OCRPollTimeout time.Duration

	WatchPrefix   string
	WatchSuffixes []string
	KeepUnmapped  bool

	LogMode string
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

	psqlPort, err := strconv.Atoi(mustGetEnv("PSQL_PORT"))
	if err != nil {
		log.Fatalf("Invalid PSQL_PORT value: %v", err)
	}

	rmqUser := mustGetEnv("RABBITMQ_USER")
	rmqPassword := mustGetEnv("RABBITMQ_PASSWORD")
	rmqHost := mustGetEnv("RABBITMQ_HOST")
	rmqPort := mustGetEnv("RABBITMQ_PORT")
	rabbitMQURL := "amqp://" + rmqUser + ":" + rmqPassword + "@" + rmqHost + ":" + rmqPort + "/"

	ocrTimeout := 30 * time.Second
	if raw := os.Getenv("OCR_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("Invalid OCR_TIMEOUT_SECONDS value: %v", err)
		}
		ocrTimeout = time.Duration(secs) * time.Second
	}

	ocrPollTimeout := 2 * time.Minute
	if raw := os.Getenv("OCR_POLL_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("Invalid OCR_POLL_TIMEOUT_SECONDS value: %v", err)
		}
		ocrPollTimeout = time.Duration(secs) * time.Second
	}

	suffixes := []string{".pdf", ".png", ".jpg", ".jpeg", ".tiff"}
	if raw := os.Getenv("WATCH_SUFFIXES"); raw != "" {
		suffixes = strings.Split(raw, ",")
	}

	return Config{
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

		OCREndpoint:    mustGetEnv("OCR_ENDPOINT"),
		OCRAPIKey:      os.Getenv("OCR_API_KEY"),
		OCRTimeout:     ocrTimeout,
		OCRPollTimeout: ocrPollTimeout,

		WatchPrefix:   os.Getenv("WATCH_PREFIX"),
		WatchSuffixes: suffixes,
		KeepUnmapped:  os.Getenv("KEEP_UNMAPPED_FIELDS") == "true",

		LogMode: os.Getenv("LOG_MODE"),
	}
}

func main() {
	cfg := loadConfig()

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

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

	storage, err := s3Client.NewS3Client(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3SourceBucket, cfg.S3ProcessedBucket, cfg.S3UseSSL)
	if err != nil {
		logg.Fatal("failed to init s3 client", "error", err)
	}
	storageRepo := s3Repo.NewS3Repo(storage)

	extractor := ocr.NewClient(ocr.Config{
		BaseURL:     cfg.OCREndpoint,
		APIKey:      cfg.OCRAPIKey,
		Timeout:     cfg.OCRTimeout,
		PollTimeout: cfg.OCRPollTimeout,
	})

	ingestUC := usecase.NewIngestUseCase(docRepo, storageRepo, extractor, usecase.IngestConfig{
		WatchPrefix:   cfg.WatchPrefix,
		WatchSuffixes: cfg.WatchSuffixes,
		Mapper:        utils.MapperConfig{KeepUnmapped: cfg.KeepUnmapped},
	}, logg)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logg.Fatal("failed to connect to rabbitmq", "error", err)
	}
	defer conn.Close()

	consumer, err := rabbitmq.NewEventConsumer(conn, "documents.exchange", "documents.uploaded", "documents.uploaded.q", ingestUC, logg)
	if err != nil {
		logg.Fatal("failed to init consumer", "error", err)
	}

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logg.Fatal("consumer stopped with error", "error", err)
		}
	}()

	logg.Info("document processor started")
	<-sigCh
	logg.Info("shutting down document processor")
	cancel()
	time.Sleep(time.Second)
}
