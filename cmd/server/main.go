package main

import (
	eventspkg "labreserve/internal/events"
	labshandler "labreserve/internal/labs/handler"
	labsrepository "labreserve/internal/labs/repository"
	labsservice "labreserve/internal/labs/service"
	labsvalidator "labreserve/internal/labs/validator"
	reservationshandler "labreserve/internal/reservations/handler"
	reservationsrepository "labreserve/internal/reservations/repository"
	reservationsservice "labreserve/internal/reservations/service"
	reservationsvalidator "labreserve/internal/reservations/validator"
	rosterhandler "labreserve/internal/roster/handler"
	rosterservice "labreserve/internal/roster/service"
	schoolshandler "labreserve/internal/schools/handler"
	schoolsrepository "labreserve/internal/schools/repository"
	schoolsservice "labreserve/internal/schools/service"
	schoolsvalidator "labreserve/internal/schools/validator"
	"labreserve/pkg/app"
	"labreserve/pkg/config"
	"labreserve/pkg/contracts"
	"labreserve/pkg/kafka"
	kafkaconfig "labreserve/pkg/kafka/config"
)

const ServiceName = "labreserve"

func main() {
	cfg := config.Load(ServiceName)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	// Log all configuration values
	cfg.LogConfiguration()

	cfg.Log.Info("Starting labreserve service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	publisher := initPublisher(cfg)
	defer publisher.Close()

	handlers := initHandlers(cfg, publisher)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handlers...)
	serverApp.Run()
}

func initPublisher(cfg *config.Config) *eventspkg.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, reservation events will not be published")
		return eventspkg.NewPublisher(nil, cfg.Log)
	}

	producer, err := kafka.NewProducer(kafkaconfig.Load(), cfg.KafkaTopic, cfg.KafkaDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	cfg.Log.Info("Kafka producer initialized", "topic", cfg.KafkaTopic)
	return eventspkg.NewPublisher(producer, cfg.Log)
}

func initHandlers(cfg *config.Config, publisher *eventspkg.Publisher) []contracts.Handler {
	reservationRepo := reservationsrepository.NewMongoReservationRepository(cfg)
	lockRepo := reservationsrepository.NewReservationLockRepository(cfg)
	reservationService := reservationsservice.NewReservationService(
		reservationRepo,
		lockRepo,
		reservationsvalidator.NewReservationValidator(cfg.Log),
		publisher,
		cfg,
	)

	labRepo := labsrepository.NewMongoLabRepository(cfg)
	labService := labsservice.NewLabService(
		labRepo,
		reservationRepo,
		labsvalidator.NewLabValidator(cfg.Log),
		cfg,
	)

	schoolRepo := schoolsrepository.NewMongoSchoolRepository(cfg)
	schoolService := schoolsservice.NewSchoolService(
		schoolRepo,
		schoolsvalidator.NewSchoolValidator(cfg.Log),
		cfg,
	)

	rosterService := rosterservice.NewRosterService(
		labRepo,
		schoolService,
		reservationRepo,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		labshandler.NewLabHandler(labService, cfg),
		reservationshandler.NewReservationHandler(reservationService, cfg.Log),
		schoolshandler.NewSchoolHandler(schoolService, cfg.Log),
		rosterhandler.NewRosterHandler(rosterService, cfg),
	}
}
