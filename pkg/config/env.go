package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvTimeZone      = "TIME_ZONE"
	EnvSemesterStart = "SEMESTER_START"
	EnvSemesterEnd   = "SEMESTER_END"

	EnvDisplayDayStart = "DISPLAY_DAY_START"
	EnvDisplayDayEnd   = "DISPLAY_DAY_END"
	EnvSplitBoundary   = "SPLIT_BOUNDARY"

	EnvProfessorMarker   = "PROFESSOR_MARKER"
	EnvDefaultSchoolCode = "DEFAULT_SCHOOL_CODE"
	EnvSchoolRules       = "SCHOOL_RULES"

	EnvSystemActorID   = "SYSTEM_ACTOR_ID"
	EnvSystemActorName = "SYSTEM_ACTOR_NAME"

	EnvKafkaEnabled  = "KAFKA_ENABLED"
	EnvKafkaTopic    = "KAFKA_RESERVATION_TOPIC"
	EnvKafkaDLQTopic = "KAFKA_RESERVATION_DLQ_TOPIC"
)
