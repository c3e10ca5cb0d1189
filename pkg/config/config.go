package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"labreserve/pkg/classify"
	"labreserve/pkg/client"
	"labreserve/pkg/logger"
	"labreserve/pkg/model"
	"labreserve/pkg/timeutil"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Location is the campus time zone; day bounds, timeline windows and
	// recurrence expansion are all computed in it.
	Location *time.Location

	// Semester window bounding all recurrence expansion, inclusive dates.
	SemesterStart time.Time
	SemesterEnd   time.Time

	// Display window and morning/afternoon split for day timelines.
	DisplayDayStart timeutil.TimeOfDay
	DisplayDayEnd   timeutil.TimeOfDay
	SplitBoundary   timeutil.TimeOfDay

	ProfessorMarker   string
	DefaultSchoolCode string
	SchoolRules       []classify.Rule

	// SystemActor is the administrative identity that owns system-generated
	// reservations (roster imports, permanent blocks).
	SystemActor model.Actor

	KafkaEnabled  bool
	KafkaTopic    string
	KafkaDLQTopic string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	log := logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, "info"),
		Format:    logger.FormatJSON,
		AddSource: true,
		Service:   serviceName,
	})

	loc, err := time.LoadLocation(getEnvStr(EnvTimeZone, DefaultTimeZone))
	if err != nil {
		log.Fatal("Invalid time zone", "error", err)
	}

	semStart, err := parseDate(getEnvStr(EnvSemesterStart, DefaultSemesterStart), loc)
	if err != nil {
		log.Fatal("Invalid semester start date", "error", err)
	}
	semEnd, err := parseDate(getEnvStr(EnvSemesterEnd, DefaultSemesterEnd), loc)
	if err != nil {
		log.Fatal("Invalid semester end date", "error", err)
	}

	dayStart, err := timeutil.ParseTimeOfDay(getEnvStr(EnvDisplayDayStart, DefaultDisplayDayStart))
	if err != nil {
		log.Fatal("Invalid display day start", "error", err)
	}
	dayEnd, err := timeutil.ParseTimeOfDay(getEnvStr(EnvDisplayDayEnd, DefaultDisplayDayEnd))
	if err != nil {
		log.Fatal("Invalid display day end", "error", err)
	}
	boundary, err := timeutil.ParseTimeOfDay(getEnvStr(EnvSplitBoundary, DefaultSplitBoundary))
	if err != nil {
		log.Fatal("Invalid split boundary", "error", err)
	}

	rules, err := loadSchoolRules()
	if err != nil {
		log.Fatal("Invalid school rules", "error", err)
	}

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Location:      loc,
		SemesterStart: semStart,
		SemesterEnd:   semEnd,

		DisplayDayStart: dayStart,
		DisplayDayEnd:   dayEnd,
		SplitBoundary:   boundary,

		ProfessorMarker:   getEnvStr(EnvProfessorMarker, DefaultProfessorMarker),
		DefaultSchoolCode: getEnvStr(EnvDefaultSchoolCode, DefaultDefaultSchoolCode),
		SchoolRules:       rules,

		SystemActor: model.Actor{
			ID:          getEnvStr(EnvSystemActorID, DefaultSystemActorID),
			DisplayName: getEnvStr(EnvSystemActorName, DefaultSystemActorName),
		},

		KafkaEnabled:  getEnvBool(EnvKafkaEnabled, false),
		KafkaTopic:    getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),
		KafkaDLQTopic: getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),

		Log:    log,
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if !cfg.SemesterStart.Before(cfg.SemesterEnd) {
		errs = append(errs, fmt.Sprintf("SemesterStart (%s) must precede SemesterEnd (%s)",
			cfg.SemesterStart.Format("2006-01-02"), cfg.SemesterEnd.Format("2006-01-02")))
	}
	if cfg.DisplayDayStart.Minutes() >= cfg.DisplayDayEnd.Minutes() {
		errs = append(errs, fmt.Sprintf("DisplayDayStart (%s) must precede DisplayDayEnd (%s)",
			cfg.DisplayDayStart, cfg.DisplayDayEnd))
	}
	if cfg.SplitBoundary.Minutes() <= cfg.DisplayDayStart.Minutes() || cfg.SplitBoundary.Minutes() >= cfg.DisplayDayEnd.Minutes() {
		errs = append(errs, fmt.Sprintf("SplitBoundary (%s) must fall inside the display window (%s - %s)",
			cfg.SplitBoundary, cfg.DisplayDayStart, cfg.DisplayDayEnd))
	}

	if cfg.ProfessorMarker == "" {
		errs = append(errs, "ProfessorMarker cannot be empty")
	}
	if cfg.DefaultSchoolCode == "" {
		errs = append(errs, "DefaultSchoolCode cannot be empty")
	}
	if cfg.SystemActor.ID == "" || cfg.SystemActor.DisplayName == "" {
		errs = append(errs, "SystemActor id and display name cannot be empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		errs = append(errs, "KafkaTopic cannot be empty when Kafka is enabled")
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"time_zone", cfg.Location.String(),
		"semester_start", cfg.SemesterStart.Format("2006-01-02"),
		"semester_end", cfg.SemesterEnd.Format("2006-01-02"),
		"display_day_start", cfg.DisplayDayStart.String(),
		"display_day_end", cfg.DisplayDayEnd.String(),
		"split_boundary", cfg.SplitBoundary.String(),
		"default_school_code", cfg.DefaultSchoolCode,
		"school_rules", len(cfg.SchoolRules),
		"system_actor", cfg.SystemActor.ID,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_topic", cfg.KafkaTopic,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func loadSchoolRules() ([]classify.Rule, error) {
	raw := os.Getenv(EnvSchoolRules)
	if raw == "" {
		return DefaultSchoolRules, nil
	}

	var rules []classify.Rule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", EnvSchoolRules, err)
	}
	for i, r := range rules {
		if len(r.Keywords) == 0 || r.SchoolCode == "" {
			return nil, fmt.Errorf("school rule %d must have keywords and a school code", i)
		}
	}
	return rules, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
