package config

import (
	"time"

	"labreserve/pkg/classify"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "labreserve"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultTimeZone      = "America/Guayaquil"
	DefaultSemesterStart = "2025-09-01"
	DefaultSemesterEnd   = "2026-01-31"

	DefaultDisplayDayStart = "07:00"
	DefaultDisplayDayEnd   = "22:00"
	DefaultSplitBoundary   = "13:00"

	// ProfessorMarker is the legacy convention for encoding a professor name
	// inside a reservation description. The resolver strips it on read; new
	// writes still emit it so imported and hand-made reservations render the
	// same way.
	DefaultProfessorMarker   = "Profesor: "
	DefaultDefaultSchoolCode = "TC"

	DefaultSystemActorID   = "system-admin"
	DefaultSystemActorName = "Administración de Laboratorios"

	DefaultKafkaTopic    = "labreserve.reservations"
	DefaultKafkaDLQTopic = "labreserve.reservations.dlq"

	DefaultPaginationLimit = 100

	// PermanentReservationNote is the description sentinel the importer and
	// the lab service use to dedup the semester-long reservation that blocks
	// a permanently assigned lab.
	PermanentReservationNote = "Reservado permanentemente"
)

// DefaultSchoolRules is the ordered keyword table the roster importer falls
// back to when a rule carries no explicit school code. First match wins.
// Override with the SCHOOL_RULES env var (JSON array of rules).
var DefaultSchoolRules = []classify.Rule{
	{Keywords: []string{"sistemas", "programación", "programacion", "software", "redes", "base de datos", "computación", "computacion"}, SchoolCode: "ING"},
	{Keywords: []string{"enfermería", "enfermeria", "medicina", "anatomía", "anatomia", "salud", "fisioterapia"}, SchoolCode: "SAL"},
	{Keywords: []string{"derecho", "jurídic", "juridic", "legal"}, SchoolCode: "DER"},
	{Keywords: []string{"administración", "administracion", "contabilidad", "marketing", "finanzas", "economía", "economia"}, SchoolCode: "ADM"},
	{Keywords: []string{"idiomas", "inglés", "ingles", "lingüística", "linguistica"}, SchoolCode: "IDI"},
}
