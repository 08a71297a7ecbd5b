package config

import "time"

// Application constants for the bitewatch system
const (
	// Application Info
	AppName    = "bitewatch"
	AppVersion = "0.3.0"

	// Source ingestion
	SourceCSVExtension  = ".csv"
	SourceXLSXExtension = ".xlsx"

	// TimestampLayout is the fixed textual pattern both raw date columns
	// use: 4-digit year, abbreviated month, 2-digit day, 12-hour clock
	// with AM/PM. Example: "2015 Jul 04 02:30:00 PM".
	TimestampLayout = "2006 Jan 02 03:04:05 PM"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second

	// WebSocket Settings
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultReportsDir = "data/reports"

	// Watcher Settings
	DefaultWatcherInterval = 30 * time.Second

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// API Endpoints (internal)
	APIBasePath      = "/api"
	DatasetEndpoint  = "/api/dataset"
	QueryEndpoint    = "/api/query"
	HealthEndpoint   = "/api/health"
	MetricsEndpoint  = "/metrics"
	WebSocketEndpoint = "/ws"
)

// Raw input column headers, case- and whitespace-exact. The trailing space
// in RawColDateReported is present in the source export and significant.
const (
	RawColBiteNumber       = "Bite Number"
	RawColIncidentDate     = "Incident Date"
	RawColDateReported     = "Date Reported "
	RawColVictimAge        = "Victim Age"
	RawColIncidentLocation = "Incident Location"
	RawColVictimRelation   = "Victim Relationship"
	RawColBiteLocation     = "Bite Location"
	RawColBiteSeverity     = "Bite Severity"
	RawColBiteCircumstance = "Bite Circumstance"
	RawColControlledBy     = "Controlled By"
	RawColBiteType         = "Bite Type"
	RawColTreatmentCost    = "Treatment Cost"
)

// RawColumns lists every required input column in source order
var RawColumns = []string{
	RawColBiteNumber,
	RawColIncidentDate,
	RawColDateReported,
	RawColVictimAge,
	RawColIncidentLocation,
	RawColVictimRelation,
	RawColBiteLocation,
	RawColBiteSeverity,
	RawColBiteCircumstance,
	RawColControlledBy,
	RawColBiteType,
	RawColTreatmentCost,
}
