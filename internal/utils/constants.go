package utils

import "time"

// Application Constants
const (
	AppName    = "BloodConnect"
	AppVersion = "1.0.0"

	// Matching
	EmergencyRadiusKM = 10.0 // fixed search radius for emergency dispatch
	MaxSearchLimit    = 200

	// Emergency requests
	MinUnitsRequired = 1

	// Donor eligibility, whole blood
	DonationIntervalDays = 56

	// Notification
	NotificationTimeout      = 15 * time.Second
	NotificationConcurrency  = 16
	IdempotencyKeyTTL        = 24 * time.Hour
	IdempotencyHoldTTL       = 2 * time.Minute
	IdempotencyHoldRefresh   = 30 * time.Second // well inside IdempotencyHoldTTL
	ActiveEmergencyCacheTTL  = 5 * time.Minute
	DefaultActiveRequestList = 50
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response Messages
const (
	MsgInternalServer   = "internal server error"
	MsgForbidden        = "forbidden"
	MsgValidationFailed = "validation failed"
	MsgTooManyRequests  = "too many requests"
	MsgStoreUnavailable = "donor store is unavailable, please retry"
)

// Error Codes
const (
	CodeInvalidCriteria    = "INVALID_CRITERIA"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeDispatchInProgress = "DISPATCH_IN_PROGRESS"
	CodeRateLimited        = "RATE_LIMITED"
)

// Cache Keys
const (
	CacheEmergencyPrefix   = "emergency:"
	CacheIdempotencyPrefix = "dispatch_idempotency:"
	CacheKeyPrefix         = "bloodconnect"
)

// Pub/Sub Channels
const (
	EmergencyEventsChannel = "bloodconnect:emergency_events"
)

// Event Types
const (
	EventEmergencyCreated = "emergency_created"
	EventEmergencyClosed  = "emergency_closed"
)

// Notification Channels
const (
	ChannelSMS  = "sms"
	ChannelCall = "call"
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
