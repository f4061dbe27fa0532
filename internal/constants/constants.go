package constants

import "time"

// Application constants centralized in one location to improve type safety
// and eliminate magic strings throughout the codebase

// Default Configuration Values
const (
	DefaultPort               = 6660
	DefaultLogLevel           = "INFO"
	DefaultMinFloor           = 0
	DefaultMaxFloor           = 9
	DefaultTickDelay          = 200 * time.Millisecond
	DefaultReassignAfterTicks = 4
	DefaultTargetLoadFactor   = 0.8
	DefaultHeavyActivation    = 0.7
)

// HTTP Content Types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeTextPlain = "text/plain"
)

// HTTP Methods
const (
	MethodGET  = "GET"
	MethodPOST = "POST"
)

// Component Names for Logging
const (
	ComponentRegistry    = "registry"
	ComponentSnapshot    = "snapshot"
	ComponentZone        = "zone"
	ComponentTrip        = "trip"
	ComponentDispatch    = "dispatch"
	ComponentEngine      = "engine"
	ComponentSimClient   = "simclient"
	ComponentConfig      = "config"
	ComponentHealth      = "health"
	ComponentDispatcher  = "dispatcher"
)

// Floor Validation Limits
const (
	MinAllowedFloor = -100 // Reasonable minimum for basements
	MaxAllowedFloor = 200  // Reasonable maximum for skyscrapers
)

// Metrics
const (
	MetricsNamespace = "dispatch"
	CarLabel         = "car"
)
