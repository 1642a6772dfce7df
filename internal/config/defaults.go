package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel  = "info"
	DefaultJSONLog   = false
	DefaultHeadless  = true
	DefaultLocale    = "en-US"
	DefaultMaxItems  = 10
	DefaultOutput    = "output"
	DefaultFormat    = "csv"
	DefaultMaxPages  = 0
	DefaultRetries   = 1
	DefaultRateBurst = 1

	DefaultConcurrency    = 5
	MaxConcurrency        = 50
	DefaultInitialTimeout = 60 * time.Second
	DefaultLinkTimeout    = 45 * time.Second
	DefaultContentWait    = 15 * time.Second
	DefaultClickTimeout   = 5 * time.Second
	DefaultIdleTimeout    = 10 * time.Second
	DefaultScrollWait     = 2 * time.Second
	DefaultPageSettle     = 2 * time.Second
	DefaultSettleDelay    = 5 * time.Second
	DefaultChallengeDelay = 5 * time.Second
	DefaultChallengeTries = 5
	DefaultLoginTimeout   = 5 * time.Minute
)
