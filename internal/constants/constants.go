package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration and data directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and storage files.
	ConfigFilePerm = 0600
)

// Catalog endpoint defaults.
const (
	// DefaultAPIEndpoint is the public catalog the client talks to.
	DefaultAPIEndpoint = "https://pokeapi.co/api/v2"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "dex-cli"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for catalog requests.
	DefaultHTTPTimeout = 10 * time.Second

	// ShortHTTPTimeout is used for storage backends that talk to a server.
	ShortHTTPTimeout = 5 * time.Second
)

// Retry limits. Retries are off unless the operator configures RetryMax.
const (
	// DefaultRetryMax keeps failures terminal until a user retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait between opt-in retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between opt-in retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Pagination and concurrency.
const (
	// DefaultPageSize is the number of resources per list page.
	DefaultPageSize = 20

	// DefaultConcurrencyLimit bounds concurrent record resolution per page.
	DefaultConcurrencyLimit = 10

	// DefaultRootMargin extends the viewport when testing sentinel visibility.
	DefaultRootMargin = 100
)

// Filter domain limits.
const (
	// MaxHeightMeters is the upper bound for height filters.
	MaxHeightMeters = 100

	// MaxWeightKilograms is the upper bound for weight filters.
	MaxWeightKilograms = 10000
)

// Storage defaults.
const (
	// DefaultStorageDir is created under the user's home directory.
	DefaultStorageDir = ".dex"

	// DefaultNATSBucket is the key-value bucket used for favorites.
	DefaultNATSBucket = "dex"

	// DefaultSQLiteFile is the database file name inside the storage directory.
	DefaultSQLiteFile = "dex.db"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// BooleanTrue is the accepted string form of true for config values.
const BooleanTrue = "true"
