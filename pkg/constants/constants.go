// Package constants provides shared constants used throughout the authmatch codebase.
// This includes timeouts, upstream rate-limit delays, file permissions and the
// fixed names and headers of the files a reconciliation run produces.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for requests to authority services
	DefaultHTTPTimeout = 30 * time.Second

	// DatabasePingTimeout bounds the connectivity check against the local catalog
	DatabasePingTimeout = 10 * time.Second

	// TokenTimeout bounds the OAuth token request made when an OCLC session is created
	TokenTimeout = 30 * time.Second

	// ShutdownTimeout is how long the CLI waits for cleanup after an error or signal
	ShutdownTimeout = 5 * time.Second
)

// Rate limiting constants
const (
	// DefaultLOCDelay is the pause before each id.loc.gov request (LOC asks for 3s)
	DefaultLOCDelay = 3 * time.Second

	// DefaultOCLCDelay is the pause before each WorldCat Metadata request
	DefaultOCLCDelay = 1 * time.Second

	// DefaultBreakerFailures is the number of consecutive transport failures
	// after which remote fetches are short-circuited
	DefaultBreakerFailures = 10

	// DefaultBreakerTimeout is how long an open breaker waits before probing again
	DefaultBreakerTimeout = 60 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Batch constants
const (
	// DefaultMaxRecordsPerLog is the number of audit rows written before the
	// log file is rotated
	DefaultMaxRecordsPerLog = 500000

	// ProgressInterval is how many records pass between progress log lines
	ProgressInterval = 1000
)

// MARC constants
const (
	// DefaultTag is the MARC field compared when none is configured
	DefaultTag = "100"

	// LinkingSubfield is the subfield carrying the authority URI; it is
	// always extracted and never compared
	LinkingSubfield = "0"

	// SubfieldDelimiter separates subfields in catalog heading strings
	SubfieldDelimiter = '$'

	// MARCXMLNamespace is the MARC21 slim XML namespace
	MARCXMLNamespace = "http://www.loc.gov/MARC21/slim"

	// MARCXMLSuffix turns an id.loc.gov authority URI into its MARC/XML document
	MARCXMLSuffix = ".marcxml.xml"
)

// Remote service constants
const (
	// OCLCTokenURL is the WorldCat OAuth token endpoint
	OCLCTokenURL = "https://oauth.oclc.org/token"

	// OCLCMetadataURL is the base URL of the WorldCat Metadata API
	OCLCMetadataURL = "https://worldcat.org"

	// OCLCScope is the OAuth scope needed to read bibliographic records
	OCLCScope = "WorldCatMetadataAPI"

	// UserAgent identifies authmatch to authority services
	UserAgent = "authmatch/1.0"
)

// Output constants
const (
	// DefaultOutputDir is where log and discrepancy files are written
	DefaultOutputDir = "outputs"

	// TimeFormatFilename is the date stamp used in output file names (MMDDYY)
	TimeFormatFilename = "010206"

	// TimeFormatAudit is the timestamp format written to audit log rows
	TimeFormatAudit = "2006-01-02 15:04:05.000000"
)

// DiscrepancyHeader is the header row of the discrepancy CSV.
var DiscrepancyHeader = []string{"bib_id", "tag", "subfield", "uchicago_name", "authority_name", "language", "location"}

// AuditHeader is the header row written at the top of every audit log file.
var AuditHeader = []string{"timestamp", "bib_id", "tag", "ord", "authority_id", "error_message"}
