package instrumentation

// Cardinality management helpers for metrics.
// Label values must come from small fixed sets; anything else is folded
// into a catch-all so a bug or an unexpected error cannot explode the
// number of series.

// Error kinds accepted as metric label values. They mirror the error
// taxonomy of the tool layer.
const (
	ErrorKindNone       = "none"
	ErrorKindValidation = "validation"
	ErrorKindNotFound   = "not_found"
	ErrorKindAuth       = "auth"
	ErrorKindUpstream   = "upstream"
	ErrorKindPartial    = "partial"
	ErrorKindInternal   = "internal"
)

var knownErrorKinds = map[string]bool{
	ErrorKindValidation: true,
	ErrorKindNotFound:   true,
	ErrorKindAuth:       true,
	ErrorKindUpstream:   true,
	ErrorKindPartial:    true,
	ErrorKindInternal:   true,
}

// ErrorKindLabel bounds an error kind to the known set.
//
// Example:
//
//	ErrorKindLabel("")            // "none"
//	ErrorKindLabel("auth")        // "auth"
//	ErrorKindLabel("disk on fire") // "internal"
func ErrorKindLabel(kind string) string {
	if kind == "" {
		return ErrorKindNone
	}
	if knownErrorKinds[kind] {
		return kind
	}
	return ErrorKindInternal
}

// Common operation types for Tasks API and tool metrics.
// Status, OAuth, and Service constants are defined in config.go.
const (
	OperationList     = "list"
	OperationGet      = "get"
	OperationCreate   = "create"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
	OperationMove     = "move"
	OperationClear    = "clear"
	OperationSearch   = "search"
	OperationSummary  = "summary"
	OperationQuickAdd = "quick_add"
	OperationBulk     = "bulk_create"
)
