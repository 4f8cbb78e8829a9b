package diag

import "fmt"

// Severity classifies how serious a Diagnostic is.
type Severity int

const (
	Warning Severity = iota
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is a severity-tagged error record produced by any phase of
// the toolchain. Code is a short machine-stable identifier (e.g.
// "undefinedSymbol"); Message is the human-readable text. SymbolName and
// Related are optional extra context.
type Diagnostic struct {
	Severity   Severity
	Code       string
	Message    string
	Location   Location
	SymbolName string
	Related    *Location
}

// New builds a Diagnostic at Error severity.
func New(code string, location Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Error, Code: code, Location: location, Message: fmt.Sprintf(format, args...)}
}

// NewWarning builds a Diagnostic at Warning severity.
func NewWarning(code string, location Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Code: code, Location: location, Message: fmt.Sprintf(format, args...)}
}

// NewFatal builds a Diagnostic at Fatal severity.
func NewFatal(code string, location Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Fatal, Code: code, Location: location, Message: fmt.Sprintf(format, args...)}
}

// Description formats the diagnostic as "file:line:column: severity: message".
func (d Diagnostic) Description() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

func (d Diagnostic) Error() string {
	return d.Description()
}
