package diagnostic

// Diagnostic codes.
const (
	CodeMarkerNotFound       = "GEN001"
	CodeUnresolvedSymbol     = "GEN002"
	CodeDuplicateMapping     = "GEN003"
	CodeMissingTypeArgs      = "GEN004"
	CodeFieldExtraction      = "GEN005"
	CodeArgumentCount        = "GEN006"
	CodeMissingExpression    = "GEN007"
	CodeMissingBody          = "GEN008"
	CodeInaccessibleMember   = "GEN009"
	CodeIncompatibleItemType = "GEN010"
)

// Descriptor describes one entry of the diagnostic table.
type Descriptor struct {
	Code     string
	Severity DiagnosticSeverity
	Title    string
}

var descriptors = []Descriptor{
	{CodeMarkerNotFound, DiagnosticWarning, "marker profile types not found in compilation"},
	{CodeUnresolvedSymbol, DiagnosticWarning, "mapping declaration symbol cannot be resolved"},
	{CodeDuplicateMapping, DiagnosticError, "duplicate mapping declared"},
	{CodeMissingTypeArgs, DiagnosticWarning, "mapping declaration missing resolvable type arguments"},
	{CodeFieldExtraction, DiagnosticWarning, "field override extraction failed"},
	{CodeArgumentCount, DiagnosticWarning, "field override has wrong argument count"},
	{CodeMissingExpression, DiagnosticWarning, "field override missing a mapping expression"},
	{CodeMissingBody, DiagnosticWarning, "mapping expression missing a body"},
	{CodeInaccessibleMember, DiagnosticError, "mapping expression references a member generated code cannot access"},
	{CodeIncompatibleItemType, DiagnosticWarning, "field skipped: incompatible item types"},
}

// Descriptors returns the diagnostic table in code order.
func Descriptors() []Descriptor {
	return append([]Descriptor(nil), descriptors...)
}

// Lookup returns the descriptor registered for code.
func Lookup(code string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Code == code {
			return d, true
		}
	}

	return Descriptor{}, false
}
