package diag

// Finding is a single validation result, located by a document path such
// as "perspectives[2].relations[0].from".
type Finding struct {
	Severity    Severity
	Code        Code
	Path        string
	Perspective string
	Message     string
}
