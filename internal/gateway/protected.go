package gateway

// protectedFields are human-owned sales workflow properties. Enrichment
// merges must never write them, including on failure updates. The partial
// update API leaves untouched properties alone, so the guard only has to
// keep these names out of the payload.
var protectedFields = map[string]bool{
	"Status":          true,
	"Assigned To":     true,
	"Sales Notes":     true,
	"Contact History": true,
	"Next Follow-Up":  true,
}

// IsProtected reports whether a property name is human-owned.
func IsProtected(name string) bool {
	return protectedFields[name]
}

// ProtectedFields returns the protected property names.
func ProtectedFields() []string {
	out := make([]string, 0, len(protectedFields))
	for name := range protectedFields {
		out = append(out, name)
	}
	return out
}
