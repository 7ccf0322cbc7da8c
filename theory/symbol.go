package theory

import (
	"fmt"
	"regexp"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reserved lists the identifier-shaped words the serializer and the solver
// treat as keywords or built-ins.
var reserved = map[string]bool{
	"as": true, "let": true, "forall": true, "exists": true, "match": true,
	"par": true, "true": true, "false": true, "ite": true, "not": true,
	"and": true, "or": true, "xor": true, "distinct": true, "select": true,
	"store": true, "concat": true, "extract": true, "assert": true,
}

// InvalidSymbolNameError reports a name that cannot be made into a solver
// identifier.
type InvalidSymbolNameError struct {
	Name string
}

func (e *InvalidSymbolNameError) Error() string {
	return fmt.Sprintf("invalid symbol name %q", e.Name)
}

// NormalizeSymbol returns the solver-safe form of name. A leading underscore
// is prefixed with "U"; any other invalid identifier is rejected.
func NormalizeSymbol(name string) (string, error) {
	n := name
	if len(n) > 0 && n[0] == '_' {
		n = "U" + n
	}
	if !IsValidSymbol(n) {
		return "", &InvalidSymbolNameError{Name: name}
	}
	return n, nil
}

// IsValidSymbol reports whether name is usable as-is.
func IsValidSymbol(name string) bool {
	return symbolPattern.MatchString(name) && !reserved[name]
}
