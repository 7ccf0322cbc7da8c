package formula

import (
	"fmt"
	"sort"

	"github.com/sarchlab/isasem/theory"
)

// Library maps names to callable function formulas.
type Library map[string]*FunctionFormula

// Names returns the library's names in order.
func (l Library) Names() []string {
	out := make([]string, 0, len(l))
	for name := range l {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LibraryEntry names a defined function for packaging.
type LibraryEntry struct {
	Name     string
	Function *theory.Function
}

// DuplicateEntryError reports two library entries with the same name.
type DuplicateEntryError struct {
	Name string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("library entry %q given twice", e.Name)
}

// PackLibrary exposes defined functions as named library members. Every
// function must be transparently defined.
func PackLibrary(entries []LibraryEntry) (Library, error) {
	lib := make(Library, len(entries))
	for _, e := range entries {
		if _, dup := lib[e.Name]; dup {
			return nil, &DuplicateEntryError{Name: e.Name}
		}
		f, err := FromFunction(e.Name, e.Function)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", e.Name, err)
		}
		lib[e.Name] = f
	}
	return lib, nil
}
