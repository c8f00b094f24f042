package normalize

import "fmt"

// UnrecognizedFormatError is returned when an upstream document matches
// neither recognized filter-result shape. KeysFound lists the top-level
// keys actually present, sorted.
type UnrecognizedFormatError struct {
	KeysFound []string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("unknown filter format: expected a %q or %q key, found keys %v",
		keyRelevantBills, keyResults, e.KeysFound)
}
