// Package extractor turns module source text into export and import records.
package extractor

import (
	"github.com/panbanda/shed/pkg/models"
)

// Extractor produces the symbol table of a single file.
// Implementations must be safe for concurrent use.
type Extractor interface {
	// Extract returns the exports and imports declared in content.
	// Malformed source yields a *models.ParseError.
	Extract(path string, content []byte) (*models.FileSymbols, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(path string, content []byte) (*models.FileSymbols, error)

// Extract calls f(path, content).
func (f Func) Extract(path string, content []byte) (*models.FileSymbols, error) {
	return f(path, content)
}
