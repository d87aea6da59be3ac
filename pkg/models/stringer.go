package models

// String methods for all custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// ExportKind
func (k ExportKind) String() string { return string(k) }

// ImportKind
func (k ImportKind) String() string { return string(k) }

// Confidence
func (c Confidence) String() string { return string(c) }

// Priority
func (p Priority) String() string { return string(p) }

// Safety
func (s Safety) String() string { return string(s) }

// SuggestionType
func (t SuggestionType) String() string { return string(t) }
