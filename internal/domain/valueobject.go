package domain

import (
	"link-shortener/internal/domain/valueobject"
)

// Re-export value object types for convenience.
// This allows consumers to import from domain package directly.
type (
	ShortCode   = valueobject.ShortCode
	Destination = valueobject.Destination
)

// Re-export value object constructors.
var (
	NewShortCode   = valueobject.NewShortCode
	NewDestination = valueobject.NewDestination
)

// Re-export value object constants.
const (
	CodeAlphabet           = valueobject.CodeAlphabet
	DefaultShortCodeLength = valueobject.DefaultShortCodeLength
	MinCustomCodeLength    = valueobject.MinCustomCodeLength
	MaxCustomCodeLength    = valueobject.MaxCustomCodeLength
)
