package core

import "fmt"

// ValidateRawDocument validates a RawDocument before extraction.
//
// Validation rules:
//   - Key must not be empty
//   - Format must be set
//
// Empty content is allowed; extraction yields empty text for it.
func ValidateRawDocument(doc *RawDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.Key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidDocument)
	}
	if doc.Format == "" {
		return fmt.Errorf("%w: format cannot be empty", ErrInvalidDocument)
	}
	return nil
}

// ValidateVector checks that a vector has the expected dimension.
// A dimension of 0 disables the check.
func ValidateVector(vector []float32, dimension int) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	if dimension > 0 && len(vector) != dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dimension, len(vector))
	}
	return nil
}
