package extract

import "errors"

var (
	// ErrToolNotFound is returned when an external program is not on PATH.
	ErrToolNotFound = errors.New("external tool not found")

	// ErrCorruptArchive is returned when a DOCX or PPTX is not a readable zip.
	ErrCorruptArchive = errors.New("corrupt office archive")

	// ErrMissingPart is returned when an office archive lacks its main XML part.
	ErrMissingPart = errors.New("office archive missing required part")

	// ErrNoOCR is returned when OCR is required but no engine is configured.
	ErrNoOCR = errors.New("no OCR engine configured")

	// ErrInvalidImagePolicy is returned for an unknown image policy name.
	ErrInvalidImagePolicy = errors.New("invalid image policy")
)
