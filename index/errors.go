package index

import "errors"

var (
	// ErrInvalidDimension is returned for a non-positive index dimension.
	ErrInvalidDimension = errors.New("index dimension must be positive")

	// ErrLengthMismatch is returned when vectors and metadata differ in count.
	ErrLengthMismatch = errors.New("vectors and metadata must have equal length")

	// ErrIDOutOfRange is returned for ids not present in a view.
	ErrIDOutOfRange = errors.New("id out of range")

	// ErrBadMagic is returned when a snapshot does not start with the magic bytes.
	ErrBadMagic = errors.New("not an index snapshot")

	// ErrUnsupportedVersion is returned for snapshots from a newer format.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")

	// ErrChecksumMismatch is returned when a snapshot's checksum does not verify.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)
