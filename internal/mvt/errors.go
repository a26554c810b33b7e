package mvt

import "errors"

// Errors returned by Decode, per spec.md §4.1.
var (
	ErrEmptyInput = errors.New("mvt: empty input")
	ErrGzip       = errors.New("mvt: gzip decompression failed")
	ErrProto      = errors.New("mvt: protobuf parse failed")
)
