// Package mvt implements the tile-processing engine: decoding a
// GZIP-framed MVT payload, filtering its layers and streets features
// against a profile's keep-set, and re-encoding the result. This is
// spec.md's C1 (MVT Codec) and C2 (Tile Transformer).
package mvt

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/csnight/streetslim/internal/mvtpbf"
)

// Tile is a decoded MVT tile, re-exported from mvtpbf so callers of this
// package never need to import the wire-level package directly.
type Tile = mvtpbf.Tile

// Layer is a decoded MVT layer.
type Layer = mvtpbf.Layer

// Feature is a decoded MVT feature.
type Feature = mvtpbf.Feature

// Value is a decoded MVT attribute value.
type Value = mvtpbf.Value

// Value type tags, re-exported for callers constructing Values directly.
const (
	ValueString = mvtpbf.ValueString
	ValueFloat  = mvtpbf.ValueFloat
	ValueDouble = mvtpbf.ValueDouble
	ValueInt    = mvtpbf.ValueInt
	ValueUint   = mvtpbf.ValueUint
	ValueSint   = mvtpbf.ValueSint
	ValueBool   = mvtpbf.ValueBool
)

// Decode decompresses a GZIP-framed blob and parses its MVT protobuf
// structure into a fully-owned Tile.
func Decode(blob []byte) (*Tile, error) {
	if len(blob) == 0 {
		return nil, ErrEmptyInput
	}

	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGzip, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGzip, err)
	}

	tile, err := mvtpbf.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProto, err)
	}
	return tile, nil
}

// Encode serializes a Tile's protobuf structure and GZIP-compresses it.
// It is infallible given a well-formed tile, matching spec.md §4.1.
func Encode(t *Tile) []byte {
	raw := mvtpbf.Encode(t)

	var buf bytes.Buffer
	zw, _ := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	// gzip.NewWriterLevel only errors on an invalid level constant, never
	// for BestCompression; ignoring is safe and matches the "infallible"
	// contract for a well-formed tile.
	_, _ = zw.Write(raw)
	_ = zw.Close()
	return buf.Bytes()
}
