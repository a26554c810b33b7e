// Package mvtpbf implements the wire-level protobuf schema of a Mapbox
// Vector Tile (MVT v2), as fixed by the Mapbox Vector Tile specification and
// summarized in spec.md §6. It is hand-written against
// google.golang.org/protobuf/encoding/protowire rather than generated from
// a .proto file, because the tile transformer must carry opaque feature
// geometry command streams through a decode/encode round trip with every
// command value unchanged, and a generated struct-based decoder would force
// geometry through a lossy intermediate representation. Fields outside the
// MVT v2 schema are skipped on decode and are not re-emitted by Encode.
package mvtpbf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from the MVT v2 wire schema (spec.md §6).
const (
	fieldTileLayers = 3

	fieldLayerName     = 1
	fieldLayerFeatures = 2
	fieldLayerKeys     = 3
	fieldLayerValues   = 4
	fieldLayerExtent   = 5
	fieldLayerVersion  = 15

	fieldFeatureID       = 1
	fieldFeatureTags     = 2
	fieldFeatureType     = 3
	fieldFeatureGeometry = 4

	fieldValueString = 1
	fieldValueFloat  = 2
	fieldValueDouble = 3
	fieldValueInt    = 4
	fieldValueUint   = 5
	fieldValueSint   = 6
	fieldValueBool   = 7
)

const defaultExtent = 4096

// GeomType mirrors the MVT feature geometry type enum.
type GeomType int32

const (
	GeomUnknown    GeomType = 0
	GeomPoint      GeomType = 1
	GeomLineString GeomType = 2
	GeomPolygon    GeomType = 3
)

// ValueType tags which arm of the Value variant union is populated.
type ValueType int

const (
	ValueString ValueType = iota
	ValueFloat
	ValueDouble
	ValueInt
	ValueUint
	ValueSint
	ValueBool
)

// Value is a decoded MVT attribute value, a tagged union over the seven
// wire types the spec allows.
type Value struct {
	Type   ValueType
	Str    string
	Flt    float32
	Dbl    float64
	Int    int64
	Uint   uint64
	Sint   int64
	Bool   bool
}

// AsString reports the string form of the value if it is stored as the
// string variant, used by the streets feature filter to read the "kind"
// tag defensively.
func (v Value) AsString() (string, bool) {
	if v.Type != ValueString {
		return "", false
	}
	return v.Str, true
}

// Feature is a decoded MVT feature. Tags and Geometry are kept as raw,
// packed index/command streams — the transformer never needs to interpret
// geometry, and re-encoding it unchanged is how spec.md §4.1 guarantees
// geometry preservation.
type Feature struct {
	HasID    bool
	ID       uint64
	Tags     []uint32
	HasType  bool
	Type     GeomType
	Geometry []uint32
}

// Layer is a decoded MVT layer.
type Layer struct {
	Name      string
	HasVersion bool
	Version   uint32
	HasExtent bool
	Extent    uint32
	Keys      []string
	Values    []Value
	Features  []Feature
}

// Tile is the full decoded MVT structure: an ordered list of layers.
type Tile struct {
	Layers []Layer
}

// Decode parses a raw (already gunzipped) MVT protobuf payload.
func Decode(data []byte) (*Tile, error) {
	t := &Tile{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("mvtpbf: malformed tile tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		if num != fieldTileLayers || typ != protowire.BytesType {
			skip := protowire.ConsumeFieldValue(num, typ, data)
			if skip < 0 {
				return nil, fmt.Errorf("mvtpbf: malformed tile field %d: %w", num, protowire.ParseError(skip))
			}
			data = data[skip:]
			continue
		}

		buf, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("mvtpbf: malformed layer bytes: %w", protowire.ParseError(n))
		}
		data = data[n:]

		layer, err := decodeLayer(buf)
		if err != nil {
			return nil, err
		}
		t.Layers = append(t.Layers, layer)
	}
	return t, nil
}

func decodeLayer(data []byte) (Layer, error) {
	l := Layer{Extent: defaultExtent}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Layer{}, fmt.Errorf("mvtpbf: malformed layer tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldLayerName && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Layer{}, fmt.Errorf("mvtpbf: malformed layer name: %w", protowire.ParseError(n))
			}
			l.Name = string(b)
			data = data[n:]

		case num == fieldLayerFeatures && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Layer{}, fmt.Errorf("mvtpbf: malformed feature bytes: %w", protowire.ParseError(n))
			}
			feat, err := decodeFeature(b)
			if err != nil {
				return Layer{}, err
			}
			l.Features = append(l.Features, feat)
			data = data[n:]

		case num == fieldLayerKeys && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Layer{}, fmt.Errorf("mvtpbf: malformed layer key: %w", protowire.ParseError(n))
			}
			l.Keys = append(l.Keys, string(b))
			data = data[n:]

		case num == fieldLayerValues && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Layer{}, fmt.Errorf("mvtpbf: malformed layer value: %w", protowire.ParseError(n))
			}
			v, err := decodeValue(b)
			if err != nil {
				return Layer{}, err
			}
			l.Values = append(l.Values, v)
			data = data[n:]

		case num == fieldLayerExtent && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Layer{}, fmt.Errorf("mvtpbf: malformed layer extent: %w", protowire.ParseError(n))
			}
			l.Extent = uint32(val)
			l.HasExtent = true
			data = data[n:]

		case num == fieldLayerVersion && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Layer{}, fmt.Errorf("mvtpbf: malformed layer version: %w", protowire.ParseError(n))
			}
			l.Version = uint32(val)
			l.HasVersion = true
			data = data[n:]

		default:
			skip := protowire.ConsumeFieldValue(num, typ, data)
			if skip < 0 {
				return Layer{}, fmt.Errorf("mvtpbf: malformed layer field %d: %w", num, protowire.ParseError(skip))
			}
			data = data[skip:]
		}
	}
	return l, nil
}

func decodeFeature(data []byte) (Feature, error) {
	f := Feature{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Feature{}, fmt.Errorf("mvtpbf: malformed feature tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldFeatureID && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Feature{}, fmt.Errorf("mvtpbf: malformed feature id: %w", protowire.ParseError(n))
			}
			f.ID = val
			f.HasID = true
			data = data[n:]

		case num == fieldFeatureTags:
			vals, n, err := consumeUint32Slice(data, typ)
			if err != nil {
				return Feature{}, fmt.Errorf("mvtpbf: malformed feature tags: %w", err)
			}
			f.Tags = append(f.Tags, vals...)
			data = data[n:]

		case num == fieldFeatureType && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Feature{}, fmt.Errorf("mvtpbf: malformed feature type: %w", protowire.ParseError(n))
			}
			f.Type = GeomType(val)
			f.HasType = true
			data = data[n:]

		case num == fieldFeatureGeometry:
			vals, n, err := consumeUint32Slice(data, typ)
			if err != nil {
				return Feature{}, fmt.Errorf("mvtpbf: malformed feature geometry: %w", err)
			}
			f.Geometry = append(f.Geometry, vals...)
			data = data[n:]

		default:
			skip := protowire.ConsumeFieldValue(num, typ, data)
			if skip < 0 {
				return Feature{}, fmt.Errorf("mvtpbf: malformed feature field %d: %w", num, protowire.ParseError(skip))
			}
			data = data[skip:]
		}
	}
	return f, nil
}

// consumeUint32Slice consumes either a packed (length-delimited) varint
// field or a single unpacked varint, matching real-world MVT encoders that
// sometimes emit tags/geometry unpacked. Returns the decoded values and
// the number of bytes consumed from data (not including the tag, which the
// caller already consumed).
func consumeUint32Slice(data []byte, typ protowire.Type) ([]uint32, int, error) {
	switch typ {
	case protowire.BytesType:
		buf, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		var vals []uint32
		for len(buf) > 0 {
			v, m := protowire.ConsumeVarint(buf)
			if m < 0 {
				return nil, 0, protowire.ParseError(m)
			}
			vals = append(vals, uint32(v))
			buf = buf[m:]
		}
		return vals, n, nil
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		return []uint32{uint32(v)}, n, nil
	default:
		n := protowire.ConsumeFieldValue(0, typ, data)
		if n < 0 {
			return nil, 0, protowire.ParseError(n)
		}
		return nil, n, nil
	}
}

func decodeValue(data []byte) (Value, error) {
	v := Value{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Value{}, fmt.Errorf("mvtpbf: malformed value tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldValueString && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Value{}, fmt.Errorf("mvtpbf: malformed value string: %w", protowire.ParseError(n))
			}
			v.Type = ValueString
			v.Str = string(b)
			data = data[n:]

		case num == fieldValueFloat && typ == protowire.Fixed32Type:
			val, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return Value{}, fmt.Errorf("mvtpbf: malformed value float: %w", protowire.ParseError(n))
			}
			v.Type = ValueFloat
			v.Flt = float32frombits(val)
			data = data[n:]

		case num == fieldValueDouble && typ == protowire.Fixed64Type:
			val, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return Value{}, fmt.Errorf("mvtpbf: malformed value double: %w", protowire.ParseError(n))
			}
			v.Type = ValueDouble
			v.Dbl = float64frombits(val)
			data = data[n:]

		case num == fieldValueInt && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Value{}, fmt.Errorf("mvtpbf: malformed value int: %w", protowire.ParseError(n))
			}
			v.Type = ValueInt
			v.Int = int64(val)
			data = data[n:]

		case num == fieldValueUint && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Value{}, fmt.Errorf("mvtpbf: malformed value uint: %w", protowire.ParseError(n))
			}
			v.Type = ValueUint
			v.Uint = val
			data = data[n:]

		case num == fieldValueSint && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Value{}, fmt.Errorf("mvtpbf: malformed value sint: %w", protowire.ParseError(n))
			}
			v.Type = ValueSint
			v.Sint = protowire.DecodeZigZag(val)
			data = data[n:]

		case num == fieldValueBool && typ == protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Value{}, fmt.Errorf("mvtpbf: malformed value bool: %w", protowire.ParseError(n))
			}
			v.Type = ValueBool
			v.Bool = val != 0
			data = data[n:]

		default:
			skip := protowire.ConsumeFieldValue(num, typ, data)
			if skip < 0 {
				return Value{}, fmt.Errorf("mvtpbf: malformed value field %d: %w", num, protowire.ParseError(skip))
			}
			data = data[skip:]
		}
	}
	return v, nil
}

// Encode serializes a Tile back into raw MVT protobuf bytes.
func Encode(t *Tile) []byte {
	var out []byte
	for _, l := range t.Layers {
		lb := encodeLayer(l)
		out = protowire.AppendTag(out, fieldTileLayers, protowire.BytesType)
		out = protowire.AppendBytes(out, lb)
	}
	return out
}

func encodeLayer(l Layer) []byte {
	var out []byte

	out = protowire.AppendTag(out, fieldLayerName, protowire.BytesType)
	out = protowire.AppendString(out, l.Name)

	for _, f := range l.Features {
		fb := encodeFeature(f)
		out = protowire.AppendTag(out, fieldLayerFeatures, protowire.BytesType)
		out = protowire.AppendBytes(out, fb)
	}

	for _, k := range l.Keys {
		out = protowire.AppendTag(out, fieldLayerKeys, protowire.BytesType)
		out = protowire.AppendString(out, k)
	}

	for _, v := range l.Values {
		vb := encodeValue(v)
		out = protowire.AppendTag(out, fieldLayerValues, protowire.BytesType)
		out = protowire.AppendBytes(out, vb)
	}

	extent := l.Extent
	if extent == 0 {
		extent = defaultExtent
	}
	out = protowire.AppendTag(out, fieldLayerExtent, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(extent))

	out = protowire.AppendTag(out, fieldLayerVersion, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(l.Version))

	return out
}

func encodeFeature(f Feature) []byte {
	var out []byte

	if f.HasID {
		out = protowire.AppendTag(out, fieldFeatureID, protowire.VarintType)
		out = protowire.AppendVarint(out, f.ID)
	}

	if len(f.Tags) > 0 {
		var packed []byte
		for _, tag := range f.Tags {
			packed = protowire.AppendVarint(packed, uint64(tag))
		}
		out = protowire.AppendTag(out, fieldFeatureTags, protowire.BytesType)
		out = protowire.AppendBytes(out, packed)
	}

	if f.HasType {
		out = protowire.AppendTag(out, fieldFeatureType, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(f.Type))
	}

	if len(f.Geometry) > 0 {
		var packed []byte
		for _, cmd := range f.Geometry {
			packed = protowire.AppendVarint(packed, uint64(cmd))
		}
		out = protowire.AppendTag(out, fieldFeatureGeometry, protowire.BytesType)
		out = protowire.AppendBytes(out, packed)
	}

	return out
}

func encodeValue(v Value) []byte {
	var out []byte
	switch v.Type {
	case ValueString:
		out = protowire.AppendTag(out, fieldValueString, protowire.BytesType)
		out = protowire.AppendString(out, v.Str)
	case ValueFloat:
		out = protowire.AppendTag(out, fieldValueFloat, protowire.Fixed32Type)
		out = protowire.AppendFixed32(out, float32bits(v.Flt))
	case ValueDouble:
		out = protowire.AppendTag(out, fieldValueDouble, protowire.Fixed64Type)
		out = protowire.AppendFixed64(out, float64bits(v.Dbl))
	case ValueInt:
		out = protowire.AppendTag(out, fieldValueInt, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(v.Int))
	case ValueUint:
		out = protowire.AppendTag(out, fieldValueUint, protowire.VarintType)
		out = protowire.AppendVarint(out, v.Uint)
	case ValueSint:
		out = protowire.AppendTag(out, fieldValueSint, protowire.VarintType)
		out = protowire.AppendVarint(out, protowire.EncodeZigZag(v.Sint))
	case ValueBool:
		out = protowire.AppendTag(out, fieldValueBool, protowire.VarintType)
		b := uint64(0)
		if v.Bool {
			b = 1
		}
		out = protowire.AppendVarint(out, b)
	}
	return out
}
