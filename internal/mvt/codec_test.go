package mvt_test

import (
	"testing"

	"github.com/csnight/streetslim/internal/mvt"
)

func TestDecodeEmptyInput(t *testing.T) {
	_, err := mvt.Decode(nil)
	if err != mvt.ErrEmptyInput {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestDecodeInvalidGzip(t *testing.T) {
	_, err := mvt.Decode([]byte{0x01, 0x02, 0x03})
	if err == nil {
		t.Fatal("expected error decoding non-gzip bytes")
	}
}

func TestRoundTrip(t *testing.T) {
	tile := &mvt.Tile{
		Layers: []mvt.Layer{
			{
				Name:       "land",
				HasVersion: true,
				Version:    2,
				HasExtent:  true,
				Extent:     4096,
				Keys:       []string{"kind"},
				Values:     []mvt.Value{{Type: mvt.ValueString, Str: "forest"}},
				Features: []mvt.Feature{
					{HasID: true, ID: 1, HasType: true, Type: 3, Tags: []uint32{0, 0}, Geometry: []uint32{9, 0, 0, 26, 0, 1, 2, 0, 0}},
					{HasID: true, ID: 2, HasType: true, Type: 3, Geometry: []uint32{9, 4, 4}},
				},
			},
		},
	}

	blob := mvt.Encode(tile)
	decoded, err := mvt.Decode(blob)
	if err != nil {
		t.Fatalf("decode after encode failed: %v", err)
	}

	if len(decoded.Layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(decoded.Layers))
	}
	l := decoded.Layers[0]
	if l.Name != "land" || l.Version != 2 || l.Extent != 4096 {
		t.Fatalf("layer header mismatch: %+v", l)
	}
	if len(l.Keys) != 1 || l.Keys[0] != "kind" {
		t.Fatalf("keys mismatch: %+v", l.Keys)
	}
	if len(l.Values) != 1 || l.Values[0].Str != "forest" {
		t.Fatalf("values mismatch: %+v", l.Values)
	}
	if len(l.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(l.Features))
	}
	if l.Features[0].ID != 1 || len(l.Features[0].Geometry) != 9 {
		t.Fatalf("feature 0 mismatch: %+v", l.Features[0])
	}

	blob2 := mvt.Encode(decoded)
	decoded2, err := mvt.Decode(blob2)
	if err != nil {
		t.Fatalf("second decode failed: %v", err)
	}
	if len(decoded2.Layers) != 1 || len(decoded2.Layers[0].Features) != 2 {
		t.Fatalf("second round trip mismatch: %+v", decoded2)
	}
}

func TestEncodeDefaultsExtent(t *testing.T) {
	tile := &mvt.Tile{Layers: []mvt.Layer{{Name: "empty", HasVersion: true, Version: 1}}}
	blob := mvt.Encode(tile)
	decoded, err := mvt.Decode(blob)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Layers[0].Extent != 4096 {
		t.Fatalf("expected default extent 4096, got %d", decoded.Layers[0].Extent)
	}
}
