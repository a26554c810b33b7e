package mvt_test

import (
	"testing"

	"github.com/csnight/streetslim/internal/mvt"
)

func keepSet(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// S3: layer drop.
func TestTransformDropsUnkeptLayers(t *testing.T) {
	tile := &mvt.Tile{
		Layers: []mvt.Layer{
			{Name: "buildings"},
			{Name: "streets"},
			{Name: "water_polygons"},
		},
	}

	out, modified := mvt.Transform(tile, keepSet("streets", "water_polygons"))
	if !modified {
		t.Fatal("expected modified=true when a layer is dropped")
	}
	if len(out.Layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(out.Layers))
	}
	if out.Layers[0].Name != "streets" || out.Layers[1].Name != "water_polygons" {
		t.Fatalf("unexpected layer order: %+v", out.Layers)
	}
}

// S2: pass-through, nothing dropped, nothing filtered.
func TestTransformNoOpWhenAllLayersKept(t *testing.T) {
	tile := &mvt.Tile{
		Layers: []mvt.Layer{
			{Name: "land", Features: []mvt.Feature{{HasID: true, ID: 1}, {HasID: true, ID: 2}}},
		},
	}

	out, modified := mvt.Transform(tile, keepSet("land"))
	if modified {
		t.Fatal("expected modified=false when nothing changes")
	}
	if len(out.Layers[0].Features) != 2 {
		t.Fatalf("expected 2 features untouched, got %d", len(out.Layers[0].Features))
	}
}

func streetsLayer(kinds ...string) mvt.Layer {
	l := mvt.Layer{
		Name: "streets",
		Keys: []string{"kind"},
	}
	for i, k := range kinds {
		l.Values = append(l.Values, mvt.Value{Type: mvt.ValueString, Str: k})
		l.Features = append(l.Features, mvt.Feature{
			HasID: true,
			ID:    uint64(i + 1),
			Tags:  []uint32{0, uint32(i)},
		})
	}
	return l
}

// S4: street filter, three features -> one kept.
func TestTransformFiltersStreetsByKind(t *testing.T) {
	tile := &mvt.Tile{Layers: []mvt.Layer{streetsLayer("primary", "motorway", "footway")}}

	out, modified := mvt.Transform(tile, keepSet("streets"))
	if !modified {
		t.Fatal("expected modified=true when features are dropped")
	}
	if len(out.Layers[0].Features) != 1 {
		t.Fatalf("expected 1 surviving feature, got %d", len(out.Layers[0].Features))
	}
	kept := out.Layers[0].Features[0]
	kindIdx := kept.Tags[1]
	if out.Layers[0].Values[kindIdx].Str != "primary" {
		t.Fatalf("expected surviving feature to be 'primary', got %q", out.Layers[0].Values[kindIdx].Str)
	}
}

func TestTransformKeepsKeysValuesTablesIntact(t *testing.T) {
	tile := &mvt.Tile{Layers: []mvt.Layer{streetsLayer("primary", "footway")}}
	out, _ := mvt.Transform(tile, keepSet("streets"))
	if len(out.Layers[0].Keys) != 1 || len(out.Layers[0].Values) != 2 {
		t.Fatalf("expected keys/values tables left intact despite dropped feature, got keys=%v values=%v",
			out.Layers[0].Keys, out.Layers[0].Values)
	}
}

func TestTransformNonStreetsLayerPassesFeaturesThrough(t *testing.T) {
	tile := &mvt.Tile{
		Layers: []mvt.Layer{
			{
				Name: "water_polygons",
				Keys: []string{"kind"},
				Values: []mvt.Value{
					{Type: mvt.ValueString, Str: "footway"}, // would be filtered if this were "streets"
				},
				Features: []mvt.Feature{{HasID: true, ID: 1, Tags: []uint32{0, 0}}},
			},
		},
	}

	out, modified := mvt.Transform(tile, keepSet("water_polygons"))
	if modified {
		t.Fatal("non-streets layers must never be feature-filtered")
	}
	if len(out.Layers[0].Features) != 1 {
		t.Fatalf("expected feature untouched, got %d", len(out.Layers[0].Features))
	}
}

// Malformed tag pairs must default to keeping the feature.
func TestTransformDefensiveOnMalformedTags(t *testing.T) {
	tile := &mvt.Tile{
		Layers: []mvt.Layer{
			{
				Name: "streets",
				Keys: []string{"kind"},
				Values: []mvt.Value{
					{Type: mvt.ValueString, Str: "footway"},
				},
				Features: []mvt.Feature{
					{HasID: true, ID: 1, Tags: []uint32{0, 99}},   // value index out of range
					{HasID: true, ID: 2, Tags: []uint32{99, 0}},   // key index out of range
					{HasID: true, ID: 3, Tags: []uint32{0}},        // odd-length tags
					{HasID: true, ID: 4},                          // no tags at all
				},
			},
		},
	}

	out, modified := mvt.Transform(tile, keepSet("streets"))
	if modified {
		t.Fatal("all four features are malformed or tagless and must be kept defensively")
	}
	if len(out.Layers[0].Features) != 4 {
		t.Fatalf("expected all 4 malformed/tagless features kept, got %d", len(out.Layers[0].Features))
	}
}

func TestTransformNonKindTagIgnored(t *testing.T) {
	tile := &mvt.Tile{
		Layers: []mvt.Layer{
			{
				Name: "streets",
				Keys: []string{"name", "kind"},
				Values: []mvt.Value{
					{Type: mvt.ValueString, Str: "Main St"},
					{Type: mvt.ValueString, Str: "footway"},
				},
				Features: []mvt.Feature{
					{HasID: true, ID: 1, Tags: []uint32{0, 0, 1, 1}},
				},
			},
		},
	}

	out, _ := mvt.Transform(tile, keepSet("streets"))
	if len(out.Layers[0].Features) != 0 {
		t.Fatalf("expected footway feature to be dropped, got %d features", len(out.Layers[0].Features))
	}
}
