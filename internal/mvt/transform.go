package mvt

import "github.com/csnight/streetslim/internal/catalog"

// Transform applies a keep-set of layer names to tile, dropping any layer
// not in keepSet and, for the layer literally named "streets", filtering
// features to the street-kind whitelist. It reports whether anything
// changed so the caller can skip re-encoding when it didn't (spec.md §4.2).
func Transform(tile *Tile, keepSet map[string]struct{}) (*Tile, bool) {
	modified := false
	kept := make([]Layer, 0, len(tile.Layers))

	for _, layer := range tile.Layers {
		if _, ok := keepSet[layer.Name]; !ok {
			modified = true
			continue
		}

		if layer.Name == catalog.StreetsLayerName {
			filtered, changed := filterStreets(layer)
			if changed {
				modified = true
			}
			kept = append(kept, filtered)
			continue
		}

		kept = append(kept, layer)
	}

	tile.Layers = kept
	return tile, modified
}

// filterStreets drops features from a streets layer whose "kind" tag value
// is not in the whitelist. Keys/values tables are left intact even if some
// entries become unreferenced, per spec.md §4.2 — rebuilding them risks
// invalidating another feature's tag indices.
func filterStreets(layer Layer) (Layer, bool) {
	kept := make([]Feature, 0, len(layer.Features))
	for _, f := range layer.Features {
		if keepStreetFeature(f, layer.Keys, layer.Values) {
			kept = append(kept, f)
		}
	}
	changed := len(kept) != len(layer.Features)
	layer.Features = kept
	return layer, changed
}

// keepStreetFeature applies the defensive-on-error rule: any malformed or
// out-of-range tag pair means the feature is kept, never dropped, because
// the transformer cannot be sure the tag it failed to read wasn't "kind".
func keepStreetFeature(f Feature, keys []string, values []Value) bool {
	tags := f.Tags
	if len(tags)%2 != 0 {
		return true
	}
	for i := 0; i < len(tags); i += 2 {
		if int(tags[i]) >= len(keys) || int(tags[i+1]) >= len(values) {
			return true
		}
	}
	for i := 0; i < len(tags); i += 2 {
		keyIdx, valIdx := tags[i], tags[i+1]
		if keys[keyIdx] != catalog.KindTagKey {
			continue
		}

		kind, ok := values[valIdx].AsString()
		if !ok {
			return true
		}
		_, whitelisted := catalog.StreetKindWhitelist[kind]
		return whitelisted
	}
	return true
}
