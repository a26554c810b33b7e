// Package catalog holds the process-wide constants spec.md fixes: the
// known layer catalog, the layers a fresh default profile does not keep,
// and the OSM "kind" whitelist that gates streets-layer features.
package catalog

// Layers is the fixed enumerated mapping from known layer name to a short
// human description, used to validate profile editors and to seed
// defaults. Descriptions are informative only.
var Layers = map[string]string{
	"addresses":                "address points",
	"aerialways":               "cable cars, chairlifts, gondolas",
	"boundaries":                "administrative boundary lines",
	"boundary_labels":          "administrative boundary labels",
	"bridges":                  "bridge structures",
	"buildings":                "building footprints",
	"dam_lines":                "dam lines",
	"ferries":                  "ferry routes",
	"land":                     "land use / land cover polygons",
	"ocean":                    "ocean polygons",
	"pier_lines":               "pier lines",
	"pier_polygons":            "pier polygons",
	"place_labels":             "place name labels",
	"pois":                     "points of interest",
	"public_transport":         "public transport stops and lines",
	"sites":                    "site polygons",
	"streets":                  "street centerlines",
	"street_labels":            "street name labels",
	"street_labels_points":     "street name label anchor points",
	"street_polygons":          "street area polygons",
	"streets_polygons_labels":  "street polygon labels",
	"water_lines":              "water line features",
	"water_lines_labels":       "water line labels",
	"water_polygons":           "water area polygons",
	"water_polygons_labels":    "water polygon labels",
}

// DefaultNotKept is the subset of Layers a fresh default profile excludes.
var DefaultNotKept = map[string]struct{}{
	"addresses":               {},
	"aerialways":              {},
	"boundaries":              {},
	"boundary_labels":         {},
	"bridges":                 {},
	"buildings":               {},
	"dam_lines":               {},
	"ferries":                 {},
	"ocean":                   {},
	"pier_lines":              {},
	"pier_polygons":           {},
	"place_labels":            {},
	"pois":                    {},
	"public_transport":        {},
	"street_polygons":         {},
	"street_labels_points":    {},
	"streets_polygons_labels": {},
	"sites":                   {},
	"water_lines":             {},
	"water_lines_labels":      {},
	"water_polygons_labels":   {},
}

// StreetsLayerName is the one layer feature-level filtering applies to.
const StreetsLayerName = "streets"

// KindTagKey is the tag key holding a street feature's OSM highway class.
const KindTagKey = "kind"

// StreetKindWhitelist is the retained subset of OSM highway "kind" values.
var StreetKindWhitelist = map[string]struct{}{
	"track":          {},
	"path":           {},
	"service":        {},
	"unclassified":   {},
	"residential":    {},
	"tertiary":       {},
	"secondary":      {},
	"primary":        {},
	"trunk":          {},
	"living_street":  {},
	"pedestrian":     {},
	"taxiway":        {},
	"busway":         {},
}

// SeedDefaultKeepSet returns Layers \ DefaultNotKept, the keep-set used to
// seed a fresh default profile.
func SeedDefaultKeepSet() map[string]struct{} {
	keep := make(map[string]struct{}, len(Layers))
	for name := range Layers {
		if _, excluded := DefaultNotKept[name]; !excluded {
			keep[name] = struct{}{}
		}
	}
	return keep
}

// DefaultProfileID is the stable constant id ensure_valid_default() uses
// when it must create a fresh default profile.
const DefaultProfileID = "00000000-0000-0000-0000-000000000001"

// DefaultProfileName is the seed name ensure_valid_default() gives a fresh
// default profile.
const DefaultProfileName = "Default"
