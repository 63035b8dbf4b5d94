// Package segment defines the customer segments and computes per-segment
// municipality relevance weights.
package segment

// Segment keys.
const (
	KeyKMU          = "kmu"
	KeyHandwerk     = "handwerk"
	KeyRetailGastro = "retail_gastro"
	KeyService      = "service"
	KeyTourism      = "tourism"
	KeyStartup      = "startup"
)

// Segment is a customer category with its key and German display name.
type Segment struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// All lists the segments in presentation order.
var All = []Segment{
	{Key: KeyKMU, DisplayName: "KMU"},
	{Key: KeyHandwerk, DisplayName: "Handwerk"},
	{Key: KeyRetailGastro, DisplayName: "Retail & Gastro"},
	{Key: KeyService, DisplayName: "Dienstleistungen"},
	{Key: KeyTourism, DisplayName: "Tourismus"},
	{Key: KeyStartup, DisplayName: "Startups"},
}

// ByKey looks up a segment by its key. Keys are matched exactly.
func ByKey(key string) (Segment, bool) {
	for _, s := range All {
		if s.Key == key {
			return s, true
		}
	}
	return Segment{}, false
}

// Default returns the segment used when no valid key is given.
func Default() Segment {
	return All[0]
}
