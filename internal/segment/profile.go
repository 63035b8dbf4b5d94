package segment

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile holds the factor weights for one segment. Weights must be
// non-negative and sum to 1.
type Profile struct {
	Income      float64 `yaml:"income"`
	Population  float64 `yaml:"population"`
	Hotspots    float64 `yaml:"hotspots"`
	Advertising float64 `yaml:"advertising"`
	Urban       float64 `yaml:"urban"`
}

// Sum returns the sum of all factor weights.
func (p Profile) Sum() float64 {
	return p.Income + p.Population + p.Hotspots + p.Advertising + p.Urban
}

// Profiles maps segment keys to their weight profiles.
type Profiles map[string]Profile

// DefaultProfiles returns the built-in weight profiles. Each sums to 1.
func DefaultProfiles() Profiles {
	return Profiles{
		KeyKMU:          {Income: 0.25, Population: 0.25, Hotspots: 0.15, Advertising: 0.15, Urban: 0.20},
		KeyHandwerk:     {Income: 0.15, Population: 0.35, Hotspots: 0.10, Advertising: 0.15, Urban: 0.25},
		KeyRetailGastro: {Income: 0.20, Population: 0.20, Hotspots: 0.25, Advertising: 0.25, Urban: 0.10},
		KeyService:      {Income: 0.30, Population: 0.20, Hotspots: 0.15, Advertising: 0.10, Urban: 0.25},
		KeyTourism:      {Income: 0.10, Population: 0.05, Hotspots: 0.35, Advertising: 0.20, Urban: 0.30},
		KeyStartup:      {Income: 0.20, Population: 0.20, Hotspots: 0.15, Advertising: 0.10, Urban: 0.35},
	}
}

// LoadProfiles reads weight profiles from a YAML file, falling back to the
// defaults for segments the file does not mention. A missing file returns
// the defaults unchanged.
func LoadProfiles(path string) (Profiles, error) {
	profiles := DefaultProfiles()

	if path == "" {
		return profiles, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return profiles, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "segment: read profiles file")
	}

	var fromFile Profiles
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return nil, eris.Wrap(err, "segment: parse profiles YAML")
	}

	for key, p := range fromFile {
		if _, ok := ByKey(key); !ok {
			return nil, eris.Errorf("segment: unknown segment key %q in profiles file", key)
		}
		profiles[key] = p
	}

	if err := ValidateProfiles(profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ValidateProfiles checks that every segment has a profile with
// non-negative weights summing to 1.
func ValidateProfiles(profiles Profiles) error {
	var errs []string

	for _, s := range All {
		p, ok := profiles[s.Key]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing profile for %s", s.Key))
			continue
		}
		for name, w := range map[string]float64{
			"income":      p.Income,
			"population":  p.Population,
			"hotspots":    p.Hotspots,
			"advertising": p.Advertising,
			"urban":       p.Urban,
		} {
			if w < 0 {
				errs = append(errs, fmt.Sprintf("%s: %s must be >= 0", s.Key, name))
			}
		}
		if sum := p.Sum(); math.Abs(sum-1) > 1e-9 {
			errs = append(errs, fmt.Sprintf("%s: weights sum to %.4f, want 1", s.Key, sum))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("segment: invalid profiles: %s", strings.Join(errs, "; "))
	}
	return nil
}
