package memory

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

// FixtureFile is the YAML layout of a vendor fixture file.
type FixtureFile struct {
	Vendors []VendorRecord `yaml:"vendors"`
}

// VendorRecord is one vendor in a fixture file.
type VendorRecord struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"displayName"`
	Categories  []string `yaml:"serviceCategories"`
	City        string   `yaml:"city"`
	State       string   `yaml:"state"`
	HourlyRate  *float64 `yaml:"hourlyRate"`
	Rating      float64  `yaml:"rating"`
	RatingCount int      `yaml:"ratingCount"`
	Latitude    *float64 `yaml:"latitude"`
	Longitude   *float64 `yaml:"longitude"`
	Active      *bool    `yaml:"active"`
}

// LoadFixtureFile reads vendors from a YAML file.
func LoadFixtureFile(path string) ([]vendors.Vendor, error) {
	f, err := os.Open(path) //nolint:gosec // path from config
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadFixtures(f)
}

// LoadFixtures decodes and validates vendors. Records without an id get a
// random one; active defaults to true.
func LoadFixtures(r io.Reader) ([]vendors.Vendor, error) {
	var file FixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	out := make([]vendors.Vendor, 0, len(file.Vendors))
	seen := make(map[string]struct{}, len(file.Vendors))
	for i := range file.Vendors {
		v, err := file.Vendors[i].toVendor()
		if err != nil {
			return nil, fmt.Errorf("vendor #%d: %w", i, err)
		}
		if _, dup := seen[v.ID()]; dup {
			return nil, fmt.Errorf("vendor #%d: duplicate id %q", i, v.ID())
		}
		seen[v.ID()] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func (r *VendorRecord) toVendor() (vendors.Vendor, error) {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	active := true
	if r.Active != nil {
		active = *r.Active
	}

	p := vendors.Params{
		ID:          id,
		DisplayName: r.DisplayName,
		Categories:  r.Categories,
		City:        r.City,
		State:       r.State,
		HourlyRate:  r.HourlyRate,
		Rating:      r.Rating,
		RatingCount: r.RatingCount,
		Active:      active,
	}

	switch {
	case r.Latitude != nil && r.Longitude != nil:
		pt, err := geo.NewPoint(*r.Latitude, *r.Longitude)
		if err != nil {
			return vendors.Vendor{}, err
		}
		p.Location = &pt
	case r.Latitude != nil || r.Longitude != nil:
		return vendors.Vendor{}, errors.New("latitude and longitude must be set together")
	}

	return vendors.New(p)
}
