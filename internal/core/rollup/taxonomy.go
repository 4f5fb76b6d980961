package rollup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bucket is the aggregation bucket an event type counts toward. Only three
// buckets exist regardless of how many click subtypes the directory UI emits.
type Bucket int

const (
	BucketClick Bucket = iota // default bucket for anything not view/share
	BucketView
	BucketShare
)

// Taxonomy maps event types to buckets. Types not present in the map fall
// back to BucketClick: the directory UI grows new click subtypes faster than
// this service ships, and counting them as generic clicks is the contract.
type Taxonomy struct {
	buckets map[string]Bucket
}

// taxonomyFile is the on-disk YAML shape for custom taxonomies.
type taxonomyFile struct {
	ViewTypes  []string `yaml:"view_types"`
	ShareTypes []string `yaml:"share_types"`
	ClickTypes []string `yaml:"click_types"`
}

// DefaultTaxonomy returns the built-in event-type mapping.
func DefaultTaxonomy() *Taxonomy {
	return newTaxonomy(taxonomyFile{
		ViewTypes:  []string{"view"},
		ShareTypes: []string{"share"},
		ClickTypes: []string{
			"click_website",
			"click_call",
			"click_email",
			"click_whatsapp",
			"click_instagram",
		},
	})
}

// LoadTaxonomy reads a taxonomy YAML file. An empty path returns the
// built-in defaults.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file %s: %w", path, err)
	}

	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing taxonomy file %s: %w", path, err)
	}
	if len(f.ViewTypes) == 0 {
		return nil, fmt.Errorf("taxonomy file %s: view_types must not be empty", path)
	}
	if len(f.ShareTypes) == 0 {
		return nil, fmt.Errorf("taxonomy file %s: share_types must not be empty", path)
	}

	return newTaxonomy(f), nil
}

func newTaxonomy(f taxonomyFile) *Taxonomy {
	buckets := make(map[string]Bucket, len(f.ViewTypes)+len(f.ShareTypes)+len(f.ClickTypes))
	for _, t := range f.ClickTypes {
		buckets[t] = BucketClick
	}
	for _, t := range f.ShareTypes {
		buckets[t] = BucketShare
	}
	for _, t := range f.ViewTypes {
		buckets[t] = BucketView
	}
	return &Taxonomy{buckets: buckets}
}

// BucketFor returns the bucket for an event type. Unknown types count as
// generic clicks.
func (tx *Taxonomy) BucketFor(eventType string) Bucket {
	if b, ok := tx.buckets[eventType]; ok {
		return b
	}
	return BucketClick
}
