// Package spec defines the caller-supplied specification that drives the
// pipeline: product, shelf and stand geometry plus branding facts. A
// Specification is immutable once handed to the pipeline; every derived
// entity is computed fresh per run.
package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Dimensions is a width/depth/height triple in centimeters.
type Dimensions struct {
	Width  float64 `yaml:"width" json:"width"`
	Depth  float64 `yaml:"depth" json:"depth"`
	Height float64 `yaml:"height" json:"height"`
}

// Valid reports whether all three measurements are positive. Non-positive
// measurements mean the feature is absent and its checks are skipped; they
// are never a hard failure.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Depth > 0 && d.Height > 0
}

// Volume returns the box volume in cubic centimeters, or 0 if invalid.
func (d Dimensions) Volume() float64 {
	if !d.Valid() {
		return 0
	}
	return d.Width * d.Depth * d.Height
}

// Specification is the absolute-truth input record (Tier 1). All numeric
// fields are centimeters; zero values mean the field was not supplied.
type Specification struct {
	Product Dimensions `yaml:"product" json:"product"`
	Shelf   Dimensions `yaml:"shelf" json:"shelf"`
	Stand   Dimensions `yaml:"stand" json:"stand"`

	FrontFaceCount  int `yaml:"front_face_count" json:"frontFaceCount"`
	BackToBackCount int `yaml:"back_to_back_count" json:"backToBackCount"`
	ShelfCount      int `yaml:"shelf_count" json:"shelfCount"`

	BrandName   string   `yaml:"brand_name" json:"brandName"`
	ProductName string   `yaml:"product_name" json:"productName"`
	BaseColor   string   `yaml:"base_color" json:"baseColor"`
	Materials   []string `yaml:"materials" json:"materials"`
}

// Fingerprint returns a stable digest of the specification, used as the
// memoization key for derived analyses.
func (s Specification) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "p:%g,%g,%g|sh:%g,%g,%g|st:%g,%g,%g|",
		s.Product.Width, s.Product.Depth, s.Product.Height,
		s.Shelf.Width, s.Shelf.Depth, s.Shelf.Height,
		s.Stand.Width, s.Stand.Depth, s.Stand.Height)
	fmt.Fprintf(h, "ff:%d|bb:%d|sc:%d|", s.FrontFaceCount, s.BackToBackCount, s.ShelfCount)
	fmt.Fprintf(h, "b:%s|n:%s|c:%s|m:%s",
		s.BrandName, s.ProductName, s.BaseColor, strings.Join(s.Materials, ","))
	return hex.EncodeToString(h.Sum(nil))
}
