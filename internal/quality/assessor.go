// Package quality scores a prompt string for density, redundancy and form
// specificity. It is a pure, deterministic scoring function over fixed
// keyword tables; the tables and thresholds are behavioral contracts shared
// with the compressor's level selection.
package quality

import (
	"math"
	"regexp"
	"strings"
)

// CompressionLevel is the recommended lossy-shrink aggressiveness. Defined
// here because the compressor depends on the assessor's output type only.
type CompressionLevel string

const (
	LevelConservative CompressionLevel = "conservative"
	LevelModerate     CompressionLevel = "moderate"
	LevelAggressive   CompressionLevel = "aggressive"
)

// Bucket is the qualitative overall rating.
type Bucket string

const (
	BucketHigh   Bucket = "high"
	BucketMedium Bucket = "medium"
	BucketLow    Bucket = "low"
)

// Metrics is the assessor output. All scores are in [0,1].
type Metrics struct {
	ContentDensity            float64
	RedundancyScore           float64
	FormSpecificityScore      float64
	CreativeContentRatio      float64
	CriticalContentRatio      float64
	OverallQuality            Bucket
	CompressionRecommendation CompressionLevel
}

// Fixed vocabularies. Hits are counted over lowercased word tokens.
var (
	technicalTerms = map[string]bool{
		"shelf": true, "shelves": true, "product": true, "products": true,
		"display": true, "stand": true, "width": true, "depth": true,
		"height": true, "dimensions": true, "material": true, "materials": true,
		"arrangement": true, "placement": true, "row": true, "rows": true,
		"facing": true, "spacing": true, "cm": true,
	}

	criticalMarkers = map[string]bool{
		"exactly": true, "must": true, "absolute": true, "absolutely": true,
		"critical": true, "required": true, "mandatory": true, "override": true,
	}

	brandMarkers = map[string]bool{
		"brand": true, "branding": true, "logo": true, "branded": true,
	}

	creativeAdjectives = map[string]bool{
		"elegant": true, "beautiful": true, "stunning": true, "modern": true,
		"sleek": true, "vibrant": true, "luxurious": true, "minimalist": true,
		"warm": true, "dramatic": true, "artistic": true, "creative": true,
		"premium": true, "sophisticated": true,
	}

	redundantPhrases = []string{
		"in order to", "make sure", "please ensure", "keep in mind",
		"it is important", "very", "really", "extremely",
	}

	wordRe        = regexp.MustCompile(`\b[\w-]+\b`)
	numericSpecRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:cm|mm|%)?\b`)
)

// Assess computes the quality metrics for a prompt.
func Assess(prompt string) Metrics {
	var m Metrics
	if prompt == "" {
		m.OverallQuality = BucketLow
		m.CompressionRecommendation = LevelModerate
		return m
	}

	lower := strings.ToLower(prompt)
	words := wordRe.FindAllString(lower, -1)
	total := len(words)

	var technicalHits, criticalHits, brandHits, creativeHits int
	unique := make(map[string]bool, total)
	for _, w := range words {
		unique[w] = true
		if technicalTerms[w] {
			technicalHits++
		}
		if criticalMarkers[w] {
			criticalHits++
		}
		if brandMarkers[w] {
			brandHits++
		}
		if creativeAdjectives[w] {
			creativeHits++
		}
	}
	numericHits := len(numericSpecRe.FindAllString(lower, -1))

	var redundantHits int
	for _, phrase := range redundantPhrases {
		redundantHits += strings.Count(lower, phrase)
	}

	m.ContentDensity = math.Min(1,
		1000*float64(technicalHits+numericHits+brandHits+criticalHits)/float64(len(prompt)))

	if total > 0 {
		m.RedundancyScore = math.Min(1,
			(1-float64(len(unique))/float64(total))+10*float64(redundantHits)/float64(total))
		m.CreativeContentRatio = math.Min(1, 10*float64(creativeHits)/float64(total))
		m.CriticalContentRatio = math.Min(1,
			5*float64(technicalHits+numericHits+criticalHits)/float64(total))
	}

	m.FormSpecificityScore = formSpecificity(prompt, lower, numericHits, criticalHits)

	mean := (m.ContentDensity + (1 - m.RedundancyScore) + m.FormSpecificityScore) / 3
	switch {
	case mean > 0.7:
		m.OverallQuality = BucketHigh
	case mean > 0.4:
		m.OverallQuality = BucketMedium
	default:
		m.OverallQuality = BucketLow
	}

	switch {
	case m.RedundancyScore > 0.6 && m.CriticalContentRatio < 0.3:
		m.CompressionRecommendation = LevelAggressive
	case m.RedundancyScore > 0.4 || m.CriticalContentRatio < 0.5:
		m.CompressionRecommendation = LevelModerate
	default:
		m.CompressionRecommendation = LevelConservative
	}

	return m
}

// formSpecificity is an additive bonus score capped at 1.0.
func formSpecificity(prompt, lower string, numericHits, criticalHits int) float64 {
	var score float64

	if strings.Contains(prompt, "EXACTLY") {
		score += 0.3
	}
	if numericHits > 3 {
		score += 0.2
	}
	if criticalHits > 0 {
		score += 0.2
	}
	if strings.Contains(lower, "front") && strings.Contains(lower, "back") {
		score += 0.1
	}
	if strings.Contains(lower, "shelf") && strings.Contains(lower, "product") {
		score += 0.1
	}
	if strings.Contains(lower, "arrangement") && strings.Contains(lower, "placement") {
		score += 0.1
	}

	return math.Min(1, score)
}
