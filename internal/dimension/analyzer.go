// Package dimension analyzes whether a product arrangement physically fits a
// shelf/stand geometry and how efficiently it uses the available volume.
// Everything here is a pure computation over the specification; physically
// impossible inputs are reported as data, never rejected.
package dimension

import (
	"fmt"
	"math"

	"standforge/internal/logging"
	"standforge/internal/spec"
)

// Fixed geometry allowances, in centimeters.
const (
	// VerticalClearance is headroom required above each product row.
	VerticalClearance = 3.0

	// ShelfThickness is the assumed material thickness per shelf.
	ShelfThickness = 2.0

	// MinProductGap is the minimum spacing between adjacent products.
	MinProductGap = 0.5

	// slotHeightPadding converts product height to effective shelf slot height.
	slotHeightPadding = 2.0
)

// Efficiency bucket thresholds (percent of stand volume used).
const (
	thresholdExcellent = 70.0
	thresholdGood      = 50.0
	thresholdFair      = 30.0
)

// ConstraintType classifies a manufacturing constraint.
type ConstraintType string

const (
	ConstraintStructural ConstraintType = "structural"
	ConstraintAesthetic  ConstraintType = "aesthetic"
	ConstraintPractical  ConstraintType = "practical"
	ConstraintSafety     ConstraintType = "safety"
)

// Severity ranks how serious a constraint is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Constraint is a severity-tagged note that a given geometry is impractical
// or unsafe to build, with a concrete suggestion.
type Constraint struct {
	Type       ConstraintType
	Severity   Severity
	Suggestion string
}

// Layout describes how products pack onto a single shelf.
type Layout struct {
	ProductsPerRow    int
	ProductsPerColumn int
	ProductsPerShelf  int
	TotalCapacity     int
	// Spacing is the minimum leftover distance per gap, across width and depth.
	Spacing float64
}

// EfficiencyBucket is the qualitative volume-usage rating.
type EfficiencyBucket string

const (
	EfficiencyPoor      EfficiencyBucket = "poor"
	EfficiencyFair      EfficiencyBucket = "fair"
	EfficiencyGood      EfficiencyBucket = "good"
	EfficiencyExcellent EfficiencyBucket = "excellent"
)

// Utilization reports how much of the available volume the products occupy.
type Utilization struct {
	ShelfUsagePercent float64
	StandUsagePercent float64
	WastedVolume      float64
	Efficiency        EfficiencyBucket
}

// Result is the full analyzer output. IsPhysicallyValid is true iff no fit
// issue was detected; the caller decides whether to proceed regardless.
type Result struct {
	IsPhysicallyValid bool
	Issues            []string
	Recommendations   []string
	Layout            Layout
	Utilization       Utilization
	Constraints       []Constraint
}

// Analyze runs the fit, packing, utilization and secondary-constraint checks
// over a specification. Features with non-positive measurements are treated
// as absent and their checks are skipped.
func Analyze(s spec.Specification) Result {
	log := logging.Get(logging.CategoryDimension)

	var res Result

	hasProduct := s.Product.Valid()
	hasShelf := s.Shelf.Width > 0 && s.Shelf.Depth > 0
	hasStand := s.Stand.Valid()
	shelfCount := s.ShelfCount

	// 1. Basic fit checks.
	if hasProduct && hasShelf {
		if s.Product.Width > s.Shelf.Width {
			res.Issues = append(res.Issues, fmt.Sprintf(
				"product width %.1fcm exceeds shelf width %.1fcm", s.Product.Width, s.Shelf.Width))
			res.Constraints = append(res.Constraints, Constraint{
				Type:     ConstraintStructural,
				Severity: SeverityCritical,
				Suggestion: fmt.Sprintf("increase shelf width to at least %.1fcm",
					s.Product.Width+2),
			})
		}
		if s.Product.Depth > s.Shelf.Depth {
			res.Issues = append(res.Issues, fmt.Sprintf(
				"product depth %.1fcm exceeds shelf depth %.1fcm", s.Product.Depth, s.Shelf.Depth))
			res.Constraints = append(res.Constraints, Constraint{
				Type:     ConstraintStructural,
				Severity: SeverityCritical,
				Suggestion: fmt.Sprintf("increase shelf depth to at least %.1fcm",
					s.Product.Depth+2),
			})
		}
	}
	if hasShelf && hasStand {
		if s.Shelf.Width > s.Stand.Width {
			res.Issues = append(res.Issues, fmt.Sprintf(
				"shelf width %.1fcm exceeds stand width %.1fcm", s.Shelf.Width, s.Stand.Width))
			res.Constraints = append(res.Constraints, Constraint{
				Type:     ConstraintStructural,
				Severity: SeverityHigh,
				Suggestion: fmt.Sprintf("increase stand width to at least %.1fcm",
					s.Shelf.Width),
			})
		}
		if s.Shelf.Depth > s.Stand.Depth {
			res.Issues = append(res.Issues, fmt.Sprintf(
				"shelf depth %.1fcm exceeds stand depth %.1fcm", s.Shelf.Depth, s.Stand.Depth))
			res.Constraints = append(res.Constraints, Constraint{
				Type:     ConstraintStructural,
				Severity: SeverityHigh,
				Suggestion: fmt.Sprintf("increase stand depth to at least %.1fcm",
					s.Shelf.Depth),
			})
		}
	}
	if hasProduct && hasStand && shelfCount > 0 {
		required := float64(shelfCount) * (s.Product.Height + VerticalClearance + ShelfThickness)
		if required > s.Stand.Height {
			res.Issues = append(res.Issues, fmt.Sprintf(
				"%d shelves need %.1fcm of vertical space but stand height is %.1fcm",
				shelfCount, required, s.Stand.Height))
			res.Constraints = append(res.Constraints, Constraint{
				Type:     ConstraintStructural,
				Severity: SeverityCritical,
				Suggestion: fmt.Sprintf("increase stand height to at least %.1fcm or reduce shelf count",
					required),
			})
		}
	}

	// 2. Layout packing.
	if hasProduct && hasShelf {
		res.Layout = packShelf(s.Product, s.Shelf, shelfCount)
	}

	// 3. Utilization.
	if hasProduct && hasShelf && res.Layout.ProductsPerShelf > 0 {
		res.Utilization = computeUtilization(s, res.Layout)
	} else {
		res.Utilization.Efficiency = EfficiencyPoor
	}

	// 4. Secondary manufacturing constraints.
	res.Constraints = append(res.Constraints, secondaryConstraints(s)...)

	res.Recommendations = recommendations(s, res)
	res.IsPhysicallyValid = len(res.Issues) == 0

	log.Debugw("dimensional analysis complete",
		"valid", res.IsPhysicallyValid,
		"issues", len(res.Issues),
		"capacity", res.Layout.TotalCapacity,
		"efficiency", res.Utilization.Efficiency)

	return res
}

// fitWithGap solves n*size + (n-1)*gap <= available for the largest n.
func fitWithGap(available, size, gap float64) int {
	if size <= 0 || available < size {
		return 0
	}
	return int(math.Floor((available + gap) / (size + gap)))
}

// packShelf computes the per-shelf grid refined by the minimum product gap.
func packShelf(product, shelf spec.Dimensions, shelfCount int) Layout {
	var l Layout

	l.ProductsPerRow = fitWithGap(shelf.Width, product.Width, MinProductGap)
	l.ProductsPerColumn = fitWithGap(shelf.Depth, product.Depth, MinProductGap)
	l.ProductsPerShelf = l.ProductsPerRow * l.ProductsPerColumn

	if shelfCount > 0 {
		l.TotalCapacity = l.ProductsPerShelf * shelfCount
	} else {
		l.TotalCapacity = l.ProductsPerShelf
	}

	// Leftover width and depth spread across the gaps on each axis; report
	// the tighter of the two.
	if l.ProductsPerRow > 0 && l.ProductsPerColumn > 0 {
		spacingW := (shelf.Width - float64(l.ProductsPerRow)*product.Width) / float64(l.ProductsPerRow+1)
		spacingD := (shelf.Depth - float64(l.ProductsPerColumn)*product.Depth) / float64(l.ProductsPerColumn+1)
		l.Spacing = math.Min(spacingW, spacingD)
	}

	return l
}

// computeUtilization derives shelf and stand usage percentages. The shelf
// slot height is the product height plus padding, so a shelf packed edge to
// edge still reads below 100%.
func computeUtilization(s spec.Specification, l Layout) Utilization {
	var u Utilization

	productVolume := s.Product.Volume()
	slotVolume := s.Shelf.Width * s.Shelf.Depth * (s.Product.Height + slotHeightPadding)
	if slotVolume > 0 {
		u.ShelfUsagePercent = float64(l.ProductsPerShelf) * productVolume / slotVolume * 100
	}

	standVolume := s.Stand.Volume()
	if standVolume > 0 {
		totalProductVolume := float64(l.TotalCapacity) * productVolume
		u.StandUsagePercent = totalProductVolume / standVolume * 100
		u.WastedVolume = standVolume - totalProductVolume
	}

	u.Efficiency = bucketFor(u.StandUsagePercent)

	return u
}

// bucketFor maps a stand usage percentage to its qualitative bucket.
func bucketFor(percent float64) EfficiencyBucket {
	switch {
	case percent >= thresholdExcellent:
		return EfficiencyExcellent
	case percent >= thresholdGood:
		return EfficiencyGood
	case percent >= thresholdFair:
		return EfficiencyFair
	default:
		return EfficiencyPoor
	}
}

// secondaryConstraints covers stability, clearance, tolerance and tip-over
// heuristics that do not invalidate the build but make it impractical.
func secondaryConstraints(s spec.Specification) []Constraint {
	var cs []Constraint

	if s.Stand.Valid() {
		base := math.Min(s.Stand.Width, s.Stand.Depth)
		if base > 0 && s.Stand.Height/base > 2.5 {
			cs = append(cs, Constraint{
				Type:     ConstraintStructural,
				Severity: SeverityHigh,
				Suggestion: fmt.Sprintf("stand is %.1fx taller than its base; widen the base or add ballast",
					s.Stand.Height/base),
			})
		}
	}

	if s.Stand.Height > 0 && s.ShelfCount > 0 && s.Product.Height > 0 {
		perShelf := (s.Stand.Height - float64(s.ShelfCount)*ShelfThickness) / float64(s.ShelfCount)
		if perShelf < s.Product.Height+VerticalClearance {
			cs = append(cs, Constraint{
				Type:     ConstraintPractical,
				Severity: SeverityMedium,
				Suggestion: fmt.Sprintf("only %.1fcm per shelf opening; products need %.1fcm for comfortable access",
					perShelf, s.Product.Height+VerticalClearance),
			})
		}
	}

	if s.Product.Width > 0 && s.Product.Width == s.Shelf.Width {
		cs = append(cs, Constraint{
			Type:       ConstraintPractical,
			Severity:   SeverityMedium,
			Suggestion: "product width equals shelf width exactly; no tolerance for product placement",
		})
	}

	if s.ShelfCount > 3 && s.Shelf.Depth > 0 && s.Shelf.Depth < 20 {
		cs = append(cs, Constraint{
			Type:       ConstraintSafety,
			Severity:   SeverityHigh,
			Suggestion: "tall stands with shallow shelves risk tipping when loaded; deepen shelves or anchor the stand",
		})
	}

	return cs
}

// recommendations derives advisory text from the analysis. Heuristic only.
func recommendations(s spec.Specification, res Result) []string {
	var recs []string

	if s.Stand.Width > 0 && s.Stand.Height/s.Stand.Width > 2 {
		recs = append(recs, "consider a wider base for visual and physical stability")
	}
	if res.Utilization.Efficiency == EfficiencyPoor && res.Layout.TotalCapacity > 0 {
		recs = append(recs, "stand volume is mostly empty; a smaller stand or more facings would read better")
	}
	if res.Layout.Spacing > 0 && res.Layout.Spacing < 1.0 {
		recs = append(recs, fmt.Sprintf("only %.1fcm between products; restocking will be fiddly", res.Layout.Spacing))
	}
	if !res.IsPhysicallyValid {
		recs = append(recs, "resolve the fit issues before committing to manufacturing")
	}

	return recs
}
