package hierarchy

import (
	"fmt"
	"strings"

	"standforge/internal/formdata"
	"standforge/internal/spec"
)

// styleTemplates are the creative scene openers. The verbs and adjectives
// stay deliberately soft; every hard fact comes from the form block, which
// overrides anything said here.
var styleTemplates = []string{
	"A clean studio scene with soft diffused lighting presenting %s on a retail display stand.",
	"A modern retail interior, warm accent lighting, featuring %s on a freestanding display unit.",
	"A minimalist product showcase, neutral backdrop and subtle shadows, with %s arranged on a display stand.",
	"An elegant boutique setting with dramatic spot lighting on %s displayed on a branded stand.",
	"A bright trade-show booth scene presenting %s on a premium point-of-sale display.",
}

// StyleCount reports how many scene templates exist. Seeds are taken modulo
// this count, so any int64 is a valid seed.
func StyleCount() int {
	return len(styleTemplates)
}

// BasePrompt builds the creative opening for a run. Selection is a pure
// function of seed, so repeated runs with the same seed produce the same
// scene wording.
func BasePrompt(s spec.Specification, seed int64) string {
	idx := int(seed % int64(len(styleTemplates)))
	if idx < 0 {
		idx += len(styleTemplates)
	}

	subject := "the product"
	switch {
	case s.BrandName != "" && s.ProductName != "":
		subject = s.BrandName + " " + s.ProductName
	case s.ProductName != "":
		subject = s.ProductName
	case s.BrandName != "":
		subject = s.BrandName + " products"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, styleTemplates[idx], subject)

	if arrangement := formdata.ArrangementText(s); arrangement != "" {
		fmt.Fprintf(&sb, " The arrangement shows %s.", arrangement)
	}
	if s.BaseColor != "" {
		fmt.Fprintf(&sb, " The stand base is %s.", s.BaseColor)
	}
	if len(s.Materials) > 0 {
		fmt.Fprintf(&sb, " Built from %s.", strings.Join(s.Materials, " and "))
	}

	return sb.String()
}
