package domain

// Category labels a candidate relative to the baseline attraction of the
// currently playing artist.
type Category string

const (
	CategoryCloser  Category = "CLOSER"
	CategoryNeutral Category = "NEUTRAL"
	CategoryFurther Category = "FURTHER"
)

// Valid reports whether the category is one of the three known labels.
func (c Category) Valid() bool {
	switch c {
	case CategoryCloser, CategoryNeutral, CategoryFurther:
		return true
	}
	return false
}

// Classify maps a delta from baseline onto a category. Deltas within the
// tolerance band in either direction are NEUTRAL.
func Classify(delta, tolerance float64) Category {
	switch {
	case delta > tolerance:
		return CategoryCloser
	case delta < -tolerance:
		return CategoryFurther
	default:
		return CategoryNeutral
	}
}
