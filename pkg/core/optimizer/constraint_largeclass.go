package optimizer

// LargeClassConstraint is a soft cost for courses whose enrollment exceeds a
// threshold, standing in for the room split they will likely need. The cost
// does not depend on the slot assignment, so it shifts every individual's
// fitness by the same amount.
type LargeClassConstraint struct {
	penalty float64
}

// NewLargeClassConstraint counts the courses above threshold once, up front
func NewLargeClassConstraint(courseSizes []int, threshold int) *LargeClassConstraint {
	count := 0
	for _, size := range courseSizes {
		if size > threshold {
			count++
		}
	}
	return &LargeClassConstraint{penalty: float64(count) * LargeClassPenalty}
}

func (c *LargeClassConstraint) Name() string {
	return "LargeClass"
}

func (c *LargeClassConstraint) Penalty(genes []int) float64 {
	return c.penalty
}
