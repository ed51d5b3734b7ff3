package optimizer

import "github.com/jakechorley/exam-scheduler/pkg/core/conflictgraph"

// GraphConflictConstraint reads the conflict graph directly: every edge whose
// two courses land on the same day costs SameDayPenalty per shared student.
//
// For students with at most two exams on a day this matches
// SameDayConstraint exactly. A student with c > 2 exams on one day costs
// c*(c-1)/2 pair penalties here instead of c-1.
type GraphConflictConstraint struct {
	edges   []conflictgraph.Edge // From/To are gene indices
	slotDay []int
}

// NewGraphConflictConstraint creates a GraphConflictConstraint. Edges must
// already be expressed in gene indices.
func NewGraphConflictConstraint(edges []conflictgraph.Edge, slotDay []int) *GraphConflictConstraint {
	return &GraphConflictConstraint{
		edges:   edges,
		slotDay: slotDay,
	}
}

func (c *GraphConflictConstraint) Name() string {
	return "GraphConflict"
}

func (c *GraphConflictConstraint) Penalty(genes []int) float64 {
	penalty := 0.0
	for _, edge := range c.edges {
		if c.slotDay[genes[edge.From]] == c.slotDay[genes[edge.To]] {
			penalty += float64(edge.Weight) * SameDayPenalty
		}
	}
	return penalty
}
