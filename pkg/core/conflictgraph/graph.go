package conflictgraph

import (
	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// Graph is an undirected course conflict graph. Two courses are adjacent when
// at least one student is enrolled in both. Each edge also carries the number
// of students the two courses share.
type Graph struct {
	nodes []string
	index map[string]int

	// adjacency[i][j] is the number of students shared by courses i and j
	adjacency []map[int]int
	edgeCount int
}

// Edge is a conflicting course pair (by node index) and its shared student count
type Edge struct {
	From   int
	To     int
	Weight int
}

func newGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
	}
}

func (g *Graph) addNode(courseID string) int {
	if idx, ok := g.index[courseID]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, courseID)
	g.index[courseID] = idx
	g.adjacency = append(g.adjacency, make(map[int]int))
	return idx
}

func (g *Graph) addConflict(a, b int) {
	if a == b {
		return
	}
	if _, exists := g.adjacency[a][b]; !exists {
		g.edgeCount++
	}
	g.adjacency[a][b]++
	g.adjacency[b][a]++
}

// Build derives the conflict graph from enrollment pairs.
//
// Nodes appear in order of first enrollment. Students are processed in order of
// first appearance and every pair of their courses becomes an edge; an edge is
// counted once no matter how many students share it. Duplicate enrollments of
// the same student in the same course are ignored.
func Build(enrollments []model.Enrollment) *Graph {
	g := newGraph()

	studentOrder := make([]string, 0)
	studentCourses := make(map[string][]int)
	seen := make(map[model.Enrollment]bool)

	for _, e := range enrollments {
		courseIdx := g.addNode(e.CourseID)

		if seen[e] {
			continue
		}
		seen[e] = true

		if _, ok := studentCourses[e.StudentID]; !ok {
			studentOrder = append(studentOrder, e.StudentID)
		}
		studentCourses[e.StudentID] = append(studentCourses[e.StudentID], courseIdx)
	}

	for _, studentID := range studentOrder {
		courses := studentCourses[studentID]
		for i := 0; i < len(courses); i++ {
			for j := i + 1; j < len(courses); j++ {
				g.addConflict(courses[i], courses[j])
			}
		}
	}

	return g
}

// Nodes returns the course IDs in node order
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NodeCount returns the number of courses in the graph
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of conflicting course pairs
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// Contains reports whether the course is a node of the graph
func (g *Graph) Contains(courseID string) bool {
	_, ok := g.index[courseID]
	return ok
}

// HasEdge reports whether two courses share at least one student
func (g *Graph) HasEdge(a, b string) bool {
	return g.SharedStudents(a, b) > 0
}

// SharedStudents returns how many students are enrolled in both courses
func (g *Graph) SharedStudents(a, b string) int {
	ai, ok := g.index[a]
	if !ok {
		return 0
	}
	bi, ok := g.index[b]
	if !ok {
		return 0
	}
	return g.adjacency[ai][bi]
}

// Degree returns the number of courses conflicting with the given course
func (g *Graph) Degree(courseID string) int {
	idx, ok := g.index[courseID]
	if !ok {
		return 0
	}
	return len(g.adjacency[idx])
}

// Neighbors returns the courses conflicting with the given course, in node order
func (g *Graph) Neighbors(courseID string) []string {
	idx, ok := g.index[courseID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.adjacency[idx]))
	for j, name := range g.nodes {
		if _, adjacent := g.adjacency[idx][j]; adjacent {
			out = append(out, name)
		}
	}
	return out
}

// Edges returns every edge once (From < To), ordered by From then To
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)
	for i := range g.nodes {
		for j := i + 1; j < len(g.nodes); j++ {
			if w, ok := g.adjacency[i][j]; ok {
				edges = append(edges, Edge{From: i, To: j, Weight: w})
			}
		}
	}
	return edges
}

// Stats computes node/edge counts, density, average degree and the
// highest-degree course (first in node order on ties)
func (g *Graph) Stats() model.GraphStats {
	n := len(g.nodes)
	if n == 0 {
		return model.GraphStats{}
	}

	stats := model.GraphStats{
		Nodes: n,
		Edges: g.edgeCount,
	}

	if n > 1 {
		stats.Density = float64(2*g.edgeCount) / float64(n*(n-1))
	}

	totalDegree := 0
	maxDegree := -1
	for i, name := range g.nodes {
		degree := len(g.adjacency[i])
		totalDegree += degree
		if degree > maxDegree {
			maxDegree = degree
			stats.MaxDegreeCourse = name
		}
	}
	stats.AvgDegree = float64(totalDegree) / float64(n)

	return stats
}
