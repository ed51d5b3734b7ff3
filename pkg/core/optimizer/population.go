package optimizer

import "math/rand/v2"

// Individual is one candidate timetable: Genes[i] is the slot index of course i
type Individual struct {
	Genes   []int
	Fitness float64

	// evaluated is false when the genes changed since Fitness was computed
	evaluated bool
}

func (ind *Individual) clone() *Individual {
	genes := make([]int, len(ind.Genes))
	copy(genes, ind.Genes)
	return &Individual{
		Genes:     genes,
		Fitness:   ind.Fitness,
		evaluated: ind.evaluated,
	}
}

func randomIndividual(rng *rand.Rand, length, slotCount int) *Individual {
	genes := make([]int, length)
	for i := range genes {
		genes[i] = rng.IntN(slotCount)
	}
	return &Individual{Genes: genes}
}

// selectTournament picks k individuals, each the fittest of tournamentSize
// random draws (with replacement). Ties keep the earliest draw.
func selectTournament(rng *rand.Rand, population []*Individual, k, tournamentSize int) []*Individual {
	selected := make([]*Individual, 0, k)
	for range k {
		best := population[rng.IntN(len(population))]
		for j := 1; j < tournamentSize; j++ {
			aspirant := population[rng.IntN(len(population))]
			if aspirant.Fitness > best.Fitness {
				best = aspirant
			}
		}
		selected = append(selected, best)
	}
	return selected
}

// crossoverTwoPoint swaps the gene range [p1, p2) between a and b. Genotypes
// shorter than two genes are left alone.
func crossoverTwoPoint(rng *rand.Rand, a, b *Individual) {
	size := min(len(a.Genes), len(b.Genes))
	if size < 2 {
		return
	}

	p1 := 1 + rng.IntN(size)
	p2 := 1 + rng.IntN(size-1)
	if p2 >= p1 {
		p2++
	} else {
		p1, p2 = p2, p1
	}

	for i := p1; i < p2; i++ {
		a.Genes[i], b.Genes[i] = b.Genes[i], a.Genes[i]
	}
}

// mutateUniformInt redraws each gene with probability perGeneRate from [0, slotCount)
func mutateUniformInt(rng *rand.Rand, ind *Individual, slotCount int, perGeneRate float64) {
	for i := range ind.Genes {
		if rng.Float64() < perGeneRate {
			ind.Genes[i] = rng.IntN(slotCount)
		}
	}
}
