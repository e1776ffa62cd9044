package steady

import "math"

type scalarCluster struct {
	members []int
	mean    float64
}

// clusterScalars performs agglomerative clustering on 1-dimensional values
// with Ward linkage and no fixed cluster count: the closest pair merges
// until every remaining pairwise linkage distance reaches the threshold.
// Returned state ids are assigned by order of first appearance in the
// window, so the labeling is deterministic for a given input.
func clusterScalars(values []float64, threshold float64) []int {
	clusters := make([]*scalarCluster, len(values))
	for i, v := range values {
		clusters[i] = &scalarCluster{members: []int{i}, mean: v}
	}

	for len(clusters) > 1 {
		bestA, bestB := -1, -1
		bestDist := math.Inf(1)
		for a := 0; a < len(clusters); a++ {
			for b := a + 1; b < len(clusters); b++ {
				d := wardDistance(clusters[a], clusters[b])
				if d < bestDist {
					bestDist = d
					bestA, bestB = a, b
				}
			}
		}
		if bestDist >= threshold {
			break
		}
		merged := mergeClusters(clusters[bestA], clusters[bestB])
		clusters[bestA] = merged
		clusters = append(clusters[:bestB], clusters[bestB+1:]...)
	}

	// Relabel by first appearance.
	states := make([]int, len(values))
	clusterOf := make([]int, len(values))
	for ci, c := range clusters {
		for _, m := range c.members {
			clusterOf[m] = ci
		}
	}
	next := 0
	assigned := make(map[int]int, len(clusters))
	for i := range values {
		ci := clusterOf[i]
		id, ok := assigned[ci]
		if !ok {
			id = next
			assigned[ci] = id
			next++
		}
		states[i] = id
	}
	return states
}

// wardDistance is the Ward linkage distance between two scalar clusters:
// sqrt(2*na*nb/(na+nb)) * |meanA - meanB|.
func wardDistance(a, b *scalarCluster) float64 {
	na := float64(len(a.members))
	nb := float64(len(b.members))
	return math.Sqrt(2*na*nb/(na+nb)) * math.Abs(a.mean-b.mean)
}

func mergeClusters(a, b *scalarCluster) *scalarCluster {
	na := float64(len(a.members))
	nb := float64(len(b.members))
	return &scalarCluster{
		members: append(append([]int{}, a.members...), b.members...),
		mean:    (a.mean*na + b.mean*nb) / (na + nb),
	}
}
