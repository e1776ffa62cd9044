// Package steady labels each sample of an engine load series as belonging
// to a stable operating regime or to a transient. The decision is made per
// sliding window by clustering the smoothed signal and inspecting the
// state-transition graph, then reconciled across all windows covering a
// sample. States joined by a single crossing stay separate regimes; merging
// requires repeated exchange between them, which keeps the two levels of a
// sharp step apart and leaves the transition band unlabeled.
package steady

import (
	"math"
	"runtime"
	"sync"
)

type Params struct {
	// DistanceThreshold is the Ward linkage distance above which clusters
	// are not merged, in signal units.
	DistanceThreshold float64
	// Alpha is the exponential smoothing weight on the newest sample.
	Alpha float64
	// WindowLength is the number of samples per sliding window.
	WindowLength int
	// Step is the window stride.
	Step int
	// Workers bounds the per-window clustering concurrency. Zero means
	// one worker per CPU.
	Workers int
}

// Extract returns one regime label per input sample. Label 0 marks a
// transient or ambiguous sample; any non-zero label marks a sample every
// covering window agreed on.
func Extract(series []float64, p Params) []int {
	smoothed := Smooth(series, p.Alpha)
	labels := make([]int, len(series))
	if p.WindowLength <= 0 || p.Step <= 0 || len(smoothed) < p.WindowLength {
		return labels
	}

	starts := []int{}
	for s := 0; s+p.WindowLength <= len(smoothed); s += p.Step {
		starts = append(starts, s)
	}

	windowLabels := make([]int, len(starts))
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(starts) {
		workers = len(starts)
	}

	var wg sync.WaitGroup
	next := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				window := smoothed[starts[i] : starts[i]+p.WindowLength]
				windowLabels[i] = labelWindow(window, p.DistanceThreshold)
			}
		}()
	}
	for i := range starts {
		next <- i
	}
	close(next)
	wg.Wait()

	// A sample keeps a label only when every covering window agrees on it.
	for t := range smoothed {
		labels[t] = consensus(t, starts, p.WindowLength, windowLabels)
	}
	return labels
}

// Smooth applies recursive exponential smoothing with weight alpha on the
// newest sample. Missing (NaN) samples carry the previous smoothed value
// forward; leading NaNs stay NaN.
func Smooth(series []float64, alpha float64) []float64 {
	out := make([]float64, len(series))
	prev := math.NaN()
	for i, v := range series {
		if math.IsNaN(v) {
			out[i] = prev
			continue
		}
		if math.IsNaN(prev) {
			prev = v
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// labelWindow clusters one smoothed window and resolves its regime label:
// 1 for a single-cluster window, 1+k for the k-th discovered dominant
// transition component, 0 when the window is degenerate or ambiguous.
func labelWindow(window []float64, threshold float64) int {
	for _, v := range window {
		if math.IsNaN(v) {
			return 0
		}
	}
	if len(window) < 2 {
		return 0
	}
	states := clusterScalars(window, threshold)
	r := 0
	for _, s := range states {
		if s+1 > r {
			r = s + 1
		}
	}
	if r <= 1 {
		return 1
	}

	// Transition-count matrix over consecutive samples, self-transitions
	// included. Two states belong to the same regime only when they exchange
	// more than one transition; a single stray crossing is the step between
	// regimes, not membership.
	counts := make([][]int, r)
	for i := range counts {
		counts[i] = make([]int, r)
	}
	for t := 0; t+1 < len(states); t++ {
		counts[states[t]][states[t+1]]++
	}
	adj := make([][]bool, r)
	for i := range adj {
		adj[i] = make([]bool, r)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			if i == j {
				continue
			}
			if counts[i][j]+counts[j][i] >= 2 {
				adj[i][j] = true
				adj[j][i] = true
			}
		}
	}
	occupancy := make([]int, r)
	for _, s := range states {
		occupancy[s]++
	}
	ordinal, ok := largestComponent(adj, occupancy)
	if !ok {
		return 0
	}
	return 1 + ordinal
}

// consensus resolves the final label of sample t from all windows covering
// it. Disagreement, or no coverage, forces 0.
func consensus(t int, starts []int, windowLen int, windowLabels []int) int {
	label := 0
	found := false
	for i, s := range starts {
		if s > t {
			break
		}
		if t >= s+windowLen {
			continue
		}
		if !found {
			label = windowLabels[i]
			found = true
		} else if windowLabels[i] != label {
			return 0
		}
	}
	if !found {
		return 0
	}
	return label
}

// largestComponent finds the connected components of an undirected graph
// given as an adjacency matrix and returns the discovery ordinal of the
// component with the greatest total node weight. Ties go to the first
// discovered.
func largestComponent(adj [][]bool, weight []int) (int, bool) {
	n := len(adj)
	if n == 0 {
		return 0, false
	}
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if adj[i][j] {
				union(i, j)
			}
		}
	}
	sizes := map[int]int{}
	for i := 0; i < n; i++ {
		w := 1
		if i < len(weight) {
			w = weight[i]
		}
		sizes[find(i)] += w
	}
	bestRoot, bestSize, ordinal, bestOrdinal := -1, 0, 0, 0
	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		root := find(i)
		if seen[root] {
			continue
		}
		seen[root] = true
		if sizes[root] > bestSize {
			bestRoot, bestSize, bestOrdinal = root, sizes[root], ordinal
		}
		ordinal++
	}
	if bestRoot < 0 {
		return 0, false
	}
	return bestOrdinal, true
}
