package artifact

import "fmt"

// ShapShape tags the raw shape an attribution run came back in. The shape
// depends on how the classifier was trained, so callers must normalize before
// touching business logic.
type ShapShape int

const (
	// ShapSingle is one flat per-feature array for a single-output model.
	ShapSingle ShapShape = iota
	// ShapPerClass is one per-feature array per class.
	ShapPerClass
	// ShapPositiveOnly is one flat array that already represents the
	// positive class of a binary model.
	ShapPositiveOnly
)

// ShapOutput is the tagged variant produced by the attribution backend.
// Values holds one array (ShapSingle, ShapPositiveOnly) or one per class
// (ShapPerClass). Base follows the same convention.
type ShapOutput struct {
	Shape  ShapShape
	Values [][]float64
	Base   []float64
}

// pathElement tracks one feature split along the active decision path.
type pathElement struct {
	feature int
	zero    float64
	one     float64
	weight  float64
}

// ShapValues decomposes the ensemble's output for vec into exact per-feature
// Shapley contributions. For every class c the local accuracy property
// Base[c] + sum(Values[c]) == score(c) holds up to float rounding.
func (e *Ensemble) ShapValues(vec []float64, numFeatures int) (*ShapOutput, error) {
	if err := e.Validate(numFeatures); err != nil {
		return nil, fmt.Errorf("attribution backend rejected model: %w", err)
	}
	if len(vec) < numFeatures {
		return nil, fmt.Errorf("vector has %d entries, model expects %d", len(vec), numFeatures)
	}

	classes := e.classCount()
	phi := make([][]float64, classes)
	for c := range phi {
		phi[c] = make([]float64, numFeatures)
	}
	for i := range e.Trees {
		shapRecurse(e.Trees[i].Nodes, vec, phi[e.Trees[i].Class], 0, nil, 0, 1, 1, -1)
	}

	base := make([]float64, classes)
	for c := range base {
		base[c] = e.ExpectedValue(c)
	}

	out := &ShapOutput{Values: phi, Base: base}
	switch {
	case classes == 1:
		out.Shape = ShapSingle
	case classes == 2 && e.allTreesTarget(1):
		// Binary model trained with positive-class trees only: report the
		// positive array alone, the way single-sided backends do.
		out.Shape = ShapPositiveOnly
		out.Values = [][]float64{phi[1]}
	default:
		out.Shape = ShapPerClass
	}
	return out, nil
}

// allTreesTarget reports whether every tree contributes to the given class.
func (e *Ensemble) allTreesTarget(class int) bool {
	for i := range e.Trees {
		if e.Trees[i].Class != class {
			return false
		}
	}
	return true
}

// shapRecurse implements the polynomial-time tree Shapley decomposition. It
// maintains the set of unique features split on along the path, with the
// fraction of background (zero) and foreground (one) paths that flow through
// each, and unwinds the path at every leaf to weight its value.
func shapRecurse(nodes []Node, x, phi []float64, nodeIdx int, parent []pathElement, uniqueDepth int, parentZero, parentOne float64, parentFeature int) {
	path := make([]pathElement, uniqueDepth+1)
	copy(path, parent[:uniqueDepth])
	extendPath(path, uniqueDepth, parentZero, parentOne, parentFeature)

	node := nodes[nodeIdx]
	if node.Leaf {
		for i := 1; i <= uniqueDepth; i++ {
			w := unwoundPathSum(path, uniqueDepth, i)
			el := path[i]
			phi[el.feature] += w * (el.one - el.zero) * node.Value
		}
		return
	}

	hot, cold := node.Left, node.Right
	if !(x[node.Feature] < node.Threshold) {
		hot, cold = node.Right, node.Left
	}
	hotZero := nodes[hot].Cover / node.Cover
	coldZero := nodes[cold].Cover / node.Cover
	incomingZero, incomingOne := 1.0, 1.0

	// A feature split on twice along one path must be unwound first so its
	// two splits collapse into one path element.
	pathIndex := 0
	for ; pathIndex <= uniqueDepth; pathIndex++ {
		if path[pathIndex].feature == node.Feature {
			break
		}
	}
	if pathIndex != uniqueDepth+1 {
		incomingZero = path[pathIndex].zero
		incomingOne = path[pathIndex].one
		unwindPath(path, uniqueDepth, pathIndex)
		uniqueDepth--
	}

	shapRecurse(nodes, x, phi, hot, path, uniqueDepth+1, incomingZero*hotZero, incomingOne, node.Feature)
	shapRecurse(nodes, x, phi, cold, path, uniqueDepth+1, incomingZero*coldZero, 0, node.Feature)
}

// extendPath grows the unique path by one feature split, updating the
// permutation weights of every subset size.
func extendPath(path []pathElement, uniqueDepth int, zero, one float64, feature int) {
	path[uniqueDepth] = pathElement{feature: feature, zero: zero, one: one}
	if uniqueDepth == 0 {
		path[0].weight = 1
	}
	for i := uniqueDepth - 1; i >= 0; i-- {
		path[i+1].weight += one * path[i].weight * float64(i+1) / float64(uniqueDepth+1)
		path[i].weight = zero * path[i].weight * float64(uniqueDepth-i) / float64(uniqueDepth+1)
	}
}

// unwindPath removes the split at pathIndex, restoring the weights to the
// state before extendPath added it.
func unwindPath(path []pathElement, uniqueDepth, pathIndex int) {
	one := path[pathIndex].one
	zero := path[pathIndex].zero
	next := path[uniqueDepth].weight

	for i := uniqueDepth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].weight
			path[i].weight = next * float64(uniqueDepth+1) / (float64(i+1) * one)
			next = tmp - path[i].weight*zero*float64(uniqueDepth-i)/float64(uniqueDepth+1)
		} else {
			path[i].weight = path[i].weight * float64(uniqueDepth+1) / (zero * float64(uniqueDepth-i))
		}
	}
	for i := pathIndex; i < uniqueDepth; i++ {
		path[i].feature = path[i+1].feature
		path[i].zero = path[i+1].zero
		path[i].one = path[i+1].one
	}
}

// unwoundPathSum totals the permutation weights the path would have without
// the split at pathIndex, without mutating the path.
func unwoundPathSum(path []pathElement, uniqueDepth, pathIndex int) float64 {
	one := path[pathIndex].one
	zero := path[pathIndex].zero
	next := path[uniqueDepth].weight
	total := 0.0

	for i := uniqueDepth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := next * float64(uniqueDepth+1) / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(uniqueDepth-i)/float64(uniqueDepth+1)
		} else if zero != 0 {
			total += path[i].weight / zero * float64(uniqueDepth+1) / float64(uniqueDepth-i)
		}
	}
	return total
}
