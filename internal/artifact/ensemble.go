package artifact

import "fmt"

// Node is a single node of a regression tree stored in array form. Internal
// nodes route on Feature < Threshold; leaves carry an additive output value.
// Cover is the training weight that flowed through the node and defines the
// background distribution used by the attribution backend.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
	Cover     float64 `json:"cover"`
}

// Tree is one additive tree of an ensemble. Class selects which output the
// tree contributes to when the ensemble is trained per-class; single-output
// ensembles leave it at zero.
type Tree struct {
	Nodes []Node `json:"nodes"`
	Class int    `json:"class"`
}

// Ensemble is a gradient-boosted tree model. Its output for a vector is the
// base score plus the sum of leaf values reached in each tree. NumClasses of
// zero or one means a single scalar output.
type Ensemble struct {
	Trees      []Tree  `json:"trees"`
	BaseScore  float64 `json:"base_score"`
	NumClasses int     `json:"num_classes,omitempty"`
}

// classCount normalizes NumClasses to at least one.
func (e *Ensemble) classCount() int {
	if e.NumClasses < 2 {
		return 1
	}
	return e.NumClasses
}

// Validate checks structural integrity against the given feature count.
// Called once at artifact load so the prediction path can assume a
// well-formed model.
func (e *Ensemble) Validate(numFeatures int) error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	classes := e.classCount()
	for ti, tree := range e.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		if tree.Class < 0 || tree.Class >= classes {
			return fmt.Errorf("tree %d targets class %d of %d", ti, tree.Class, classes)
		}
		for ni, node := range tree.Nodes {
			if node.Leaf {
				continue
			}
			if node.Feature < 0 || node.Feature >= numFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d, have %d features", ti, ni, node.Feature, numFeatures)
			}
			if node.Left < 0 || node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has child index out of range", ti, ni)
			}
			if node.Cover <= 0 {
				return fmt.Errorf("tree %d node %d has non-positive cover", ti, ni)
			}
		}
	}
	return nil
}

// Predict returns the scalar output for a single-output ensemble. For
// per-class ensembles it returns the positive-class score.
func (e *Ensemble) Predict(vec []float64) float64 {
	if e.classCount() == 1 {
		sum := e.BaseScore
		for i := range e.Trees {
			sum += evalTree(e.Trees[i].Nodes, vec)
		}
		return sum
	}
	return e.PredictClasses(vec)[positiveClass(e.classCount())]
}

// PredictClasses returns one score per class for a per-class ensemble.
func (e *Ensemble) PredictClasses(vec []float64) []float64 {
	scores := make([]float64, e.classCount())
	for i := range scores {
		scores[i] = e.BaseScore
	}
	for i := range e.Trees {
		scores[e.Trees[i].Class] += evalTree(e.Trees[i].Nodes, vec)
	}
	return scores
}

// evalTree walks one tree to its leaf for the vector.
func evalTree(nodes []Node, vec []float64) float64 {
	idx := 0
	for !nodes[idx].Leaf {
		n := nodes[idx]
		if vec[n.Feature] < n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return nodes[idx].Value
}

// ExpectedValue returns the cover-weighted expected output of the ensemble
// for the given class, before any feature is observed.
func (e *Ensemble) ExpectedValue(class int) float64 {
	sum := e.BaseScore
	for i := range e.Trees {
		if e.Trees[i].Class != class && e.classCount() > 1 {
			continue
		}
		sum += expectedLeaf(e.Trees[i].Nodes, 0)
	}
	return sum
}

// expectedLeaf computes the cover-weighted mean leaf value below a node.
func expectedLeaf(nodes []Node, idx int) float64 {
	n := nodes[idx]
	if n.Leaf {
		return n.Value
	}
	left := nodes[n.Left].Cover * expectedLeaf(nodes, n.Left)
	right := nodes[n.Right].Cover * expectedLeaf(nodes, n.Right)
	return (left + right) / n.Cover
}

// positiveClass picks the index treated as "recovery" for per-class output.
// Binary classifiers store [negative, positive].
func positiveClass(classes int) int {
	if classes == 2 {
		return 1
	}
	return classes - 1
}
