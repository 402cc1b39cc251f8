package model

import "fmt"

// Tree is one decision tree in scikit-learn's array layout: node i branches
// to ChildrenLeft[i] or ChildrenRight[i] on features[Feature[i]] <=
// Threshold[i]. Leaves have children -1 and carry per-class sample counts in
// Value, column 0 for "no fire" and column 1 for "fire".
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest is a trained random-forest classifier over the fixed feature order.
type Forest struct {
	ModelType string `json:"model_type"`
	NFeatures int    `json:"n_features"`
	Classes   []int  `json:"classes"`
	Trees     []Tree `json:"trees"`
}

// Probability returns the mean per-tree probability of the positive class,
// matching scikit-learn's soft voting.
func (f *Forest) Probability(features []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}

	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].probability(features)
	}
	return sum / float64(len(f.Trees))
}

func (t *Tree) probability(features []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] >= 0 {
		if features[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}

	counts := t.Value[node]
	total := counts[0] + counts[1]
	if total == 0 {
		return 0
	}
	return counts[1] / total
}

// validate checks the structural invariants the traversal relies on. Both
// children of every internal node point strictly forward, so traversal
// always terminates at a leaf.
func (f *Forest) validate() error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if f.NFeatures <= 0 {
		return fmt.Errorf("forest declares %d features", f.NFeatures)
	}
	if len(f.Classes) != 2 {
		return fmt.Errorf("forest declares %d classes, want binary", len(f.Classes))
	}

	for ti, tree := range f.Trees {
		n := len(tree.ChildrenLeft)
		if n == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		if len(tree.ChildrenRight) != n || len(tree.Feature) != n || len(tree.Threshold) != n || len(tree.Value) != n {
			return fmt.Errorf("tree %d has inconsistent node arrays", ti)
		}

		for i := 0; i < n; i++ {
			left, right := tree.ChildrenLeft[i], tree.ChildrenRight[i]
			if (left < 0) != (right < 0) {
				return fmt.Errorf("tree %d node %d is half leaf", ti, i)
			}
			if left >= 0 {
				if left <= i || left >= n || right <= i || right >= n {
					return fmt.Errorf("tree %d node %d has out-of-order children", ti, i)
				}
				if tree.Feature[i] < 0 || tree.Feature[i] >= f.NFeatures {
					return fmt.Errorf("tree %d node %d splits on unknown feature %d", ti, i, tree.Feature[i])
				}
			}
			if len(tree.Value[i]) != 2 {
				return fmt.Errorf("tree %d node %d has %d value columns, want 2", ti, i, len(tree.Value[i]))
			}
		}
	}
	return nil
}
