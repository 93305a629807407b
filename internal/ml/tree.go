package ml

import "sort"

// treeNode is one node of a fitted regression tree. Internal nodes route
// on feature <= threshold; leaves carry the log-odds step applied to
// samples that reach them.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// predict routes a single feature vector to its leaf value.
func (n *treeNode) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// regLambda is the L2 regularization applied to leaf values and split
// gains. Matches the usual boosting default.
const regLambda = 1.0

// buildTree fits a regression tree to the gradient/hessian statistics of
// the samples in idx. Leaf values are Newton steps:
// sum(grad) / (sum(hess) + lambda).
func buildTree(features [][]float64, idx []int, grad, hess []float64, depth, maxDepth, minLeaf int) *treeNode {
	var gradSum, hessSum float64
	for _, i := range idx {
		gradSum += grad[i]
		hessSum += hess[i]
	}

	if depth >= maxDepth || len(idx) < 2*minLeaf {
		return leafNode(gradSum, hessSum)
	}

	split, ok := bestSplit(features, idx, grad, hess, gradSum, hessSum, minLeaf)
	if !ok {
		return leafNode(gradSum, hessSum)
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, i := range idx {
		if features[i][split.feature] <= split.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &treeNode{
		feature:   split.feature,
		threshold: split.threshold,
		left:      buildTree(features, leftIdx, grad, hess, depth+1, maxDepth, minLeaf),
		right:     buildTree(features, rightIdx, grad, hess, depth+1, maxDepth, minLeaf),
	}
}

func leafNode(gradSum, hessSum float64) *treeNode {
	return &treeNode{
		leaf:  true,
		value: gradSum / (hessSum + regLambda),
	}
}

type splitCandidate struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans every feature for the threshold maximizing the gain
// G_L^2/(H_L+lambda) + G_R^2/(H_R+lambda) - G^2/(H+lambda).
func bestSplit(features [][]float64, idx []int, grad, hess []float64, gradSum, hessSum float64, minLeaf int) (splitCandidate, bool) {
	parentScore := gradSum * gradSum / (hessSum + regLambda)

	best := splitCandidate{gain: 0}
	found := false

	nFeatures := len(features[idx[0]])
	order := make([]int, len(idx))

	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return features[order[a]][f] < features[order[b]][f]
		})

		var gl, hl float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			gl += grad[i]
			hl += hess[i]

			// Split only between distinct values, with at least
			// minLeaf samples on each side.
			if pos+1 < minLeaf || len(order)-pos-1 < minLeaf {
				continue
			}
			cur := features[i][f]
			next := features[order[pos+1]][f]
			if cur == next {
				continue
			}

			gr := gradSum - gl
			hr := hessSum - hl
			gain := gl*gl/(hl+regLambda) + gr*gr/(hr+regLambda) - parentScore
			if gain > best.gain {
				best = splitCandidate{
					feature:   f,
					threshold: cur + (next-cur)/2,
					gain:      gain,
				}
				found = true
			}
		}
	}

	return best, found
}
