package replacement

import "fmt"

// pseudoLRU keeps an (assoc-1)-bit binary tree per set in one flat buffer.
// Node i has children 2i+1 (left) and 2i+2 (right); leaves are numbered
// assoc-1 .. 2*assoc-2 and map to ways 0 .. assoc-1. A node bit of 0 sends
// the victim walk left, 1 sends it right.
type pseudoLRU struct {
	assoc int
	nodes int
	bits  []uint8
}

func newPseudoLRU(numSets, assoc int) *pseudoLRU {
	return &pseudoLRU{
		assoc: assoc,
		nodes: assoc - 1,
		bits:  make([]uint8, numSets*(assoc-1)),
	}
}

func (p *pseudoLRU) tree(set int) []uint8 {
	return p.bits[set*p.nodes : (set+1)*p.nodes]
}

// victim walks from the root toward the less recently used side.
func (p *pseudoLRU) victim(set int) int {
	tree := p.tree(set)

	idx := 0
	for idx < p.nodes {
		if tree[idx] == 0 {
			idx = 2*idx + 1
		} else {
			idx = 2*idx + 2
		}
	}

	way := idx - p.nodes
	if way < 0 || way >= p.assoc {
		panic(fmt.Sprintf("replacement: pseudo-LRU walk reached node %d outside the leaf range", idx))
	}
	return way
}

// touch points every ancestor of way's leaf away from it.
func (p *pseudoLRU) touch(set, way int) {
	tree := p.tree(set)

	idx := p.nodes + way
	for idx > 0 {
		if idx&1 == 0 {
			// right child: send the next walk left
			idx = (idx - 2) / 2
			tree[idx] = 0
		} else {
			idx = (idx - 1) / 2
			tree[idx] = 1
		}
	}
}
