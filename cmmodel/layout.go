package cmmodel

import "fmt"

// block is one named, contiguous run of the flat parameter vector.
type block struct {
	name string
	off  int
	len  int
}

// layout maps named parameter blocks onto a flat vector.  Blocks are
// declared once, in order, while the model is constructed; afterwards
// the layout is read-only.  Each name is declared at most once, so a
// quantity cannot be bound to two places in the vector.
type layout struct {
	blocks []block
	byName map[string]int
	total  int
}

func newLayout() *layout {
	return &layout{byName: make(map[string]int)}
}

// add declares a block of n parameters and returns its offset.
func (ly *layout) add(name string, n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("cmmodel: block %q has length %d", name, n))
	}
	if _, ok := ly.byName[name]; ok {
		panic(fmt.Sprintf("cmmodel: parameter block %q declared twice", name))
	}
	off := ly.total
	ly.byName[name] = len(ly.blocks)
	ly.blocks = append(ly.blocks, block{name: name, off: off, len: n})
	ly.total += n
	return off
}

// size returns the total number of parameters.
func (ly *layout) size() int { return ly.total }

// slice returns the sub-slice of x holding the named block.
func (ly *layout) slice(x []float64, name string) []float64 {
	i, ok := ly.byName[name]
	if !ok {
		panic(fmt.Sprintf("cmmodel: no parameter block %q", name))
	}
	b := ly.blocks[i]
	return x[b.off : b.off+b.len]
}

// has reports whether the named block was declared.
func (ly *layout) has(name string) bool {
	_, ok := ly.byName[name]
	return ok
}

// names returns the block names in declaration order.
func (ly *layout) names() []string {
	out := make([]string, len(ly.blocks))
	for i, b := range ly.blocks {
		out[i] = b.name
	}
	return out
}
