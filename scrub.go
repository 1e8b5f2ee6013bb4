//go:build !securememory
// +build !securememory

package cpujitter

// scrub runs one extra generation pass after a read and discards the
// result, so the pool never lingers holding a value that was handed to
// a caller. Costs one extra generation pass per Read call.
//
// Builds with the securememory tag skip this pass. The tag itself does
// not lock or otherwise protect the pool memory.
func (c *Collector) scrub() {
	c.generate()
}
