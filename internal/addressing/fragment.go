// Package addressing implements the DASH addressing-mode resolver: given a
// selected Representation, it emits the ordered list of MediaFragments per
// whichever of the six addressing modes applies.
package addressing

import "net/url"

// MediaFragment is one HTTP fetch unit: a URL plus an optional byte range.
type MediaFragment struct {
	URL       *url.URL
	StartByte *uint64
	EndByte   *uint64
}

// HasByteRange reports whether both range bounds are set.
func (f MediaFragment) HasByteRange() bool {
	return f.StartByte != nil && f.EndByte != nil
}
