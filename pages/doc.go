// Package pages walks the page tree of a document.
//
// A [PageTree] flattens the /Kids hierarchy into document order:
//
//	tree := pages.NewPageTree(root, acc, warnings)
//	list, err := tree.Pages()
//
// Each [Page] carries the attributes it inherits from its ancestors
// (MediaBox, CropBox, Rotate) and a resources.Scope chain with one level
// per /Resources dictionary on its path, so resource lookups find the
// nearest definition.
//
// The walk tolerates damaged trees. A node reached twice is skipped with
// a WarnCycle warning, which breaks /Kids loops, and kids that are not
// dictionaries are dropped. Nodes without /Type are classified by
// whether they have /Kids.
package pages
