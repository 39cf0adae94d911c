// Package resources looks up named resources for content stream
// execution.
//
// A [Scope] is one resource dictionary with a link to the scope that
// encloses it: a form XObject's resources over its page's, a page's over
// those inherited from the page tree. [Locator.Resolve] searches the
// nearest scope first.
package resources
