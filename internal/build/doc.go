// Package build runs one indexing pass over an HTML export.
//
// A run has three stages. Scan walks the page directory, filters and
// extracts every page and assigns index records. Inject rewrites each
// accepted page with the search widget. Publish writes the index artifact
// and the static query assets. The index is only written once every page
// has been rewritten, so a failed run never leaves an index that points at
// pages without a widget.
//
// The CLI and tests both route through Service.
package build
