// Package reader opens PDF documents and executes their pages.
//
// It ties the lower-level packages together: core builds the
// cross-reference index, resolver loads objects, pages walks the page
// tree and contentstream interprets page content.
//
// # Opening Documents
//
// Use [OpenFile] for a file on disk, [OpenBytes] for data already in
// memory, or [Open] for any [core.Source]:
//
//	doc, err := reader.OpenFile(ctx, "document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
// A damaged cross-reference section does not stop Open: the index is
// rebuilt by scanning the file and the problem is reported as a warning.
// Open fails only when no document catalog can be found.
//
// # Executing Pages
//
//	res, err := doc.ExecutePage(ctx, 0)
//	fmt.Print(res.Page.Text())
//
// [Document.ExecutePages] runs every page, several at a time, and
// returns the results in page order.
//
// # Warnings
//
// Recoverable damage is collected and available from
// [Document.Warnings]. [WithWarnings] forwards each warning as it
// happens, and [WithLogger] logs each one at warn level.
package reader
