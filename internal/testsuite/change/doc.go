// Package change creates synthetic changes, patchsets and comments for tests.
//
// The API is fluent; builders store nothing until Create is called:
//
//	ops := change.NewOperations()
//	id, _ := ops.NewChange().Subject("Fix typo").Create()
//	commentUUID, _ := ops.Change(id).
//	    CurrentPatchset().
//	    NewComment().
//	    OnLine(2).
//	    OfFile("file1").
//	    Create()
//
// Retrieving a change or patchset that does not exist fails with ErrNotFound.
package change
