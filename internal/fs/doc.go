// Package fs abstracts the file system operations used when writing embedding
// files, so that tests can inject I/O failures.
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 16})
//
// Reading is not abstracted: readers take an io.ReaderAt or memory-map the file.
package fs
