// Package fs abstracts the local file system for sketch files.
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in a [FaultyFS]
// to inject open, read, write, sync and close failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("shard-3", fs.Fault{FailAfterBytes: 1024})
//	w, err := sketchfile.Create(path, sketchfile.WithFileSystem(ffs))
//
// Operations take no context.Context: local file I/O is not interruptible
// at the syscall level. Remote storage goes through package blobstore.
package fs
