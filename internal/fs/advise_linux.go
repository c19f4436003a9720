//go:build linux

package fs

import "golang.org/x/sys/unix"

// AdviseSequential tells the kernel f will be read front to back, which
// doubles readahead on most file systems. Files without a descriptor are
// ignored.
func AdviseSequential(f File) error {
	d, ok := f.(fder)
	if !ok {
		return nil
	}
	return unix.Fadvise(int(d.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
