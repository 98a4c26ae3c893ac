// Package diskspace reports free space on the filesystem backing a path,
// the Go equivalent of the C source's statvfs() free-space check.
package diskspace

import "golang.org/x/sys/unix"

// Free returns the free space in bytes available to an unprivileged user on
// the filesystem containing dir, computed as f_bsize * f_bavail.
//
//	free, err := diskspace.Free(filepath.Dir(cfg.BundleDownloadPath))
func Free(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bsize) * stat.Bavail, nil
}
