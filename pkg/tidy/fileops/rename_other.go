//go:build !linux

package fileops

func renameNoReplace(src, dest string) error {
	return renameFallback(src, dest)
}
