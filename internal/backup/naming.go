package backup

import (
	"fmt"
	"path/filepath"
	"strings"
)

// invalidNameChars are replaced with '_' when a remote name becomes a local one.
const invalidNameChars = `<>:"/\|?*`

// SanitizeName maps a remote name to a name that is valid on every local filesystem.
// The path elements "." and ".." become "_" and "__" so a name never leaves its folder.
func SanitizeName(name string) string {
	switch name {
	case ".":
		return "_"
	case "..":
		return "__"
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidNameChars, r) {
			return '_'
		}
		return r
	}, name)
}

// VersionedName returns the local file name for a version of name.
// Version 1 keeps the name; later versions get ".vNN" before the extension,
// so report.docx version 2 becomes report.v02.docx.
func VersionedName(name string, version int64) string {
	if version <= 1 {
		return name
	}
	return insertBeforeExt(name, fmt.Sprintf(".v%02d", version))
}

// DuplicateName returns the n-th alternative for a name already owned by
// another remote file: a.txt becomes a.01.txt.
func DuplicateName(name string, n int) string {
	return insertBeforeExt(name, fmt.Sprintf(".%02d", n))
}

func insertBeforeExt(name, infix string) string {
	ext := filepath.Ext(name)
	if ext == name {
		// Dotfiles like ".bashrc" have no stem to insert before.
		ext = ""
	}
	return strings.TrimSuffix(name, ext) + infix + ext
}
