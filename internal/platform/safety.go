package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// DevDirName is the directory under os.TempDir() that dev runs are re-rooted into.
const DevDirName = "arbitra-dev"

// IsDevRun reports whether the process was started by `go run` or `go test`.
// Both build the binary in a temporary directory, and test binaries end in ".test".
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// DefaultDataRoot returns the per-user application data root.
func DefaultDataRoot() (string, error) {
	return os.UserConfigDir()
}

// ResolveDataRoot applies the dev sandbox to root. Unless forceTemp is set
// root is returned unchanged. A root already inside the temp directory is
// trusted as is. Anything else is re-rooted under <tmp>/arbitra-dev/<base>.
func ResolveDataRoot(root string, forceTemp bool) string {
	if !forceTemp {
		return root
	}

	clean := filepath.Clean(root)
	if root != "" {
		rel, err := filepath.Rel(os.TempDir(), clean)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return clean
		}
	}

	name := filepath.Base(clean)
	if root == "" || name == "." || name == string(filepath.Separator) {
		name = "default"
	}
	return filepath.Join(os.TempDir(), DevDirName, name)
}
