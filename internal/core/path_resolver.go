package core

import (
	"os"
	"path/filepath"
	"strings"
)

// PathResolver turns relative paths and paths with '~' type symbols into
// absolute paths rooted at the configuration directory. Step options that
// reference files (resumes, cover letters) go through this before they are
// handed to the browser.
type PathResolver struct {
	configDir string // config directory used to set relative path roots
}

func NewPathResolver(configDir string) PathResolver {
	return PathResolver{configDir: configDir}
}

func (pr PathResolver) Resolve(ip string) (string, error) {
	// Handle home directory expansion
	if strings.HasPrefix(ip, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		ip = filepath.Join(homeDir, strings.TrimPrefix(ip, "~"))
	}

	// If already absolute, return as-is
	if filepath.IsAbs(ip) {
		return filepath.Clean(ip), nil
	}

	// Resolve relative to config directory
	if pr.configDir != "" {
		return filepath.Join(pr.configDir, ip), nil
	}

	// Fallback to absolute path from current directory
	absPath, err := filepath.Abs(ip)
	if err != nil {
		return "", err
	}

	return absPath, nil
}

// ResolveAll resolves every path in the slice, failing on the first error.
func (pr PathResolver) ResolveAll(paths []string) ([]string, error) {
	resolved := make([]string, 0, len(paths))

	for _, p := range paths {
		rp, err := pr.Resolve(p)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rp)
	}

	return resolved, nil
}
