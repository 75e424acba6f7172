// Package assets manages the on-disk store for report figures: chart images
// pulled out of planning documents plus the static company logo.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clearviewfp/report-engine/internal/domain"
)

// LogoFile is the fixed name of the company logo inside the asset directory.
const LogoFile = "logo.png"

// ErrUnknownRole marks a chart role with no asset slot.
var ErrUnknownRole = errors.New("unknown chart role")

var roleFiles = map[domain.ChartRole]string{
	domain.ChartRoleMoneyInVsOut:      "money_in_vs_out.png",
	domain.ChartRoleSavingsProjection: "savings_projection.png",
}

// FileForRole returns the fixed file name for a chart role.
func FileForRole(role domain.ChartRole) (string, error) {
	name, ok := roleFiles[role]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return name, nil
}

// Store is a flat directory of report assets. Role files have fixed names,
// so a rerun overwrites the previous image in place.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily on
// the first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// PathForRole returns the path of a role's image inside the store.
func (s *Store) PathForRole(role domain.ChartRole) (string, error) {
	name, err := FileForRole(role)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// WriteRole stores image bytes under the role's fixed name, creating the
// directory if needed, and returns the file name written.
func (s *Store) WriteRole(role domain.ChartRole, data []byte) (string, error) {
	name, err := FileForRole(role)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create asset dir %s: %w", s.dir, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("write asset %s: %w", name, err)
	}
	return name, nil
}

// HasRole reports whether the role's image exists on disk.
func (s *Store) HasRole(role domain.ChartRole) bool {
	path, err := s.PathForRole(role)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogoPath returns the path of the company logo in the store.
func (s *Store) LogoPath() string {
	return filepath.Join(s.dir, LogoFile)
}
