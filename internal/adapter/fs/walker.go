package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"ragchat/internal/port"
)

// Walker lists files under a root that match any include glob and no
// exclude glob. Patterns use doublestar syntax relative to the root.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*.txt", "**/*.md", "**/*.pdf"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns matches sorted by path.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsys := os.DirFS(root)

	seen := make(map[string]bool)
	var files []port.FileInfo

	for _, pattern := range w.includes {
		err := doublestar.GlobWalk(fsys, pattern, func(rel string, d iofs.DirEntry) error {
			if d.IsDir() || seen[rel] || w.excluded(rel) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			seen[rel] = true
			files = append(files, port.FileInfo{
				Path:    filepath.Join(root, filepath.FromSlash(rel)),
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.excludes {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
