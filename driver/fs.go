package driver

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"github.com/klauspost/readahead"

	"github.com/ardnew/ftdr/pkg"
)

// Ext is the file extension of module sources.
const Ext = ".ftd"

// SearchPath returns the module search roots: the given roots followed by
// the roots listed in the environment variable [pkg.PathEnv]. Empty and
// repeated entries are dropped.
func SearchPath(roots ...string) []string {
	// mung prepends prefix items in order, so the trailing one leads.
	prefix := slices.Clone(roots)
	slices.Reverse(prefix)

	list := mung.Make(
		mung.WithSubjectItems(os.Getenv(pkg.PathEnv)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()

	var out []string

	for _, root := range filepath.SplitList(list) {
		if root == "" || slices.Contains(out, root) {
			continue
		}

		out = append(out, root)
	}

	return out
}

// FS is a [Loader] that reads modules from a list of search roots. Module
// "a/b" is found at <root>/a/b.ftd or <root>/a/b/index.ftd, trying the
// roots in order.
type FS struct {
	Roots []string
}

// NewFS returns a loader over [SearchPath] of roots.
func NewFS(roots ...string) *FS {
	return &FS{Roots: SearchPath(roots...)}
}

// Candidates returns the files that may hold module, in the order they
// are tried.
func (f *FS) Candidates(module string) ([]string, error) {
	if !validModule(module) {
		return nil, ErrInvalidModule.With(slog.String("module", module))
	}

	rel := filepath.FromSlash(module)

	files := make([]string, 0, 2*len(f.Roots))
	for _, root := range f.Roots {
		files = append(files,
			filepath.Join(root, rel+Ext),
			filepath.Join(root, rel, "index"+Ext),
		)
	}

	return files, nil
}

// Load implements [Loader].
func (f *FS) Load(ctx context.Context, module string) (*string, error) {
	files, err := f.Candidates(module)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src, err := ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return &src, nil
	}

	return nil, pkg.ErrModuleNotFound.Wrapf("%s", module)
}

// ReadFile reads a source document with read-ahead.
func ReadFile(name string) (string, error) {
	file, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", pkg.ErrReadInput.Wrap(err)
	}

	if info.IsDir() {
		return "", fs.ErrNotExist
	}

	ra := readahead.NewReader(file)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", pkg.ErrReadInput.Wrap(err)
	}

	return string(data), nil
}

// validModule reports whether module is a relative slash-separated path
// that stays below its search root.
func validModule(module string) bool {
	if module == "" || strings.HasPrefix(module, "/") || strings.Contains(module, `\`) {
		return false
	}

	return path.Clean(module) == module && !slices.Contains(strings.Split(module, "/"), "..")
}
