package recipe

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Entry describes one recipe visible to Lookup.
type Entry struct {
	Name   string
	Title  string
	Origin string // "builtin" or the file path
	Recipe *Recipe
}

// Builtins returns the recipes shipped with the binary, sorted by name.
func Builtins() ([]Entry, error) {
	files, err := fs.Glob(builtinFS, "builtin/*.yaml")
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(files))
	for _, p := range files {
		b, err := builtinFS.ReadFile(p)
		if err != nil {
			return nil, err
		}
		r, err := Parse(b)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", p, err)
		}
		out = append(out, Entry{Name: r.Name, Title: r.Title, Origin: "builtin", Recipe: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// List returns built-ins plus every *.yaml/*.yml recipe in dirs. A recipe in
// a directory shadows a built-in with the same name; earlier dirs win.
// Missing directories are ignored; unparseable files are reported in skipped.
func List(dirs ...string) (entries []Entry, skipped []error, err error) {
	byName := map[string]Entry{}
	builtins, err := Builtins()
	if err != nil {
		return nil, nil, err
	}
	for _, e := range builtins {
		byName[e.Name] = e
	}
	seen := map[string]bool{}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		items, rerr := os.ReadDir(dir)
		if rerr != nil {
			if os.IsNotExist(rerr) {
				continue
			}
			return nil, nil, fmt.Errorf("read recipes dir: %w", rerr)
		}
		for _, it := range items {
			if it.IsDir() || !isRecipeFile(it.Name()) {
				continue
			}
			p := filepath.Join(dir, it.Name())
			r, lerr := Load(p)
			if lerr != nil {
				skipped = append(skipped, lerr)
				continue
			}
			if seen[r.Name] {
				continue
			}
			seen[r.Name] = true
			byName[r.Name] = Entry{Name: r.Name, Title: r.Title, Origin: p, Recipe: r}
		}
	}
	for _, e := range byName {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, skipped, nil
}

// Lookup resolves ref as a recipe file path when it names an existing file,
// otherwise as a recipe name among List(dirs...).
func Lookup(ref string, dirs ...string) (*Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("recipe name or path is required")
	}
	if isRecipeFile(ref) {
		if st, err := os.Stat(ref); err == nil && !st.IsDir() {
			r, err := Load(ref)
			if err != nil {
				return nil, err
			}
			return &Entry{Name: r.Name, Title: r.Title, Origin: ref, Recipe: r}, nil
		}
	}
	entries, _, err := List(dirs...)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for i := range entries {
		if strings.EqualFold(entries[i].Name, ref) {
			return &entries[i], nil
		}
		names = append(names, entries[i].Name)
	}
	return nil, fmt.Errorf("unknown recipe %q (available: %s)", ref, strings.Join(names, ", "))
}

func isRecipeFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
