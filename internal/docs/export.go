package docs

import (
	"path"
	"reflect"

	"github.com/spf13/afero"

	"github.com/zjrosen/afb/internal/log"
	"github.com/zjrosen/afb/internal/registry"
)

// Export writes the class and unit pages of every Registry in d under root.
// It returns the number of files written.
func Export(fs afero.Fs, root string, d *registry.Directory) (int, error) {
	classes := d.Classes()
	known := make(map[reflect.Type]bool, len(classes))
	for _, cls := range classes {
		known[cls] = true
	}
	linked := func(cls reflect.Type) bool { return known[cls] }

	written := 0
	for _, cls := range classes {
		r, ok := d.Get(cls)
		if !ok {
			continue
		}
		n, err := exportRegistry(fs, root, NewPages(r, linked), r)
		written += n
		if err != nil {
			return written, err
		}
	}
	log.Info(log.CatDocs, "exported documentation", "root", root, "classes", len(classes), "files", written)
	return written, nil
}

func exportRegistry(fs afero.Fs, root string, pages *Pages, r *registry.Registry) (int, error) {
	dir := path.Join(root, ClassDir(r.Class()))
	if err := writeFile(fs, path.Join(dir, ClassPage), pages.Class()); err != nil {
		return 0, err
	}
	written := 1
	for _, key := range r.Keys() {
		page, err := pages.Unit(key)
		if err != nil {
			return written, err
		}
		if err := writeFile(fs, path.Join(dir, UnitPath(key)), page); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func writeFile(fs afero.Fs, name, content string) error {
	if err := fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return err
	}
	log.Debug(log.CatDocs, "writing page", "path", name)
	return afero.WriteFile(fs, name, []byte(content), 0o644)
}
