package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	jabierrors "jabi/internal/errors"
)

// input is one class file pulled out of the input tree or archive, named by
// its archive entry path.
type input struct {
	name string
	data []byte
}

// collectInputs gathers every class file under path, which may be a
// directory tree or a zip archive. Duplicate entry names keep the first
// occurrence.
func collectInputs(path string) ([]input, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.InputUnreadable,
			fmt.Sprintf("cannot read input path %s", path), err)
	}

	var inputs []input
	if fi.IsDir() {
		inputs, err = collectDir(path)
	} else {
		inputs, err = collectArchive(path)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(inputs))
	deduped := inputs[:0]
	for _, in := range inputs {
		if seen[in.name] {
			continue
		}
		seen[in.name] = true
		deduped = append(deduped, in)
	}
	return deduped, nil
}

func collectDir(root string) ([]input, error) {
	var inputs []input
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".class") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		inputs = append(inputs, input{name: filepath.ToSlash(rel), data: data})
		return nil
	})
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.InputUnreadable,
			fmt.Sprintf("cannot walk input directory %s", root), err)
	}
	return inputs, nil
}

func collectArchive(path string) ([]input, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.InputMalformed,
			fmt.Sprintf("input %s is not a readable archive", path), err)
	}
	defer r.Close()

	var inputs []input
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		// Entry names become output entry names, so names that escape the
		// archive root are rejected rather than rewritten.
		if !fs.ValidPath(f.Name) {
			return nil, jabierrors.NewJabiError(jabierrors.InputMalformed,
				fmt.Sprintf("archive entry name %q escapes the archive root", f.Name), nil).
				WithDetails(map[string]interface{}{"entry": f.Name})
		}
		rc, err := f.Open()
		if err != nil {
			return nil, jabierrors.NewJabiError(jabierrors.InputMalformed,
				fmt.Sprintf("cannot open archive entry %s", f.Name), err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, jabierrors.NewJabiError(jabierrors.InputMalformed,
				fmt.Sprintf("cannot read archive entry %s", f.Name), err)
		}
		inputs = append(inputs, input{name: f.Name, data: data})
	}
	return inputs, nil
}
