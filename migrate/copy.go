package migrate

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// userDataItems are copied from the user data directory when present.
var userDataItems = []string{"settings.json", "keybindings.json", "snippets"}

// Failure is an item that could not be copied.
type Failure struct {
	Item string
	Err  error
}

// Report lists what a Copy did.
type Report struct {
	Copied  []string
	Skipped []string
	Failed  []Failure
}

// OK reports whether nothing failed.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// Copy copies settings, keybindings, snippets and extensions from src into
// the destination directories. It continues past individual failures and
// records them in the report. Missing source items are skipped.
func Copy(src Installation, dstUserData, dstExtensions string) Report {
	var r Report

	for _, item := range userDataItems {
		r.copyItem(item, filepath.Join(src.UserData, item), filepath.Join(dstUserData, item))
	}
	r.copyItem("extensions", src.Extensions, dstExtensions)
	return r
}

func (r *Report) copyItem(item, from, to string) {
	info, err := os.Stat(from)
	if os.IsNotExist(err) {
		r.Skipped = append(r.Skipped, item)
		return
	}
	if err != nil {
		r.Failed = append(r.Failed, Failure{Item: item, Err: err})
		return
	}

	if info.IsDir() {
		err = copyTree(from, to)
	} else {
		err = copyFile(from, to, info.Mode())
	}
	if err != nil {
		r.Failed = append(r.Failed, Failure{Item: item, Err: err})
		return
	}
	r.Copied = append(r.Copied, item)
}

func copyTree(from, to string) error {
	return filepath.WalkDir(from, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		target := filepath.Join(to, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(from, to string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", from, err)
	}
	return out.Close()
}
