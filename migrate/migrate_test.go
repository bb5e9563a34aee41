package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKnownPaths(t *testing.T) {
	tests := []struct {
		name string
		env  Env
		want string
	}{
		{"linux default", Env{GOOS: "linux", Home: "/home/u"}, "/home/u/.config/Code/User"},
		{"linux xdg", Env{GOOS: "linux", Home: "/home/u", XDGConfigHome: "/xdg"}, "/xdg/Code/User"},
		{"darwin", Env{GOOS: "darwin", Home: "/Users/u"}, "/Users/u/Library/Application Support/Code/User"},
		{"windows appdata", Env{GOOS: "windows", Home: "/c/u", AppData: "/c/u/Roaming"}, "/c/u/Roaming/Code/User"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			known := Known(tt.env)
			if len(known) != 4 {
				t.Fatalf("len(Known) = %d, want 4", len(known))
			}
			if known[0].UserData != tt.want {
				t.Errorf("UserData = %q, want %q", known[0].UserData, tt.want)
			}
			if want := filepath.Join(tt.env.Home, ".vscode", "extensions"); known[0].Extensions != want {
				t.Errorf("Extensions = %q, want %q", known[0].Extensions, want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	home := t.TempDir()
	env := Env{GOOS: "linux", Home: home}
	if err := os.MkdirAll(filepath.Join(home, ".config", "Cursor", "User"), 0o755); err != nil {
		t.Fatal(err)
	}

	found := Detect(env)
	if len(found) != 1 {
		t.Fatalf("len(Detect) = %d, want 1", len(found))
	}
	if found[0].Name != "Cursor" || !found[0].Exists {
		t.Errorf("Detect()[0] = %+v, want existing Cursor", found[0])
	}
	if found[0].ID != "cursor" {
		t.Errorf("ID = %q, want cursor", found[0].ID)
	}
	if want := filepath.Join(home, ".config", "Cursor"); found[0].Path != want {
		t.Errorf("Path = %q, want %q", found[0].Path, want)
	}
	if filepath.Dir(found[0].UserData) != found[0].Path {
		t.Errorf("UserData %q is not under Path %q", found[0].UserData, found[0].Path)
	}
}

func TestKnownIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, inst := range Known(Env{GOOS: "linux", Home: "/home/u"}) {
		if inst.ID == "" {
			t.Errorf("%s has no id", inst.Name)
		}
		if seen[inst.ID] {
			t.Errorf("duplicate id %q", inst.ID)
		}
		seen[inst.ID] = true
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCopy(t *testing.T) {
	src := Installation{Name: "VS Code", UserData: t.TempDir(), Extensions: t.TempDir()}
	writeFile(t, filepath.Join(src.UserData, "settings.json"), `{"editor.tabSize": 4}`)
	writeFile(t, filepath.Join(src.UserData, "snippets", "go.json"), `{}`)
	writeFile(t, filepath.Join(src.Extensions, "golang.go-0.1", "package.json"), `{"name":"go"}`)

	dst := t.TempDir()
	dstUser := filepath.Join(dst, "User")
	dstExt := filepath.Join(dst, "extensions")
	report := Copy(src, dstUser, dstExt)

	if !report.OK() {
		t.Fatalf("Failed = %v, want none", report.Failed)
	}
	if got := len(report.Copied); got != 3 {
		t.Errorf("Copied = %v, want settings.json, snippets, extensions", report.Copied)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "keybindings.json" {
		t.Errorf("Skipped = %v, want [keybindings.json]", report.Skipped)
	}

	data, err := os.ReadFile(filepath.Join(dstUser, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"editor.tabSize": 4}` {
		t.Errorf("settings.json = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dstExt, "golang.go-0.1", "package.json")); err != nil {
		t.Errorf("extension not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dstUser, "snippets", "go.json")); err != nil {
		t.Errorf("snippet not copied: %v", err)
	}
}

func TestCopyContinuesPastFailures(t *testing.T) {
	src := Installation{UserData: t.TempDir(), Extensions: t.TempDir()}
	writeFile(t, filepath.Join(src.UserData, "settings.json"), `{}`)
	writeFile(t, filepath.Join(src.UserData, "keybindings.json"), `[]`)

	// A regular file where the destination directory should be makes every
	// user data copy fail.
	dst := t.TempDir()
	blocker := filepath.Join(dst, "User")
	writeFile(t, blocker, "not a directory")

	report := Copy(src, blocker, filepath.Join(dst, "extensions"))
	if len(report.Failed) != 2 {
		t.Errorf("Failed = %v, want 2 failures", report.Failed)
	}
	if len(report.Copied) != 1 || report.Copied[0] != "extensions" {
		t.Errorf("Copied = %v, want [extensions]", report.Copied)
	}
}
