// Package migrate finds settings of other editor installations and copies
// them into the current one.
package migrate

import (
	"os"
	"path/filepath"
	"runtime"
)

// Installation is an editor found on this machine, or a known editor whose
// paths were computed but not found. Path is the editor's data root, the
// parent of UserData.
type Installation struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	UserData   string `json:"userDataPath"`
	Extensions string `json:"extensionsPath"`
	Exists     bool   `json:"exists"`
}

// Env holds the inputs used to compute installation paths.
type Env struct {
	GOOS          string
	Home          string
	AppData       string
	XDGConfigHome string
}

// EnvFromOS reads Env from the running process.
func EnvFromOS() Env {
	home, _ := os.UserHomeDir()
	return Env{
		GOOS:          runtime.GOOS,
		Home:          home,
		AppData:       os.Getenv("APPDATA"),
		XDGConfigHome: os.Getenv("XDG_CONFIG_HOME"),
	}
}

type editor struct {
	id         string
	name       string
	configDir  string
	extensions string
}

var editors = []editor{
	{id: "vscode", name: "VS Code", configDir: "Code", extensions: ".vscode"},
	{id: "vscode-insiders", name: "VS Code Insiders", configDir: "Code - Insiders", extensions: ".vscode-insiders"},
	{id: "vscodium", name: "VSCodium", configDir: "VSCodium", extensions: ".vscode-oss"},
	{id: "cursor", name: "Cursor", configDir: "Cursor", extensions: ".cursor"},
}

// Known returns every supported editor with its paths for env, whether or
// not it is installed.
func Known(env Env) []Installation {
	out := make([]Installation, 0, len(editors))
	for _, e := range editors {
		root := filepath.Join(configRoot(env), e.configDir)
		out = append(out, Installation{
			ID:         e.id,
			Name:       e.name,
			Path:       root,
			UserData:   filepath.Join(root, "User"),
			Extensions: filepath.Join(env.Home, e.extensions, "extensions"),
		})
	}
	return out
}

// Detect returns the known editors whose user data directory exists.
func Detect(env Env) []Installation {
	var found []Installation
	for _, inst := range Known(env) {
		if isDir(inst.UserData) {
			inst.Exists = true
			found = append(found, inst)
		}
	}
	return found
}

func configRoot(env Env) string {
	switch env.GOOS {
	case "windows":
		if env.AppData != "" {
			return env.AppData
		}
		return filepath.Join(env.Home, "AppData", "Roaming")
	case "darwin":
		return filepath.Join(env.Home, "Library", "Application Support")
	default:
		if env.XDGConfigHome != "" {
			return env.XDGConfigHome
		}
		return filepath.Join(env.Home, ".config")
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
