package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points HOME and the working directory at a fresh temp dir and
// clears every variable Load reads for the duration of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	keys := []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "WILDS_DB_PATH_FILE"}
	for _, b := range bindings {
		keys = append(keys, b.env)
	}
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func sameFile(t *testing.T, got, want string) {
	t.Helper()
	// macOS temp dirs live behind a /var -> /private/var symlink
	g, _ := filepath.EvalSymlinks(got)
	w, _ := filepath.EvalSymlinks(want)
	if g != w {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFindUp(t *testing.T) {
	home := isolate(t)
	child := filepath.Join(home, "a", "b")
	if err := os.MkdirAll(child, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(child)

	if got := findUp(envLocalFile); got != "" {
		t.Errorf("expected nothing, got %q", got)
	}

	writeFile(t, filepath.Join(home, envLocalFile), "X=home")
	sameFile(t, findUp(envLocalFile), filepath.Join(home, envLocalFile))

	writeFile(t, filepath.Join(home, "a", envLocalFile), "X=a")
	sameFile(t, findUp(envLocalFile), filepath.Join(home, "a", envLocalFile))

	writeFile(t, filepath.Join(child, envLocalFile), "X=b")
	sameFile(t, findUp(envLocalFile), filepath.Join(child, envLocalFile))
}

func TestFindUpStopsAtHome(t *testing.T) {
	root := t.TempDir()
	home := filepath.Join(root, "home")
	if err := os.MkdirAll(home, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, envLocalFile), "X=above-home")
	t.Setenv("HOME", home)
	t.Chdir(home)

	if got := findUp(envLocalFile); got != "" {
		t.Errorf("found %q above the home directory", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(home, ".local", "share", "wilds", "wilds.db"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	want := Defaults()
	want.DBPath = cfg.DBPath
	if *cfg != *want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestLoad_ProjectLocalDB(t *testing.T) {
	isolate(t)
	writeFile(t, LocalDBPath, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != LocalDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, LocalDBPath)
	}
}

func TestLoad_XDGDirectories(t *testing.T) {
	home := isolate(t)
	configHome := filepath.Join(home, "cfg")
	dataHome := filepath.Join(home, "data")
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	writeFile(t, filepath.Join(configHome, "wilds", "config.yaml"), "bundle_dir: /backups\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dataHome, "wilds", "wilds.db"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.BundleDir != "/backups" {
		t.Errorf("BundleDir = %q, want value from XDG config", cfg.BundleDir)
	}
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)

	yamlConfig := "output: json\nlog_level: warn\ndefault_tracker: from-yaml\nnotify_time: \"07:15\"\n"
	writeFile(t, filepath.Join(home, ".config", "wilds", "config.yaml"), yamlConfig)
	writeFile(t, filepath.Join(home, envLocalFile), "WILDS_TRACKER=from-dotenv\n")
	dbFile := filepath.Join(home, "db-path")
	writeFile(t, dbFile, "/data/wilds.db\n")
	t.Setenv("WILDS_DB_PATH_FILE", dbFile)
	t.Setenv("WILDS_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/data/wilds.db" {
		t.Errorf("DBPath = %q, want value from file", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, environment should win", cfg.LogLevel)
	}
	if cfg.Output != "json" || cfg.NotifyTime != "07:15" {
		t.Errorf("Output = %q, NotifyTime = %q, want yaml values", cfg.Output, cfg.NotifyTime)
	}
	if cfg.DefaultTracker != "from-dotenv" {
		t.Errorf("DefaultTracker = %q, dotenv should override yaml", cfg.DefaultTracker)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad notify time", env: map[string]string{"WILDS_NOTIFY_TIME": "25:00"}, wantErr: "NotifyTime"},
		{name: "empty bundle dir", yaml: "bundle_dir: \"\"\n", wantErr: "BundleDir"},
		{name: "unparsable yaml", yaml: "output: [json\n", wantErr: "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			if tt.yaml != "" {
				writeFile(t, filepath.Join(home, ".config", "wilds", "config.yaml"), tt.yaml)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	isolate(t)
	db := bindings[0]
	t.Setenv("WILDS_DB_PATH", "/direct.db")
	t.Setenv("WILDS_DB_PATH_FILE", "/does/not/exist")
	if got := lookup(db); got != "/direct.db" {
		t.Errorf("got %q, direct value should win", got)
	}

	os.Unsetenv("WILDS_DB_PATH")
	if got := lookup(db); got != "" {
		t.Errorf("got %q for unreadable file", got)
	}

	t.Setenv("WILDS_TRACKER_FILE", "/does/not/matter")
	if got := lookup(binding{env: "WILDS_TRACKER"}); got != "" {
		t.Errorf("got %q, _FILE only applies to file bindings", got)
	}
}
