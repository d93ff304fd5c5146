package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"storypack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Tests default to the in-process render backend so no external binaries are
// required unless a test stubs them explicitly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.BaseDir = filepath.Join(base, "stories")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Ledger.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Render.Backends = []string{config.BackendLibrary}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure config directories: %v", err)
	}

	return builder.cfg
}

// WithBackends overrides the render backend order on the test config.
func WithBackends(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.Backends = append([]string(nil), names...)
	}
}

// WithoutLedger disables run history recording on the test config.
func WithoutLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = false
		b.cfg.Ledger.Path = ""
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries
// are stubbed. Stubs exit 0 without producing output files.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "inkscape", "rsvg-convert"}
		}
		script := "#!/bin/sh\nexit 0\n"
		for _, name := range names {
			b.writeStub(name, script)
		}
		b.prependPath()
	}
}

// WithStubbedBinaryScript writes a custom stub executable and prepends its
// directory to PATH. Useful for stubs that must create their output file,
// like ffmpeg writing the tagged copy named by its final argument:
//
//	#!/bin/sh
//	for last; do :; done
//	touch "$last"
func WithStubbedBinaryScript(name, script string) ConfigOption {
	return func(b *configBuilder) {
		b.writeStub(name, script)
		b.prependPath()
	}
}

func (b *configBuilder) writeStub(name, script string) {
	b.t.Helper()
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
}

func (b *configBuilder) prependPath() {
	b.t.Helper()
	binDir := filepath.Join(b.baseDir, "bin")
	oldPath := os.Getenv("PATH")
	if parts := filepath.SplitList(oldPath); len(parts) > 0 && parts[0] == binDir {
		return
	}
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.BaseDir)
}
