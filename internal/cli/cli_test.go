package cli

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/overlay3d/pkg/cache"
)

func newTestCLI() *CLI {
	return New(io.Discard, log.InfoLevel)
}

// execute runs the root command with args and returns what it wrote to its
// output stream.
func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newTestCLI().RootCommand()
	want := []string{"serve", "preview", "overlay", "compose", "probe", "stats", "scene", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestCacheDir(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
	t.Run("home", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		home, _ := os.UserHomeDir()
		if want := filepath.Join(home, ".cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
}

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()
	c := newTestCLI()

	cc, err := c.newCache(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(cache.NullCache); !ok {
		t.Errorf("noCache gave %T", cc)
	}

	c.config.Cache.Backend = "none"
	if cc, _ := c.newCache(ctx, false); cc == nil {
		t.Error("none backend returned nil")
	} else if _, ok := cc.(cache.NullCache); !ok {
		t.Errorf("none backend gave %T", cc)
	}

	c.config.Cache.Backend = "file"
	c.config.Cache.Dir = t.TempDir()
	cc, err = c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := cc.(*cache.FileCache)
	if !ok || fc.Dir() != c.config.Cache.Dir {
		t.Errorf("file backend gave %T", cc)
	}
}

func TestConfigShow(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, newTestCLI(), "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[server]", "[ffmpeg]", "libx264"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInitThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")

	if _, err := execute(t, newTestCLI(), "config", "init", path); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, newTestCLI(), "config", "init", path); err == nil {
		t.Error("second init without --force should fail")
	}
	out, err := execute(t, newTestCLI(), "--config", path, "config", "show")
	if err != nil || !strings.Contains(out, "veryfast") {
		t.Errorf("show with --config = %q, %v", out, err)
	}
}

func TestSceneCommandPrintsDOT(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, newTestCLI(), "scene", "--text", "AB", "--occlude")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "digraph scene {") {
		t.Errorf("unexpected DOT:\n%s", out)
	}
}

func TestPreviewCommandWritesPNG(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	out := filepath.Join(dir, "p.png")

	_, err := execute(t, newTestCLI(), "preview", "--text", "HI", "--width", "40", "--height", "30", "--no-cache", "-o", out)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 40 || cfg.Height != 30 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPreviewWatchNeedsSceneFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := execute(t, newTestCLI(), "preview", "--watch"); err == nil {
		t.Error("--watch without --params should fail")
	}
}

func TestComposeNeedsVideoArg(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := execute(t, newTestCLI(), "compose"); err == nil {
		t.Error("compose without a video should fail")
	}
}

func TestCompletion(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := execute(t, newTestCLI(), "completion", shell)
		if err != nil || !strings.Contains(out, "overlay3d") {
			t.Errorf("%s completion: err=%v, %d bytes", shell, err, len(out))
		}
	}
	if _, err := execute(t, newTestCLI(), "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestCacheClearCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	t.Setenv("OVERLAY3D_CACHE_DIR", dir)

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = fc.Set(ctx, "preview:a", []byte("png"), 0)
	_ = fc.Set(ctx, "probe:b", []byte("{}"), 0)

	out, err := execute(t, newTestCLI(), "cache", "path")
	if err != nil || strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, %v", out, err)
	}
	if _, err := execute(t, newTestCLI(), "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if n, _, _ := fc.Usage(); n != 0 {
		t.Errorf("%d entries left after clear", n)
	}
}
