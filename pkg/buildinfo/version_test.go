package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFillFromBuildInfo(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	tests := []struct {
		name                string
		version, commit     string
		info                debug.BuildInfo
		wantVer, wantCommit string
	}{
		{
			name:    "module version and vcs",
			version: "dev", commit: "none",
			info: debug.BuildInfo{
				Main:     debug.Module{Version: "v0.3.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
			},
			wantVer: "v0.3.0", wantCommit: "abc123",
		},
		{
			name:    "devel build keeps dev",
			version: "dev", commit: "none",
			info:    debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			wantVer: "dev", wantCommit: "none",
		},
		{
			name:    "ldflags win",
			version: "v1.0.0", commit: "fff",
			info: debug.BuildInfo{
				Main:     debug.Module{Version: "v0.3.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
			},
			wantVer: "v1.0.0", wantCommit: "fff",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = tt.version, tt.commit
			fillFromBuildInfo(&tt.info)
			if Version != tt.wantVer || Commit != tt.wantCommit {
				t.Errorf("got %s/%s, want %s/%s", Version, Commit, tt.wantVer, tt.wantCommit)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	if !strings.HasPrefix(UserAgent(), "overlay3d/") {
		t.Errorf("UserAgent = %q", UserAgent())
	}
	if !strings.Contains(String(), "version: ") || !strings.Contains(Template(), "{{.Name}}") {
		t.Error("unexpected build strings")
	}
}
