package versions

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfoFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		version       string
		commit        string
		buildDate     string
		settings      map[string]string
		wantVersion   string
		wantCommit    string
		wantBuildDate string
	}{
		{
			name:          "release build keeps values",
			version:       "v1.2.3",
			commit:        "abcdef1234567890",
			buildDate:     "2026-03-01T10:00:00Z",
			wantVersion:   "v1.2.3",
			wantCommit:    "abcdef1234567890",
			wantBuildDate: "2026-03-01 10:00:00 UTC",
		},
		{
			name:      "dev build uses vcs settings",
			version:   "dev",
			commit:    unknownStr,
			buildDate: unknownStr,
			settings: map[string]string{
				"vcs.revision": "0123456789abcdef",
				"vcs.time":     "2026-05-02T08:30:00Z",
			},
			wantVersion:   "build-01234567",
			wantCommit:    "0123456789abcdef",
			wantBuildDate: "2026-05-02 08:30:00 UTC",
		},
		{
			name:          "dev build without vcs info",
			version:       "dev",
			commit:        unknownStr,
			buildDate:     unknownStr,
			wantVersion:   "build-unknown",
			wantCommit:    unknownStr,
			wantBuildDate: unknownStr,
		},
		{
			name:          "unparseable build date left as is",
			version:       "v0.1.0",
			commit:        "c0ffee",
			buildDate:     "yesterday",
			wantVersion:   "v0.1.0",
			wantCommit:    "c0ffee",
			wantBuildDate: "yesterday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := versionInfoFrom(tt.version, tt.commit, tt.buildDate, tt.settings)
			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, tt.wantCommit, info.Commit)
			assert.Equal(t, tt.wantBuildDate, info.BuildDate)
			assert.Equal(t, runtime.Version(), info.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
		})
	}
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	ua := UserAgent()
	assert.True(t, strings.HasPrefix(ua, ProductName+"/"), ua)
}
