package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.True(t, info.IsDev())
}

func TestFormat(t *testing.T) {
	info := Info{Version: "v0.3.0", Commit: "abc123", Branch: "main", BuildDate: "2026-03-14", GoVersion: "go1.24", Platform: "linux/amd64"}
	assert.False(t, info.IsDev())
	assert.Equal(t, "ludics v0.3.0\n"+
		"  Commit:    abc123\n"+
		"  Branch:    main\n"+
		"  Built:     2026-03-14\n"+
		"  Go:        go1.24\n"+
		"  Platform:  linux/amd64\n", info.Format("ludics"))
}
