package discovery

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconstructProjectPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("separator differs on windows")
	}

	tests := []struct {
		name    string
		encoded string
		want    string
	}{
		{"absolute unix path", "-home-user-dev-project", "/home/user/dev/project"},
		{"root level dir", "-tmp", "/tmp"},
		{"drive letter", "C-Users-user-dev-project", "C:/Users/user/dev/project"},
		{"lowercase drive letter", "c-work", "c:/work"},
		{"unknown format unchanged", "plainname", "plainname"},
		{"empty unchanged", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconstructProjectPath(tt.encoded))
		})
	}
}
