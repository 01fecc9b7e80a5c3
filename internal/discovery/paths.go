package discovery

import (
	"runtime"
	"strings"
)

// ReconstructProjectPath decodes a project directory name back to a
// filesystem path. Project paths are encoded as directory names by
// replacing path separators with hyphens:
//
//	-home-user-dev-project -> /home/user/dev/project
//
// Windows paths carry a drive-letter prefix:
//
//	C-Users-user-dev-project -> C:\Users\user\dev\project
//
// Unknown formats are returned unchanged.
func ReconstructProjectPath(encoded string) string {
	if encoded == "" {
		return encoded
	}

	sep := "/"
	if runtime.GOOS == "windows" {
		sep = "\\"
	}

	// Drive-letter encoding: letter followed by a single hyphen.
	if len(encoded) >= 2 && isAlpha(encoded[0]) && encoded[1] == '-' {
		drive := string(encoded[0])
		rest := encoded[2:]
		return drive + ":" + sep + strings.ReplaceAll(rest, "-", sep)
	}

	if strings.HasPrefix(encoded, "-") {
		return sep + strings.ReplaceAll(encoded[1:], "-", sep)
	}

	return encoded
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
