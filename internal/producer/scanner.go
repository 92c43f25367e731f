package producer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".flv":  true,
	".wmv":  true,
	".webm": true,
	".m4v":  true,
}

func isVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// ScanDir lists the video files directly inside dir, sorted by name.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && isVideoFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
