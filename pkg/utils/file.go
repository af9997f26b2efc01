package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// SeedFileError reports a batch input file that could not be read. It is the
// only error that aborts a run.
type SeedFileError struct {
	Path string
	Err  error
}

func (e *SeedFileError) Error() string {
	return fmt.Sprintf("seed file %s: %v", e.Path, e.Err)
}

func (e *SeedFileError) Unwrap() error { return e.Err }

// WriteFile writes content to a file
func WriteFile(path string, data []byte) error {
	// Security: Use 0600 permissions to restrict access to the file owner
	return os.WriteFile(path, data, 0600)
}

// LoadSeeds reads one URL per line, skipping blanks and # comments.
func LoadSeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SeedFileError{Path: path, Err: err}
	}
	defer f.Close()

	var seeds []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &SeedFileError{Path: path, Err: err}
	}
	return seeds, nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
