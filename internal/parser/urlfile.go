package parser

import (
	"bufio"
	"os"
	"strings"
)

// ParseURLFile returns the first non-empty line of a .url file, trimmed.
// A file with only whitespace yields "".
func ParseURLFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "[") {
			// skip blanks and the [InternetShortcut] section header
			continue
		}
		return strings.TrimPrefix(line, "URL="), nil
	}
	return "", sc.Err()
}
