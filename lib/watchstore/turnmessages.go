package watchstore

import (
	"bufio"
	"os"
	"strings"
)

// ReadTurnMessagesFile reads one turn message per line. Blank lines and
// lines starting with # are skipped.
func ReadTurnMessagesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		messages = append(messages, line)
	}
	return messages, scanner.Err()
}
