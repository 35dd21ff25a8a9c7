// Package tasklist reads and writes plain-text task lists.
package tasklist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/paperlist/internal/model"
)

// Load reads one task per line from the provided file path.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only task file.
			_ = cerr
		}
	}()
	return Read(file)
}

// Read parses tasks from r. Blank lines and markdown headings are skipped and
// list markers such as "- [ ] " are stripped.
func Read(r io.Reader) ([]string, error) {
	var tasks []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if task, ok := ParseLine(scanner.Text()); ok {
			tasks = append(tasks, task)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task list is empty")
	}
	return tasks, nil
}

// ParseLine returns the task text of a line and whether the line holds one.
func ParseLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}
	for _, marker := range []string{"- ", "* ", "+ "} {
		if line == strings.TrimSpace(marker) {
			return "", false
		}
		if strings.HasPrefix(line, marker) {
			line = strings.TrimSpace(line[len(marker):])
			break
		}
	}
	for _, box := range []string{"[ ]", "[x]", "[X]"} {
		if strings.HasPrefix(line, box) {
			line = strings.TrimSpace(line[len(box):])
			break
		}
	}
	return line, line != ""
}

// Write renders the list as a markdown checklist under the list title.
func Write(w io.Writer, title string, tasks []model.Task) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n", title); err != nil {
		return err
	}
	for _, task := range tasks {
		box := "[ ]"
		if task.Completed {
			box = "[x]"
		}
		if _, err := fmt.Fprintf(w, "- %s %s\n", box, task.Content); err != nil {
			return err
		}
	}
	return nil
}
