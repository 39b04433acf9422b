package config

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const gitignoreComment = "# pv local database and logs"

// EnsureGitignored lists DirName in root/.gitignore unless a line already
// covers it. The file is created when missing and existing content is kept.
func EnsureGitignored(root string) error {
	path := filepath.Join(root, ".gitignore")
	covered, err := gitignoreCovers(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if covered {
		return nil
	}
	return appendGitignore(path, DirName+"/")
}

func gitignoreCovers(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if coversDir(line) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// coversDir reports whether a gitignore line ignores the whole DirName.
func coversDir(line string) bool {
	switch strings.TrimPrefix(line, "/") {
	case DirName, DirName + "/", DirName + "/*", DirName + "/**", DirName + "/**/*":
		return true
	}
	return false
}

func appendGitignore(path, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n"
	}
	toWrite += gitignoreComment + "\n" + pattern + "\n"
	_, err = file.WriteString(toWrite)
	return err
}
