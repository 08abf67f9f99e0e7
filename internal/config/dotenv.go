package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LoadDotEnv applies a .env file found in the working directory or one of
// its parents. Variables already present in the environment win.
func LoadDotEnv() {
	path, ok := findDotEnvPath()
	if !ok {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := parseDotEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
	}
}

func findDotEnvPath() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	for dir := cwd; dir != ""; {
		path := filepath.Join(dir, ".env")
		if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
			return path, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func parseDotEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	line = strings.TrimPrefix(line, "export ")

	eqIdx := strings.IndexByte(line, '=')
	if eqIdx <= 0 {
		return "", "", false
	}

	key := strings.TrimSpace(line[:eqIdx])
	if key == "" {
		return "", "", false
	}

	raw := strings.TrimSpace(line[eqIdx+1:])
	if len(raw) >= 2 && ((raw[0] == '\'' && raw[len(raw)-1] == '\'') || (raw[0] == '"' && raw[len(raw)-1] == '"')) {
		return key, raw[1 : len(raw)-1], true
	}
	return key, raw, true
}
