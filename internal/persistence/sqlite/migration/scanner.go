package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\d{3,})_([a-z0-9_]+)\.sql$`)

// Load reads every *.sql file in dir of fsys and returns them ordered by version.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, NewMigrationError(0, dir, "read directory", err)
	}

	migrations := make([]Migration, 0, len(entries))
	seen := make(map[int]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		filePath := path.Join(dir, entry.Name())
		version, description, err := parseFileName(entry.Name())
		if err != nil {
			return nil, NewMigrationError(0, filePath, "parse file name", err)
		}
		if previous, ok := seen[version]; ok {
			return nil, NewMigrationError(version, filePath, "scan",
				fmt.Errorf("%w: also defined by %s", ErrDuplicateVersion, previous))
		}
		seen[version] = filePath

		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, NewMigrationError(version, filePath, "read file", err)
		}
		sqlText := strings.TrimSpace(string(content))
		if sqlText == "" {
			return nil, NewMigrationError(version, filePath, "read file",
				fmt.Errorf("%w: empty script", ErrInvalidMigrationFile))
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, Migration{
			Version:     version,
			Description: description,
			SQL:         sqlText,
			FilePath:    filePath,
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func parseFileName(name string) (int, string, error) {
	match := fileNamePattern.FindStringSubmatch(name)
	if match == nil {
		return 0, "", fmt.Errorf("%w: %s", ErrInvalidMigrationFile, name)
	}
	version, err := strconv.Atoi(match[1])
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("%w: version of %s", ErrInvalidMigrationFile, name)
	}
	return version, strings.ReplaceAll(match[2], "_", " "), nil
}

// splitStatements breaks a script on semicolons that end a line, skipping
// comment-only fragments.
func splitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}
