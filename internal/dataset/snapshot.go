package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	snapshotBase     = "school_overview"
	backupTimeLayout = "20060102150405"
	// utf8BOM keeps the CSV openable in spreadsheet tools that sniff encodings.
	utf8BOM = "\uFEFF"
)

// Store owns the current reference snapshot (one JSON file and one CSV file)
// and the directory of timestamped backups. Backups accumulate; nothing
// prunes them.
type Store struct {
	DataDir   string
	BackupDir string
}

// JSONPath returns the location of the current JSON snapshot.
func (s *Store) JSONPath() string {
	return filepath.Join(s.DataDir, snapshotBase+".json")
}

// CSVPath returns the location of the current CSV snapshot.
func (s *Store) CSVPath() string {
	return filepath.Join(s.DataDir, snapshotBase+".csv")
}

// Refresh replaces the snapshot with the given records. A prior snapshot is
// first copied into the backup directory under a UTC-timestamped name; the
// new files then land via temp-file + rename so a crash never leaves a
// half-written snapshot. Returns the backup base name, empty on first run.
func (s *Store) Refresh(records []Record) (string, error) {
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return "", err
	}

	backupName, err := s.backupCurrent()
	if err != nil {
		return "", err
	}

	jsonBytes, err := json.Marshal(map[string][]Record{"data": records})
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(s.JSONPath(), jsonBytes); err != nil {
		return "", err
	}
	if err := writeFileAtomic(s.CSVPath(), encodeCSV(records)); err != nil {
		return "", err
	}
	return backupName, nil
}

func (s *Store) backupCurrent() (string, error) {
	if _, err := os.Stat(s.JSONPath()); err != nil {
		return "", nil // nothing to back up
	}
	if err := os.MkdirAll(s.BackupDir, 0o755); err != nil {
		return "", err
	}
	name := snapshotBase + "_" + time.Now().UTC().Format(backupTimeLayout)
	// Second-resolution timestamps can collide on rapid successive updates;
	// never overwrite an existing backup.
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(s.BackupDir, name+".json")); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s_%s_%d", snapshotBase, time.Now().UTC().Format(backupTimeLayout), i)
	}
	if err := copyFile(s.JSONPath(), filepath.Join(s.BackupDir, name+".json")); err != nil {
		return "", err
	}
	if _, err := os.Stat(s.CSVPath()); err == nil {
		if err := copyFile(s.CSVPath(), filepath.Join(s.BackupDir, name+".csv")); err != nil {
			return "", err
		}
	}
	return name, nil
}

// Current returns the rows of the current snapshot, or nil when none exists.
func (s *Store) Current() ([]Record, error) {
	raw, err := os.ReadFile(s.JSONPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var doc struct {
		Data []Record `json:"data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("snapshot is not valid JSON: %w", err)
	}
	return doc.Data, nil
}

// RecentBackups lists up to limit JSON backup filenames, newest first.
func (s *Store) RecentBackups(limit int) ([]string, error) {
	entries, err := os.ReadDir(s.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// encodeCSV renders the records over the fixed csvColumns order. Quoting
// rule: a value is wrapped in double quotes only when it contains a comma or
// a quote, with inner quotes doubled.
func encodeCSV(records []Record) []byte {
	var b strings.Builder
	b.WriteString(utf8BOM)
	b.WriteString(strings.Join(csvColumns, ","))
	for _, rec := range records {
		b.WriteByte('\n')
		for i, label := range csvColumns {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCSVValue(rec[columnMap[label]]))
		}
	}
	return []byte(b.String())
}

func escapeCSVValue(v string) string {
	if !strings.ContainsAny(v, ",\"") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// writeFileAtomic writes data to a temp file in the target's directory and
// renames it over the target.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
