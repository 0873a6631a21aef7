package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Taycanstar/podsapp/internal/db"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

type DoctorReport struct {
	OrphanMeasures          int `json:"orphan_measures"`
	OrphanNutrients         int `json:"orphan_nutrients"`
	DanglingBaselineMeasure int `json:"dangling_baseline_measure"`
	DuplicateFoodNames      int `json:"duplicate_food_names"`
	FixedRows               int `json:"fixed_rows,omitempty"`
}

// Issues counts the findings that make the library inconsistent. Duplicate
// names are reported but allowed.
func (r DoctorReport) Issues() int {
	return r.OrphanMeasures + r.OrphanNutrients + r.DanglingBaselineMeasure
}

// CreateBackup writes a consistent snapshot of the open database to outPath
// with VACUUM INTO, plus a .sha256 sidecar.
func CreateBackup(sqldb *sql.DB, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if _, err := os.Stat(outPath); err == nil {
		return BackupInfo{}, fmt.Errorf("backup %s already exists", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := sqldb.Exec(`VACUUM INTO ?`, outPath); err != nil {
		return BackupInfo{}, fmt.Errorf("snapshot database: %w", err)
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Path: outPath, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

// RestoreBackup verifies the checksum sidecar when present, checks that the
// backup opens and migrates cleanly, then copies it over dbPath.
func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("target db already exists; use --force to overwrite")
		}
	}
	if expected, err := os.ReadFile(backupPath + ".sha256"); err == nil {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(expected)) != actual {
			return fmt.Errorf("backup checksum mismatch")
		}
	}

	staged := dbPath + ".restore"
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	if err := copyFile(backupPath, staged); err != nil {
		return err
	}
	check, err := db.OpenMigrated(staged)
	if err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("backup is not a usable pods database: %w", err)
	}
	_ = check.Close()
	if err := os.Rename(staged, dbPath); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

func ListBackups(dir string) ([]BackupInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".db") {
			continue
		}
		full := filepath.Join(dir, f.Name())
		st, err := os.Stat(full)
		if err != nil {
			continue
		}
		checksum := ""
		if b, err := os.ReadFile(full + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		out = append(out, BackupInfo{Path: full, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// RunDoctor checks the food library tables for rows the foreign keys should
// have prevented and for baselines pointing at missing measures. With fix,
// orphans are deleted and dangling baselines cleared.
func RunDoctor(sqldb *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	checks := []struct {
		name  string
		query string
		dst   *int
	}{
		{"orphan measures", `SELECT COUNT(1) FROM food_measures m LEFT JOIN foods f ON f.id = m.food_id WHERE f.id IS NULL`, &report.OrphanMeasures},
		{"orphan nutrients", `SELECT COUNT(1) FROM food_nutrients n LEFT JOIN foods f ON f.id = n.food_id WHERE f.id IS NULL`, &report.OrphanNutrients},
		{"dangling baseline", `
SELECT COUNT(1) FROM foods f
WHERE f.baseline_measure_id != ''
  AND NOT EXISTS (SELECT 1 FROM food_measures m WHERE m.food_id = f.id AND m.measure_id = f.baseline_measure_id)`, &report.DanglingBaselineMeasure},
		{"duplicate names", `SELECT COALESCE(SUM(cnt-1),0) FROM (SELECT COUNT(*) AS cnt FROM foods GROUP BY name_norm HAVING cnt > 1)`, &report.DuplicateFoodNames},
	}
	for _, c := range checks {
		if err := sqldb.QueryRow(c.query).Scan(c.dst); err != nil {
			return report, fmt.Errorf("doctor %s check: %w", c.name, err)
		}
	}
	if !fix || report.Issues() == 0 {
		return report, nil
	}

	tx, err := sqldb.Begin()
	if err != nil {
		return report, fmt.Errorf("doctor fix begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	fixes := []string{
		`DELETE FROM food_measures WHERE food_id NOT IN (SELECT id FROM foods)`,
		`DELETE FROM food_nutrients WHERE food_id NOT IN (SELECT id FROM foods)`,
		`UPDATE foods SET baseline_measure_id = '', updated_at = CURRENT_TIMESTAMP
WHERE baseline_measure_id != ''
  AND NOT EXISTS (SELECT 1 FROM food_measures m WHERE m.food_id = foods.id AND m.measure_id = foods.baseline_measure_id)`,
	}
	for _, q := range fixes {
		res, err := tx.Exec(q)
		if err != nil {
			return report, fmt.Errorf("doctor fix: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return report, fmt.Errorf("doctor fix: %w", err)
		}
		report.FixedRows += int(n)
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("doctor fix commit: %w", err)
	}
	return report, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
