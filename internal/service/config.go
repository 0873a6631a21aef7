package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Taycanstar/podsapp/internal/nutrition"
)

const (
	ConfigCatalogPath  = "catalog_path"
	ConfigOutputFormat = "output_format"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	if err := validateConfigValue(key, strings.TrimSpace(value)); err != nil {
		return err
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

func validateConfigValue(key, value string) error {
	switch key {
	case ConfigOutputFormat:
		if value != OutputText && value != OutputJSON {
			return fmt.Errorf("invalid %s %q (expected %s or %s)", key, value, OutputText, OutputJSON)
		}
	case ConfigCatalogPath:
		if value == "" {
			return nil
		}
		if _, err := nutrition.LoadCatalogFile(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

// ResolveCatalog picks the nutrient catalog: an explicit path first, then the
// configured catalog_path, then the built-in catalog.
func ResolveCatalog(db *sql.DB, path string) (*nutrition.Catalog, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		configured, ok, err := GetConfig(db, ConfigCatalogPath)
		if err != nil {
			return nil, "", err
		}
		if ok {
			path = configured
		}
	}
	if path == "" {
		return nutrition.DefaultCatalog(), "builtin", nil
	}
	cat, err := nutrition.LoadCatalogFile(path)
	if err != nil {
		return nil, "", err
	}
	return cat, path, nil
}
