package pods

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Taycanstar/podsapp/internal/app"
	"github.com/Taycanstar/podsapp/internal/db"
	"github.com/Taycanstar/podsapp/internal/nutrition"
	"github.com/Taycanstar/podsapp/internal/service"
	"go.uber.org/zap"
)

const (
	envCatalog    = "PODS_CATALOG"
	envUSDAAPIKey = "PODS_USDA_API_KEY"
)

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.OpenMigrated(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()
	return run(sqldb)
}

// loadCatalog resolves the nutrient catalog: --catalog, then PODS_CATALOG,
// then the stored catalog_path, then the built-in catalog.
func loadCatalog(sqldb *sql.DB) (*nutrition.Catalog, error) {
	path := strings.TrimSpace(catalogFlag)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envCatalog))
	}
	cat, source, err := service.ResolveCatalog(sqldb, path)
	if err != nil {
		return nil, err
	}
	log().Debug("nutrient catalog loaded", zap.String("source", source), zap.Int("rows", len(cat.Rows())))
	return cat, nil
}

// wantJSON reports whether output should be JSON: an explicit --json flag
// wins, otherwise the stored output_format decides.
func wantJSON(sqldb *sql.DB, flagSet, flagValue bool) (bool, error) {
	if flagSet {
		return flagValue, nil
	}
	v, ok, err := service.GetConfig(sqldb, service.ConfigOutputFormat)
	if err != nil {
		return false, err
	}
	return ok && v == service.OutputJSON, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// openInput opens path for reading; "-" is stdin.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if strings.TrimSpace(path) == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// parseAssignments splits repeated id=value flags into a map. The value may
// itself contain "=" or spaces.
func parseAssignments(flag string, values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, raw := range values {
		id, value, ok := strings.Cut(raw, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --%s %q (expected id=value)", flag, raw)
		}
		out[id] = value
	}
	return out, nil
}

func resolveUSDAAPIKey(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(envUSDAAPIKey))
}
