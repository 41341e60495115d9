package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dv-site/dvload/pkg/dvload"
)

// DatabaseAliases maps the raw database token from an enrichment filename to
// its canonical pathway-database name. Tokens without an alias pass through
// unchanged.
var DatabaseAliases = map[string]string{
	"KEGG":         "KEGG",
	"RCTM":         "Reactome",
	"WikiPathways": "WikiPathways",
}

const (
	enrichmentPrefix = "enrichment."
	enrichmentSuffix = ".json"
	degSuffix        = ".DEG.all.csv"
)

// EnrichmentFile is one discovered enrichment input file, classified by its
// comparison (parent directory) and canonical database name.
type EnrichmentFile struct {
	Path       string
	Comparison string
	Database   string
}

// Scanner discovers input files for both pipelines.
type Scanner struct {
	logger dvload.Logger
}

// NewScanner creates a file scanner.
// Panics if logger is nil.
func NewScanner(logger dvload.Logger) *Scanner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Scanner{logger: logger}
}

// FindEnrichmentFiles enumerates enrichment.<category>.json files under the
// source directory, one level deep. Files with unexpected names are skipped
// with a diagnostic. The result is sorted by (comparison, database, path).
func (s *Scanner) FindEnrichmentFiles(sourcePath string) ([]EnrichmentFile, error) {
	entries, err := readSourceDir(sourcePath)
	if err != nil {
		return nil, err
	}

	var files []EnrichmentFile

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		comparison := entry.Name()
		if isTestDirectory(comparison) {
			s.logger.Verbose("Skipping test directory: %s", comparison)
			continue
		}

		dirPath := filepath.Join(sourcePath, comparison)
		children, err := os.ReadDir(dirPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read comparison directory %s: %w", dirPath, err)
		}

		for _, child := range children {
			if child.IsDir() {
				continue
			}
			name := child.Name()
			if !strings.HasPrefix(name, enrichmentPrefix) || !strings.HasSuffix(name, enrichmentSuffix) {
				continue
			}

			// "enrichment.KEGG.json" -> token "KEGG"; anything with more or
			// fewer dots does not match the two-token pattern.
			stem := strings.TrimSuffix(name, enrichmentSuffix)
			parts := strings.Split(stem, ".")
			if len(parts) != 2 {
				s.logger.Warn("Skipping file with unexpected name: %s", name)
				continue
			}

			database := parts[1]
			if canonical, ok := DatabaseAliases[database]; ok {
				database = canonical
			}

			files = append(files, EnrichmentFile{
				Path:       filepath.Join(dirPath, name),
				Comparison: comparison,
				Database:   database,
			})
			s.logger.Verbose("Found: %s / %s", comparison, database)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Comparison != files[j].Comparison {
			return files[i].Comparison < files[j].Comparison
		}
		if files[i].Database != files[j].Database {
			return files[i].Database < files[j].Database
		}
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Comparisons lists comparison directories that carry a DEG CSV file,
// sorted by name.
func (s *Scanner) Comparisons(sourcePath string) ([]string, error) {
	entries, err := readSourceDir(sourcePath)
	if err != nil {
		return nil, err
	}

	var comparisons []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()
		if isTestDirectory(name) {
			s.logger.Verbose("Skipping test directory: %s", name)
			continue
		}
		if _, err := os.Stat(s.CSVPath(sourcePath, name)); err != nil {
			continue
		}
		comparisons = append(comparisons, name)
	}

	sort.Strings(comparisons)
	return comparisons, nil
}

// CSVPath returns the expected DEG CSV path for a comparison.
func (s *Scanner) CSVPath(sourcePath, comparison string) string {
	return filepath.Join(sourcePath, comparison, comparison+degSuffix)
}

func readSourceDir(sourcePath string) ([]os.DirEntry, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", dvload.ErrSourceNotFound, sourcePath)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", dvload.ErrSourceNotFound, sourcePath)
	}
	return os.ReadDir(sourcePath)
}

func isTestDirectory(name string) bool {
	return strings.Contains(strings.ToLower(name), dvload.TestDirectoryMarker)
}
