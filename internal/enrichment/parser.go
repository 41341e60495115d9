package enrichment

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dv-site/dvload/pkg/dvload"
)

// rawRecord mirrors the key names of the upstream enrichment export.
// FalseDiscoveryRate is a pointer so an absent key can default to 1.0
// ("not significant") instead of 0.0 ("maximally significant").
type rawRecord struct {
	TermID                string   `json:"#term ID"`
	TermDescription       string   `json:"term description"`
	GenesMapped           int      `json:"genes mapped"`
	EnrichmentScore       float64  `json:"enrichment score"`
	Direction             string   `json:"direction"`
	FalseDiscoveryRate    *float64 `json:"false discovery rate"`
	Method                string   `json:"method"`
	MatchingProteinIDs    string   `json:"matching proteins in your input (IDs)"`
	MatchingProteinLabels string   `json:"matching proteins in your input (labels)"`
}

// Parser converts enrichment JSON files into Records.
type Parser struct {
	logger dvload.Logger
}

// NewParser creates a parser.
// Panics if logger is nil.
func NewParser(logger dvload.Logger) *Parser {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Parser{logger: logger}
}

// ParseFile reads one enrichment file and returns its valid records together
// with the count of dropped (invalid) records. A file that cannot be read or
// does not hold a JSON array is an error for that file only; the caller logs
// it and continues with the remaining files.
func (p *Parser) ParseFile(path, comparison, database string) ([]Record, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.Parse(data, comparison, database, path)
}

// Parse converts raw file content into Records. Records lacking a non-empty
// term identifier or description are dropped with a verbose diagnostic.
func (p *Parser) Parse(data []byte, comparison, database, origin string) ([]Record, int, error) {
	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON in %s (expected array of objects): %w", origin, err)
	}

	records := make([]Record, 0, len(raw))
	dropped := 0

	for _, item := range raw {
		if item.TermID == "" || item.TermDescription == "" {
			dropped++
			p.logger.Verbose("Skipping record with missing term ID or description in %s", origin)
			continue
		}

		fdr := 1.0
		if item.FalseDiscoveryRate != nil {
			fdr = *item.FalseDiscoveryRate
		}

		records = append(records, Record{
			Comparison:            comparison,
			Database:              database,
			TermID:                item.TermID,
			TermDescription:       item.TermDescription,
			GenesMapped:           item.GenesMapped,
			EnrichmentScore:       item.EnrichmentScore,
			Direction:             item.Direction,
			FalseDiscoveryRate:    fdr,
			Method:                item.Method,
			MatchingProteinIDs:    item.MatchingProteinIDs,
			MatchingProteinLabels: item.MatchingProteinLabels,
		})
	}

	return records, dropped, nil
}
