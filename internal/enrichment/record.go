// Package enrichment parses pathway-enrichment JSON exports and loads them
// into the fixed enrichment_data table.
package enrichment

// Record is one normalized pathway-enrichment row.
// Natural key: (Comparison, Database, TermID).
type Record struct {
	Comparison            string
	Database              string
	TermID                string
	TermDescription       string
	GenesMapped           int
	EnrichmentScore       float64
	Direction             string
	FalseDiscoveryRate    float64
	Method                string
	MatchingProteinIDs    string
	MatchingProteinLabels string
}
