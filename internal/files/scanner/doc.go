// Package scanner discovers migration input files under a source directory.
//
// The expected layout is one subdirectory per comparison:
//
//	src/barCharts/
//	├── DHS_DOHHvsTar4_EC/
//	│   ├── enrichment.KEGG.json
//	│   ├── enrichment.RCTM.json
//	│   └── enrichment.WikiPathways.json
//	└── eIF5A_DDvsWT_EC/
//	    └── ...
//
//	src/graphs/
//	└── eIF5A_DDvsWT_EC/
//	    └── eIF5A_DDvsWT_EC.DEG.all.csv
//
// Directories whose name contains "test" (case-insensitive) are scratch data
// and excluded from discovery. Results are sorted so repeated runs process
// files in the same order on every platform.
package scanner
