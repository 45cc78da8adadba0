package finding

// Stats aggregates a finding list. It is always derived data: when a tool's
// raw output carries no stats block, counts are recomputed from the findings
// rather than reported as zero.
type Stats struct {
	TotalFindings    int `json:"totalFindings"`
	CriticalFindings int `json:"criticalFindings"`
	HighFindings     int `json:"highFindings"`
	MediumFindings   int `json:"mediumFindings"`
	LowFindings      int `json:"lowFindings"`
	FilesScanned     int `json:"filesScanned"`
}

// ComputeStats derives Stats by scanning the finding list. FilesScanned is
// the number of distinct file paths; findings without a path do not count as
// a scanned file. Hint findings contribute to the total only.
func ComputeStats(findings []Finding) Stats {
	stats := Stats{TotalFindings: len(findings)}

	files := make(map[string]struct{})
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			stats.CriticalFindings++
		case SeverityHigh:
			stats.HighFindings++
		case SeverityMedium:
			stats.MediumFindings++
		case SeverityLow:
			stats.LowFindings++
		}
		if f.FilePath != "" {
			files[f.FilePath] = struct{}{}
		}
	}
	stats.FilesScanned = len(files)

	return stats
}
