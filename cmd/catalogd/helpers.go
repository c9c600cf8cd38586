package main

import (
	"fmt"
	"strconv"
	"time"

	"catalogd/internal/catalog"
	"catalogd/internal/match"
)

func renderFields(fields catalog.Fields) string {
	rows := make([][]string, 0, len(catalog.FieldNames()))
	for _, name := range catalog.FieldNames() {
		value := fields.Get(name)
		if value == "" {
			continue
		}
		rows = append(rows, []string{name, value})
	}
	return renderTable(
		[]string{"Field", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	)
}

func renderCandidates(candidates []match.Candidate) string {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{
			strconv.FormatInt(c.MasterID, 10),
			strconv.Itoa(c.Score),
			orDash(c.ProductName),
			orDash(c.Manufacturer),
			orDash(c.ApprovalNumber),
		})
	}
	return renderTable(
		[]string{"ID", "Score", "Product", "Manufacturer", "Approval"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return fmt.Sprintf("%s…", string(runes[:limit-1]))
}
