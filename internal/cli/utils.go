// Package cli provides output and argument helpers for the outfitter command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named s; anything but "json" is text.
func ParseOutputFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

// WriteMatchResult writes a match result to w in the given format. With explain, the
// text format also lists every score contribution.
func WriteMatchResult(w io.Writer, result *models.MatchResult, format OutputFormat, explain bool) error {
	if format == OutputJSON {
		return WriteJSON(w, result)
	}
	writeMatchText(w, result, explain)
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMatchText(w io.Writer, result *models.MatchResult, explain bool) {
	if !result.Found {
		fmt.Fprintf(w, "\nNo outfit found (%s)\n", result.Reason)
		if result.Response != "" {
			fmt.Fprintf(w, "\n%s\n", result.Response)
		}
		return
	}
	fmt.Fprintf(w, "\nMatched %s | Score: %.4f | %d candidates via %s\n",
		result.Record.ID, result.Score, result.CandidateCount, result.Path)
	fmt.Fprintf(w, "Session: %s | Role: %s\n", result.SessionID, result.Role)
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	WriteRecord(w, result.Record)
	if explain && len(result.Contributions) > 0 {
		fmt.Fprintln(w, "\nScore breakdown:")
		names := make([]string, 0, len(result.Contributions))
		for name := range result.Contributions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-14s %+.4f\n", name, result.Contributions[name])
		}
	}
	if result.Response != "" {
		fmt.Fprintf(w, "\n%s\n", result.Response)
	}
	fmt.Fprintln(w)
}

// WriteRecord writes the garments, styling and tags of rec as text.
func WriteRecord(w io.Writer, rec *models.OutfitRecord) {
	for _, slot := range models.Slots {
		g, ok := rec.Garment(slot)
		if !ok {
			continue
		}
		parts := []string{g.Name}
		for _, attr := range []string{g.Color, g.Fit, g.Material} {
			if attr != "" {
				parts = append(parts, attr)
			}
		}
		fmt.Fprintf(w, "%-12s %s\n", slot+":", strings.Join(parts, ", "))
	}
	for _, dim := range rec.StylingDimensions() {
		fmt.Fprintf(w, "%-12s %s = %s\n", "styling:", dim, rec.StylingMethod[dim])
	}
	fmt.Fprintf(w, "%-12s %s\n", "situations:", strings.Join(rec.EffectiveTags(), ", "))
	if rec.SourceURL != "" {
		fmt.Fprintf(w, "%-12s %s\n", "source:", utils.Truncate(rec.SourceURL, 80))
	}
}

// BuildQuery joins positional arguments into the request text.
func BuildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// ReorderArgs moves any flags (and their values) that appear after the positional
// arguments to the front, since flag.Parse stops at the first non-flag argument.
func ReorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}
