// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/grepmarx/grepmarx/internal/executil"
	"github.com/grepmarx/grepmarx/internal/store"
)

// sccLanguage is one entry of the counter's JSON report.
type sccLanguage struct {
	Name       string `json:"Name"`
	Count      int    `json:"Count"`
	Lines      int    `json:"Lines"`
	Blank      int    `json:"Blank"`
	Comment    int    `json:"Comment"`
	Code       int    `json:"Code"`
	Complexity int    `json:"Complexity"`
}

// CountLines runs the line counter over sourceDir and aggregates its
// per-language report into a ProjectLinesCount.
func CountLines(ctx context.Context, sccPath string, timeout time.Duration, sourceDir string) (*store.ProjectLinesCount, error) {
	result, err := executil.Run(ctx, executil.Config{
		Command: sccPath,
		Args:    []string{"-f", "json", sourceDir},
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to run line counter: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("line counter exited with code %d: %s", result.ExitCode, result.Stderr)
	}

	return ParseLinesCount(result.Stdout)
}

// ParseLinesCount parses the counter's JSON report.
func ParseLinesCount(report []byte) (*store.ProjectLinesCount, error) {
	var languages []sccLanguage
	if err := json.Unmarshal(report, &languages); err != nil {
		return nil, fmt.Errorf("unable to parse line counter report: %w", err)
	}

	counts := &store.ProjectLinesCount{}
	for _, lang := range languages {
		counts.TotalFileCount += lang.Count
		counts.TotalLineCount += lang.Lines
		counts.TotalBlankCount += lang.Blank
		counts.TotalCommentCount += lang.Comment
		counts.TotalCodeCount += lang.Code
		counts.TotalComplexityCount += lang.Complexity
		counts.LanguageLinesCounts = append(counts.LanguageLinesCounts, store.LanguageLinesCount{
			Language:        lang.Name,
			FileCount:       lang.Count,
			LineCount:       lang.Lines,
			BlankCount:      lang.Blank,
			CommentCount:    lang.Comment,
			CodeCount:       lang.Code,
			ComplexityCount: lang.Complexity,
		})
	}
	return counts, nil
}

// TopLanguages returns the names of the count's n largest languages by
// code line count.
func TopLanguages(counts *store.ProjectLinesCount, n int) []string {
	if counts == nil {
		return nil
	}
	sorted := make([]store.LanguageLinesCount, len(counts.LanguageLinesCounts))
	copy(sorted, counts.LanguageLinesCounts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CodeCount > sorted[j].CodeCount
	})

	var names []string
	for i := 0; i < len(sorted) && i < n; i++ {
		names = append(names, sorted[i].Language)
	}
	return names
}
