// Package contextasm assembles the context Stage B and Final analyzers see:
// a fair-share combiner across Stage A results under a token budget, and a
// map-reduce summarizer for collapsing oversized context into a target
// token count. Both are direct ports of original_source/src/utils's
// context_builder.py and summarizer.py.
package contextasm

import (
	"context"
	"sort"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/tokencount"
)

// FairShareDebug carries the allocation telemetry the original
// build_fair_combined_context returns alongside the combined text, used for
// logging and for the testable properties around allocation fairness.
type FairShareDebug struct {
	PerSectionTokens map[string]int `json:"per_section_tokens"`
	Allocations      map[string]int `json:"allocations"`
	AfterTokens      map[string]int `json:"after_tokens"`
	FinalTokens      int            `json:"final_tokens"`
	MinPerAnalyzer   int            `json:"min_per_analyzer"`
	Budget           int            `json:"budget"`
}

// BuildFairCombinedContext concatenates every Stage A analyzer's
// ToContextString() output under totalBudgetTokens, guaranteeing each
// analyzer at least minPerAnalyzer tokens (reduced proportionally if
// minPerAnalyzer*n would exceed the budget) and distributing the remainder
// proportionally to each section's excess size over the minimum. Sections
// are concatenated in the order given by order (analyzer slugs); any slug
// not present in order sorts last, in map-iteration-stable (slug-sorted)
// order. This is an exact port of
// original_source/src/utils/context_builder.py:build_fair_combined_context.
func BuildFairCombinedContext(
	ctx context.Context,
	counter tokencount.Counter,
	previousAnalyses map[string]jobtypes.AnalyzerRecord,
	totalBudgetTokens int,
	minPerAnalyzer int,
	order []string,
) (string, FairShareDebug) {
	type section struct {
		slug string
		text string
	}
	sections := make([]section, 0, len(previousAnalyses))
	for slug, rec := range previousAnalyses {
		sections = append(sections, section{slug: slug, text: rec.ToContextString()})
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].slug < sections[j].slug })
	if len(order) > 0 {
		index := make(map[string]int, len(order))
		for i, slug := range order {
			index[slug] = i
		}
		sort.SliceStable(sections, func(i, j int) bool {
			oi, oki := index[sections[i].slug]
			oj, okj := index[sections[j].slug]
			if !oki {
				oi = len(order)
			}
			if !okj {
				oj = len(order)
			}
			return oi < oj
		})
	}

	perCounts := make(map[string]int, len(sections))
	totalTokens := 0
	for _, s := range sections {
		c := counter.Count(ctx, s.text)
		perCounts[s.slug] = c
		totalTokens += c
	}

	if totalBudgetTokens <= 0 || totalTokens <= totalBudgetTokens {
		combined := ""
		for _, s := range sections {
			combined += s.text + "\n---\n"
		}
		allocations := map[string]int{}
		for k, v := range perCounts {
			allocations[k] = v
		}
		return combined, FairShareDebug{
			PerSectionTokens: perCounts,
			Allocations:      allocations,
			AfterTokens:      allocations,
			FinalTokens:      counter.Count(ctx, combined),
			MinPerAnalyzer:   minPerAnalyzer,
			Budget:           totalBudgetTokens,
		}
	}

	n := len(sections)
	if n == 0 {
		n = 1
	}
	minPer := minPerAnalyzer
	if minPer <= 0 {
		minPer = 1
	}
	if minPer*n > totalBudgetTokens {
		minPer = totalBudgetTokens / n
		if minPer < 1 {
			minPer = 1
		}
	}
	remaining := totalBudgetTokens - minPer*n

	weights := make(map[string]float64, len(sections))
	weightSum := 0.0
	for _, s := range sections {
		excess := perCounts[s.slug] - minPer
		if excess < 0 {
			excess = 0
		}
		w := float64(excess) + 1.0
		weights[s.slug] = w
		weightSum += w
	}

	allocations := make(map[string]int, len(sections))
	for _, s := range sections {
		alloc := minPer
		if remaining > 0 && weightSum > 0 {
			alloc += roundToInt(float64(remaining) * (weights[s.slug] / weightSum))
		}
		if alloc < 1 {
			alloc = 1
		}
		allocations[s.slug] = alloc
	}

	sum := 0
	for _, v := range allocations {
		sum += v
	}
	if diff := totalBudgetTokens - sum; diff != 0 && len(sections) > 0 {
		last := sections[len(sections)-1].slug
		allocations[last] += diff
		if allocations[last] < 1 {
			allocations[last] = 1
		}
	}

	afterCounts := make(map[string]int, len(sections))
	combined := ""
	for _, s := range sections {
		trimmed := counter.LimitByTokens(ctx, s.text, allocations[s.slug])
		afterCounts[s.slug] = counter.Count(ctx, trimmed)
		combined += trimmed + "\n---\n"
	}

	return combined, FairShareDebug{
		PerSectionTokens: perCounts,
		Allocations:      allocations,
		AfterTokens:      afterCounts,
		FinalTokens:      counter.Count(ctx, combined),
		MinPerAnalyzer:   minPer,
		Budget:           totalBudgetTokens,
	}
}

func roundToInt(f float64) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return -int(-f + 0.5)
}
