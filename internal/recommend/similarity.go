// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package recommend

import (
	"math"
	"sort"

	"github.com/tomtom215/soundalike/internal/recommend/catalog"
)

// match is one ranked snapshot row.
type match struct {
	row   int
	score float64
}

// rank scores every row of snap against the mean vector of the seeds and
// returns up to topN rows, best first, excluding the seeds themselves.
// A seed listed twice weighs twice in the mean. Scores keep full precision;
// exact ties keep snapshot order. resolved is the number of distinct seeds
// found in the snapshot.
func rank[R catalog.Record](snap *catalog.Snapshot[R], seedIDs []int64, topN int) (matches []match, resolved int) {
	seeds := make(map[int64]struct{}, len(seedIDs))
	rows := make([]int, 0, len(seedIDs))
	for _, id := range seedIDs {
		row, ok := snap.Row(id)
		if !ok {
			continue
		}
		rows = append(rows, row)
		if _, dup := seeds[id]; !dup {
			seeds[id] = struct{}{}
			resolved++
		}
	}
	if len(rows) == 0 || topN <= 0 {
		return nil, resolved
	}

	profile := meanVector(snap.Matrix, rows)
	profileNorm := norm(profile)

	scored := make([]match, len(snap.Matrix))
	for i, vec := range snap.Matrix {
		scored[i] = match{row: i, score: cosine(profile, profileNorm, vec)}
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	limit := topN
	if limit > len(scored) {
		limit = len(scored)
	}
	matches = make([]match, 0, limit)
	for _, m := range scored {
		if len(matches) == topN {
			break
		}
		if _, isSeed := seeds[snap.Records[m.row].RecordID()]; isSeed {
			continue
		}
		matches = append(matches, m)
	}
	return matches, resolved
}

// meanVector is the component-wise mean of the given matrix rows.
func meanVector(matrix [][]float64, rows []int) []float64 {
	mean := make([]float64, len(matrix[rows[0]]))
	for _, row := range rows {
		for j, v := range matrix[row] {
			mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}
	return mean
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of a (with precomputed norm) and b,
// and 0 when either vector has zero norm.
func cosine(a []float64, aNorm float64, b []float64) float64 {
	if aNorm == 0 {
		return 0
	}
	var dot, bSum float64
	for i := range a {
		dot += a[i] * b[i]
		bSum += b[i] * b[i]
	}
	if bSum == 0 {
		return 0
	}
	return dot / (aNorm * math.Sqrt(bSum))
}

// round4 rounds a reported similarity to 4 decimals.
func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
