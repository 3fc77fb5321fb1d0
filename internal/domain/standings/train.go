package standings

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// TrainSalaryRemainingMax bounds remaining salary for train detection. An
// entry with this much cap left has spent enough to be a deliberate stack.
const TrainSalaryRemainingMax = 40000

// TrainClusterRule documents the grouping predicate on the wire.
const TrainClusterRule = "salary_remaining<=40000_and_same_points_pmr"

// TrainCluster groups entries sharing identical points and time remaining
// under the salary threshold, which in practice means a copied lineup.
type TrainCluster struct {
	ID        string
	Rule      string
	Count     int
	Rank      *int
	Points    *float64
	PMR       *float64
	Signature string
	EntryKeys []string
}

// ClusterID derives a short stable id from a lineup signature.
func ClusterID(signature string) string {
	sum := sha1.Sum([]byte(signature))
	return hex.EncodeToString(sum[:])[:12]
}

// FindTrainClusters scans entrants in standings order and groups those at or
// below maxRemaining salary by (points, pmr). Only groups with more than one
// member survive. Members are ordered by rank then entry key, and the best
// member's lineup names the cluster.
func FindTrainClusters(entrants []*Entrant, maxRemaining int) []TrainCluster {
	type group struct {
		first   *Entrant
		members []*Entrant
	}

	groups := make(map[string]*group)
	var order []string
	for _, entrant := range entrants {
		if entrant.SalaryRemaining > maxRemaining {
			continue
		}
		key := groupKey(entrant)
		g, ok := groups[key]
		if !ok {
			g = &group{first: entrant}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, entrant)
	}

	var out []TrainCluster
	for _, key := range order {
		g := groups[key]
		if len(g.members) <= 1 {
			continue
		}

		members := append([]*Entrant(nil), g.members...)
		sort.SliceStable(members, func(i, j int) bool {
			return lessByRankThenKey(members[i], members[j])
		})

		signature := members[0].LineupSignature()
		entryKeys := make([]string, 0, len(members))
		for _, member := range members {
			entryKeys = append(entryKeys, member.EntryKey)
		}

		out = append(out, TrainCluster{
			ID:        ClusterID(signature),
			Rule:      TrainClusterRule,
			Count:     len(members),
			Rank:      RankNumeric(g.first.RawRank),
			Points:    g.first.Points,
			PMR:       g.first.PMR,
			Signature: signature,
			EntryKeys: entryKeys,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		pi, pj := floatOrMin(out[i].Points), floatOrMin(out[j].Points)
		if pi != pj {
			return pi > pj
		}
		return out[i].Signature < out[j].Signature
	})
	return out
}

func groupKey(e *Entrant) string {
	pts := ""
	if e.Points != nil {
		pts = strconv.FormatFloat(*e.Points, 'f', -1, 64)
	}
	return pts + "-" + e.RawPMR
}

func lessByRankThenKey(a, b *Entrant) bool {
	ra, rb := RankNumeric(a.RawRank), RankNumeric(b.RawRank)
	if (ra == nil) != (rb == nil) {
		return rb == nil
	}
	if ra != nil && rb != nil && *ra != *rb {
		return *ra < *rb
	}
	if a.RawRank != b.RawRank {
		return a.RawRank < b.RawRank
	}
	return a.EntryKey < b.EntryKey
}

// RankNumeric parses a rank string, tolerating tie markers like "T12".
func RankNumeric(raw string) *int {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	if n, err := strconv.Atoi(text); err == nil {
		return &n
	}
	upper := strings.ToUpper(text)
	if strings.HasPrefix(upper, "T") {
		if n, err := strconv.Atoi(upper[1:]); err == nil {
			return &n
		}
	}
	return nil
}

func floatOrMin(v *float64) float64 {
	if v == nil {
		return -1e9
	}
	return *v
}
