package standings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relomy/dk-results/internal/domain/standings"
)

func entrant(rank, key string, points float64, pmr string, remaining int, lineup ...*standings.Competitor) *standings.Entrant {
	pts := points
	e := &standings.Entrant{
		RawRank:  rank,
		EntryKey: key,
		Name:     "user-" + key,
		RawPMR:   pmr,
		Points:   &pts,
	}
	e.SetLineup(lineup)
	e.SalaryRemaining = remaining
	return e
}

func TestFindTrainClustersGroupsByPointsAndPMR(t *testing.T) {
	shared := []*standings.Competitor{
		{Name: "Josh Allen", Position: "QB", Salary: 8200},
		{Name: "Sam Hill", Position: "TE", Salary: 3000},
	}

	entrants := []*standings.Entrant{
		entrant("5", "e5", 110.5, "60", 38000, shared...),
		entrant("T12", "e12", 110.5, "60", 38000, shared...),
		entrant("2", "e2", 110.5, "60", 38000, shared...),
		// same stats but above the salary threshold
		entrant("1", "e1", 110.5, "60", 45000, shared...),
		// singleton group
		entrant("9", "e9", 80.0, "30", 20000, shared...),
	}

	clusters := standings.FindTrainClusters(entrants, standings.TrainSalaryRemainingMax)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, 3, c.Count)
	assert.Equal(t, standings.TrainClusterRule, c.Rule)
	// members sorted by numeric rank: 2, 5, T12
	assert.Equal(t, []string{"e2", "e5", "e12"}, c.EntryKeys)
	assert.Equal(t, "Josh Allen|Sam Hill", c.Signature)
	assert.Equal(t, standings.ClusterID("Josh Allen|Sam Hill"), c.ID)
	assert.Len(t, c.ID, 12)
	require.NotNil(t, c.Rank)
	assert.Equal(t, 5, *c.Rank)
	require.NotNil(t, c.Points)
	assert.InDelta(t, 110.5, *c.Points, 0.0001)
}

func TestFindTrainClustersOrdering(t *testing.T) {
	lineupA := []*standings.Competitor{{Name: "Alpha", Position: "G"}}
	lineupB := []*standings.Competitor{{Name: "Beta", Position: "G"}}

	entrants := []*standings.Entrant{
		entrant("1", "a1", 50, "10", 1000, lineupA...),
		entrant("2", "a2", 50, "10", 1000, lineupA...),
		entrant("3", "b1", 90, "20", 1000, lineupB...),
		entrant("4", "b2", 90, "20", 1000, lineupB...),
		entrant("5", "b3", 90, "20", 1000, lineupB...),
	}

	clusters := standings.FindTrainClusters(entrants, standings.TrainSalaryRemainingMax)
	require.Len(t, clusters, 2)
	// bigger cluster first
	assert.Equal(t, 3, clusters[0].Count)
	assert.Equal(t, "Beta", clusters[0].Signature)
	assert.Equal(t, 2, clusters[1].Count)
}

func TestRankNumeric(t *testing.T) {
	cases := map[string]*int{
		"12":  intPtr(12),
		"T12": intPtr(12),
		"t7":  intPtr(7),
		"":    nil,
		"abc": nil,
	}
	for raw, want := range cases {
		got := standings.RankNumeric(raw)
		if want == nil {
			assert.Nil(t, got, "raw=%q", raw)
			continue
		}
		require.NotNil(t, got, "raw=%q", raw)
		assert.Equal(t, *want, *got, "raw=%q", raw)
	}
}

func intPtr(v int) *int { return &v }
