// Package ranking orders teams for broadcast.
package ranking

import (
	"sort"

	"github.com/brianes/pitchscore/internal/domain/model"
)

// Sort orders teams by final score descending. Ties break by team id
// ascending so the ranking order is reproducible across recomputes.
func Sort(teams []model.Team) {
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].FinalScore != teams[j].FinalScore {
			return teams[i].FinalScore > teams[j].FinalScore
		}
		return teams[i].ID < teams[j].ID
	})
}
