package criteria_test

import (
	"testing"

	"github.com/brianes/pitchscore/internal/domain/criteria"
	"github.com/brianes/pitchscore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given the seeded rubric", t, func() {
		defs := criteria.Defaults()

		Convey("Then there are exactly nine criteria", func() {
			So(defs, ShouldHaveLength, criteria.Count)
		})

		Convey("Then every criterion has four levels covering 1..4", func() {
			for _, c := range defs {
				So(c.Levels, ShouldHaveLength, 4)
				So(c.MaxScore, ShouldEqual, model.MaxScore)
				seen := map[int]bool{}
				for _, lvl := range c.Levels {
					So(lvl.Level, ShouldBeBetweenOrEqual, model.MinScore, model.MaxScore)
					So(lvl.Label, ShouldNotBeBlank)
					seen[lvl.Level] = true
				}
				So(seen, ShouldHaveLength, 4)
			}
		})

		Convey("Then criterion ids are unique", func() {
			ids := map[string]bool{}
			for _, c := range defs {
				So(ids[c.ID], ShouldBeFalse)
				ids[c.ID] = true
			}
		})
	})
}
