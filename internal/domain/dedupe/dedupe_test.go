package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianes/pitchscore/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		Convey("A new id is recorded, a repeat is seen", func() {
			So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeTrue)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("Unrecord allows a retry", func() {
			So(d.SeenAndRecord(ctx, "sub-2"), ShouldBeFalse)
			d.Unrecord(ctx, "sub-2")
			So(d.SeenAndRecord(ctx, "sub-2"), ShouldBeFalse)
		})

		Convey("Unrecord of an unknown id does nothing", func() {
			d.Unrecord(ctx, "missing")
			So(d.Size(), ShouldEqual, 0)
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a deduper bounded to 3 ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i)), ShouldBeFalse)
		}

		Convey("Recording a fourth evicts the oldest", func() {
			So(d.SeenAndRecord(ctx, "sub-3"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "sub-0"), ShouldBeFalse) // evicted, so unseen again
			So(d.SeenAndRecord(ctx, "sub-3"), ShouldBeTrue)
		})
	})
}
