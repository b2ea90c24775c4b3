package diskio

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/franela/goblin"
)

func TestSpaceReservation_Stabilize(t *testing.T) {
	g := Goblin(t)

	g.Describe("Stabilize", func() {
		g.It("creates the sentinel and sizes it to the full capacity for an empty folder", func() {
			tmp := newTestFolder()
			defer os.RemoveAll(tmp)

			r := newSpaceReservation(tmp, 1000, &testStats{block: 64})
			g.Assert(r.Stabilize()).IsNil()

			st, err := os.Stat(filepath.Join(tmp, SentinelName))
			g.Assert(err).IsNil()
			g.Assert(st.Size()).Equal(int64(1000))
		})

		g.It("shrinks the sentinel by exactly the size of newly added files", func() {
			tmp := newTestFolder()
			defer os.RemoveAll(tmp)

			r := newSpaceReservation(tmp, 1000, &testStats{block: 64})
			g.Assert(r.Stabilize()).IsNil()

			err := os.WriteFile(filepath.Join(tmp, "real.bin"), make([]byte, 400), 0o644)
			g.Assert(err).IsNil()
			g.Assert(r.Stabilize()).IsNil()

			remaining, err := r.Remaining()
			g.Assert(err).IsNil()
			g.Assert(remaining).Equal(int64(600))
		})

		g.It("is idempotent when nothing changed", func() {
			tmp := newTestFolder()
			defer os.RemoveAll(tmp)

			r := newSpaceReservation(tmp, 1000, &testStats{block: 64})
			g.Assert(r.Stabilize()).IsNil()
			g.Assert(r.Stabilize()).IsNil()

			remaining, err := r.Remaining()
			g.Assert(err).IsNil()
			g.Assert(remaining).Equal(int64(1000))
		})

		g.It("fails instead of resizing the sentinel to a negative length", func() {
			tmp := newTestFolder()
			defer os.RemoveAll(tmp)

			err := os.WriteFile(filepath.Join(tmp, "real.bin"), make([]byte, 2000), 0o644)
			g.Assert(err).IsNil()

			r := newSpaceReservation(tmp, 1000, &testStats{block: 64})
			err = r.Stabilize()
			g.Assert(err).IsNotNil()
			g.Assert(IsErrorCode(err, ErrCodeReservation)).IsTrue()
		})
	})
}

func TestSpaceReservation_Allocate(t *testing.T) {
	g := Goblin(t)

	g.Describe("Allocate", func() {
		g.It("charges accepted allocations against the sentinel", func() {
			tmp := newTestFolder()
			defer os.RemoveAll(tmp)

			r := newSpaceReservation(tmp, 1000, &testStats{block: 64})
			g.Assert(r.Stabilize()).IsNil()
			g.Assert(r.Allocate(300)).IsNil()

			remaining, err := r.Remaining()
			g.Assert(err).IsNil()
			g.Assert(remaining).Equal(int64(700))
		})

		g.It("allows allocating exactly the remaining budget", func() {
			tmp := newTestFolder()
			defer os.RemoveAll(tmp)

			r := newSpaceReservation(tmp, 1000, &testStats{block: 64})
			g.Assert(r.Stabilize()).IsNil()
			g.Assert(r.Allocate(1000)).IsNil()

			remaining, err := r.Remaining()
			g.Assert(err).IsNil()
			g.Assert(remaining).Equal(int64(0))
		})

		g.It("rejects allocations exceeding the remaining budget without mutating it", func() {
			tmp := newTestFolder()
			defer os.RemoveAll(tmp)

			r := newSpaceReservation(tmp, 1000, &testStats{block: 64})
			g.Assert(r.Stabilize()).IsNil()

			err := r.Allocate(1001)
			g.Assert(err).IsNotNil()
			g.Assert(IsErrorCode(err, ErrCodeInsufficientSpace)).IsTrue()

			remaining, rerr := r.Remaining()
			g.Assert(rerr).IsNil()
			g.Assert(remaining).Equal(int64(1000))
		})
	})
}
