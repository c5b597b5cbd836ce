package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/pitchlog/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When the key is new", func() {
			id, seen := d.Reserve(ctx, "key-1")

			Convey("Then it is reserved", func() {
				So(seen, ShouldBeFalse)
				So(id, ShouldBeEmpty)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the key was reserved but not yet bound", func() {
			d.Reserve(ctx, "key-1")
			id, seen := d.Reserve(ctx, "key-1")

			Convey("Then it is seen without a match id", func() {
				So(seen, ShouldBeTrue)
				So(id, ShouldBeEmpty)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the key was bound to a match", func() {
			d.Reserve(ctx, "key-1")
			d.Bind(ctx, "key-1", "match-42")
			id, seen := d.Reserve(ctx, "key-1")

			Convey("Then replays return the original match id", func() {
				So(seen, ShouldBeTrue)
				So(id, ShouldEqual, "match-42")
			})
		})

		Convey("When binding an unknown key", func() {
			d.Bind(ctx, "ghost", "match-1")

			Convey("Then nothing is recorded", func() {
				So(d.Size(), ShouldEqual, 0)
				_, seen := d.Reserve(ctx, "ghost")
				So(seen, ShouldBeFalse)
			})
		})

		Convey("When a reserved key is unrecorded", func() {
			d.Reserve(ctx, "key-1")
			d.Reserve(ctx, "key-2")
			d.Unrecord(ctx, "key-1")

			Convey("Then it can be reserved again", func() {
				So(d.Size(), ShouldEqual, 1)
				_, seen := d.Reserve(ctx, "key-1")
				So(seen, ShouldBeFalse)
			})

			Convey("And unrecording it twice is harmless", func() {
				d.Unrecord(ctx, "key-1")
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a bounded deduper at capacity", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.Reserve(ctx, fmt.Sprintf("key-%d", i))
		}

		Convey("When a new key arrives", func() {
			d.Reserve(ctx, "key-4")

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				_, seen := d.Reserve(ctx, "key-2")
				So(seen, ShouldBeTrue)
				_, seen = d.Reserve(ctx, "key-4")
				So(seen, ShouldBeTrue)
				_, seen = d.Reserve(ctx, "key-1")
				So(seen, ShouldBeFalse)
			})
		})

		Convey("When the oldest key was unrecorded first", func() {
			d.Unrecord(ctx, "key-1")
			d.Reserve(ctx, "key-4")
			d.Reserve(ctx, "key-5")

			Convey("Then eviction continues from the new tail", func() {
				So(d.Size(), ShouldEqual, 3)
				_, seen := d.Reserve(ctx, "key-3")
				So(seen, ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When many keys are reserved", func() {
			for i := 0; i < 5000; i++ {
				d.Reserve(ctx, fmt.Sprintf("key-%d", i))
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, 5000)
				_, seen := d.Reserve(ctx, "key-0")
				So(seen, ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When many goroutines reserve the same key", func() {
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, seen := d.Reserve(ctx, "shared"); !seen {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one wins the reservation", func() {
				So(fresh, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When goroutines reserve and unrecord distinct keys", func() {
			var wg sync.WaitGroup
			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					key := fmt.Sprintf("key-%d", i)
					d.Reserve(ctx, key)
					if i%2 == 0 {
						d.Unrecord(ctx, key)
					}
				}(i)
			}
			wg.Wait()

			Convey("Then only the kept keys remain", func() {
				So(d.Size(), ShouldEqual, 50)
			})
		})
	})
}
