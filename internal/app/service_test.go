package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/FIRSTTeam102/scoutradioz-sub000/internal/app"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/codec"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/importer"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/index"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/protocol"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/types"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/fixtures"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// gatedCodec holds every decompression until release is closed.
type gatedCodec struct {
	codec.Flate
	entered chan struct{}
	release chan struct{}
}

func newGatedCodec() *gatedCodec {
	return &gatedCodec{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gatedCodec) Decompress(ctx context.Context, in []byte, progress chan<- int) ([]byte, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.Flate.Decompress(ctx, in, progress)
}

type scanResult struct {
	sum types.ImportSummary
	err error
}

func newDevice(ctx context.Context, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithMaxChars(0),
		service.WithChecksumPrefix(16),
	}
	svc := service.New(append(base, opts...)...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()), service.WithWorkerCount(2), service.WithDedupeSize(8))

		Convey("When it is used before Start", func() {
			_, err := svc.Scan(ctx, "abc")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When it is started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 2)
			svc.Stop()
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_Exchange(t *testing.T) {
	Convey("Given a lead device and a fresh scouting device", t, func() {
		ctx := context.Background()
		zstd, err := codec.New(codec.NameZstd)
		So(err, ShouldBeNil)
		lead := newDevice(ctx, service.WithCodec(zstd))
		scout := newDevice(ctx, service.WithCodec(zstd), service.WithStore(repository.NewMemoryStore()))
		defer lead.Stop()
		defer scout.Stop()

		set, err := fixtures.Generate(fixtures.WithSize(12, 4, 6))
		So(err, ShouldBeNil)

		meta, err := lead.EncodeMeta(ctx, set.Meta())
		So(err, ShouldBeNil)
		sched, err := lead.EncodeMatchSchedule(ctx, set.Matches)
		So(err, ShouldBeNil)

		Convey("When the scout scans metadata then the schedule", func() {
			sum, err := scout.Scan(ctx, meta)
			So(err, ShouldBeNil)
			So(sum.Type, ShouldEqual, string(protocol.TypeMeta))
			So(sum.ID, ShouldNotBeEmpty)

			sum, err = scout.Scan(ctx, sched)
			So(err, ShouldBeNil)

			Convey("Then every assignment is stored", func() {
				So(sum.Type, ShouldEqual, string(protocol.TypeMatchSchedule))
				So(sum.Rows, ShouldEqual, 36)
				So(sum.Duplicate, ShouldBeFalse)
			})

			Convey("Then scanning the same code again is a duplicate", func() {
				again, err := scout.Scan(ctx, "\n"+sched+" ")
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.Rows, ShouldEqual, 0)
			})

			Convey("Then the scout can re-share what it holds", func() {
				sorted := append([]model.MatchAssignment(nil), set.Matches...)
				repository.SortMatchAssignments(sorted)
				want, err := lead.EncodeMatchSchedule(ctx, sorted)
				So(err, ShouldBeNil)

				out, err := scout.ExportMatchSchedule(ctx, set.Org.OrgKey, set.Event.Key)
				So(err, ShouldBeNil)
				So(out, ShouldEqual, want)

				m, err := scout.ExportMeta(ctx, set.Org.OrgKey)
				So(err, ShouldBeNil)
				So(m, ShouldNotBeEmpty)
			})

			Convey("And the scout records a result and sends it back", func() {
				target := set.Matches[4]
				ref := set.Users[1].Ref()
				res, err := scout.EncodeMatchResult(ctx, &protocol.MatchResult{
					MatchTeamKey: target.MatchTeamKey, ActualScorer: &ref,
					Data: model.Payload{"shots": 5}, Completed: true,
				})
				So(err, ShouldBeNil)
				_, err = scout.Scan(ctx, res)
				So(err, ShouldBeNil)

				Convey("Then a refreshed schedule keeps the scouted data", func() {
					refreshed := make([]model.MatchAssignment, len(set.Matches))
					copy(refreshed, set.Matches)
					other := set.Users[3].Ref()
					refreshed[4].AssignedScorer = &other
					next, err := lead.EncodeMatchSchedule(ctx, refreshed)
					So(err, ShouldBeNil)

					sum, err := scout.Scan(ctx, next)
					So(err, ShouldBeNil)
					So(sum.Preserved, ShouldEqual, 1)

					out, err := scout.ExportMatchResult(ctx, target.MatchTeamKey)
					So(err, ShouldBeNil)
					So(out, ShouldEqual, res)
				})
			})
		})

		Convey("When the scout scans the schedule before metadata", func() {
			_, err := scout.Scan(ctx, sched)

			Convey("Then the unknown teams fail the scan and a rescan is retried", func() {
				So(errors.Is(err, index.ErrUnknownTeam), ShouldBeTrue)
				_, err = scout.Scan(ctx, meta)
				So(err, ShouldBeNil)
				sum, err := scout.Scan(ctx, sched)
				So(err, ShouldBeNil)
				So(sum.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When a result names a row the scout never received", func() {
			res, err := lead.EncodeMatchResult(ctx, &protocol.MatchResult{MatchTeamKey: set.Matches[0].MatchTeamKey, Data: model.Payload{"x": 1}})
			So(err, ShouldBeNil)
			_, err = scout.Scan(ctx, res)

			Convey("Then the orphan is rejected", func() {
				So(errors.Is(err, importer.ErrTargetNotFound), ShouldBeTrue)
				_, err = scout.Scan(ctx, res)
				So(errors.Is(err, importer.ErrTargetNotFound), ShouldBeTrue)
			})
		})

		Convey("When the scanned string is garbage", func() {
			_, err := scout.Scan(ctx, "not a code")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestService_PitExchange(t *testing.T) {
	Convey("Given a pit schedule shared to a scout", t, func() {
		ctx := context.Background()
		lead := newDevice(ctx)
		scout := newDevice(ctx)
		defer lead.Stop()
		defer scout.Stop()

		set, _ := fixtures.Generate(fixtures.WithSize(8, 3, 2))
		meta, _ := lead.EncodeMeta(ctx, set.Meta())
		pits, err := lead.EncodePitSchedule(ctx, set.Pits)
		So(err, ShouldBeNil)
		_, err = scout.Scan(ctx, meta)
		So(err, ShouldBeNil)
		sum, err := scout.Scan(ctx, pits)
		So(err, ShouldBeNil)
		So(sum.Rows, ShouldEqual, 8)

		Convey("When the scout exports a pit result", func() {
			key := set.Pits[2].Key()
			res, err := scout.EncodePitResult(ctx, &protocol.PitResult{Key: key, Data: model.Payload{"drivetrain": "tank"}, Completed: true})
			So(err, ShouldBeNil)
			_, err = scout.Scan(ctx, res)
			So(err, ShouldBeNil)

			Convey("Then the stored row re-encodes to the same string", func() {
				out, err := scout.ExportPitResult(ctx, key)
				So(err, ShouldBeNil)
				So(out, ShouldEqual, res)

				sorted := append([]model.PitAssignment(nil), set.Pits...)
				repository.SortPitAssignments(sorted)
				want, err := lead.EncodePitSchedule(ctx, sorted)
				So(err, ShouldBeNil)

				sched, err := scout.ExportPitSchedule(ctx, set.Org.OrgKey, set.Event.Key)
				So(err, ShouldBeNil)
				So(sched, ShouldEqual, want)
			})
		})
	})
}

// scanTwice starts two scans of s, the second once the first is decoding,
// then lets decoding finish.
func scanTwice(ctx context.Context, svc *service.Service, gate *gatedCodec, s string) [2]scanResult {
	var (
		out [2]scanResult
		wg  sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		out[0].sum, out[0].err = svc.Scan(ctx, s)
	}()
	<-gate.entered
	go func() {
		defer wg.Done()
		out[1].sum, out[1].err = svc.Scan(ctx, s)
	}()
	time.Sleep(50 * time.Millisecond)
	close(gate.release)
	wg.Wait()
	return out
}

func TestService_ConcurrentRescan(t *testing.T) {
	Convey("Given a device whose decoding is held open", t, func() {
		ctx := context.Background()
		gate := newGatedCodec()
		svc := newDevice(ctx, service.WithCodec(gate), service.WithWorkerCount(2))
		defer svc.Stop()

		Convey("When the same broken code is read twice at once", func() {
			res := scanTwice(ctx, svc, gate, "AAAAAAAA")

			Convey("Then both reads report the failure", func() {
				for _, r := range res {
					So(r.err, ShouldNotBeNil)
					So(r.sum.Duplicate, ShouldBeFalse)
				}
				So(svc.GetStats()["rememberedScans"], ShouldEqual, int64(0))
			})
		})

		Convey("When the same valid code is read twice at once", func() {
			lead := newDevice(ctx)
			defer lead.Stop()
			set, err := fixtures.Generate(fixtures.WithSize(6, 2, 1))
			So(err, ShouldBeNil)
			meta, err := lead.EncodeMeta(ctx, set.Meta())
			So(err, ShouldBeNil)

			res := scanTwice(ctx, svc, gate, meta)

			Convey("Then it is imported once and the other read is a duplicate", func() {
				So(res[0].err, ShouldBeNil)
				So(res[1].err, ShouldBeNil)
				imported := 0
				for _, r := range res {
					if !r.sum.Duplicate {
						imported++
						So(r.sum.Rows, ShouldEqual, 10)
					}
				}
				So(imported, ShouldEqual, 1)
				So(svc.GetStats()["rememberedScans"], ShouldEqual, int64(1))
			})
		})
	})
}
