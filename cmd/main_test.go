package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	service "github.com/FIRSTTeam102/scoutradioz-sub000/internal/app"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/config"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/types"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/fixtures"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
)

func run(args ...string) (string, error) {
	root, c := newRootCmd()
	defer c.close()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func writeJSON(dir, name string, v any) string {
	b, err := json.Marshal(v)
	convey.So(err, convey.ShouldBeNil)
	path := filepath.Join(dir, name)
	convey.So(os.WriteFile(path, b, 0o600), convey.ShouldBeNil)
	return path
}

func TestCLI(t *testing.T) {
	convey.Convey("Given a lead database and a scout database", t, func() {
		dir := t.TempDir()
		lead := []string{"--store", "sqlite", "--db", filepath.Join(dir, "lead.db")}
		scout := []string{"--store", "sqlite", "--db", filepath.Join(dir, "scout.db")}
		with := func(dev []string, args ...string) []string {
			return append(append([]string(nil), args...), dev...)
		}

		set, err := fixtures.Generate(fixtures.WithSize(6, 2, 1))
		convey.So(err, convey.ShouldBeNil)
		metaFile := writeJSON(dir, "meta.json", set.Meta())
		schedFile := writeJSON(dir, "sched.json", set.Matches)

		convey.Convey("When the lead encodes metadata and the schedule", func() {
			meta, err := run(with(lead, "encode", "meta", metaFile)...)
			convey.So(err, convey.ShouldBeNil)
			sched, err := run(with(lead, "encode", "sched", schedFile)...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(meta, convey.ShouldNotBeEmpty)
			convey.So(sched, convey.ShouldNotBeEmpty)

			scans := filepath.Join(dir, "scans.txt")
			convey.So(os.WriteFile(scans, []byte(meta+"\n\n"+sched+"\n"), 0o600), convey.ShouldBeNil)

			convey.Convey("Then the scout imports both lines", func() {
				out, err := run(with(scout, "scan", scans)...)
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(out, "\n")
				convey.So(lines, convey.ShouldHaveLength, 2)
				var sum types.ImportSummary
				convey.So(json.Unmarshal([]byte(lines[1]), &sum), convey.ShouldBeNil)
				convey.So(sum.Type, convey.ShouldEqual, "sched")
				convey.So(sum.Rows, convey.ShouldEqual, 6)

				convey.Convey("And the scout re-shares the schedule it holds", func() {
					sorted := append([]model.MatchAssignment(nil), set.Matches...)
					repository.SortMatchAssignments(sorted)
					want, err := run(with(lead, "encode", "sched", writeJSON(dir, "sorted.json", sorted))...)
					convey.So(err, convey.ShouldBeNil)

					png := filepath.Join(dir, "sched.png")
					got, err := run(with(scout, "export", "sched", "--org", set.Org.OrgKey, "--event", set.Event.Key, "--png", png)...)
					convey.So(err, convey.ShouldBeNil)
					convey.So(got, convey.ShouldEqual, want)

					img, err := os.ReadFile(png)
					convey.So(err, convey.ShouldBeNil)
					convey.So(bytes.HasPrefix(img, []byte("\x89PNG")), convey.ShouldBeTrue)
				})
			})
		})

		convey.Convey("When arguments are wrong", func() {
			_, err := run(with(lead, "encode", "bogus", metaFile)...)
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)

			_, err = run(with(lead, "export", "sched", "--org", "frc102")...)
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)

			_, err = run(with(lead, "encode", "meta", filepath.Join(dir, "missing.json"))...)
			convey.So(err, convey.ShouldNotBeNil)

			_, err = run("--store", "paper", "scan", "-")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given the serve command's HTTP server", t, func() {
		ctx := context.Background()
		c := &cli{cfg: config.New(), log: logger.Nop(), svc: service.New(service.WithLogger(logger.Nop()))}
		convey.So(c.svc.Start(ctx), convey.ShouldBeNil)
		defer c.svc.Stop()

		srv := c.newHTTPServer()
		convey.So(srv.Addr, convey.ShouldEqual, "127.0.0.1:9102")
		convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)

		convey.Convey("When health is requested", func() {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When garbage is scanned", func() {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader("not a code")))
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}
