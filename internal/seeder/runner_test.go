package seeder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitchlog/internal/adapters/http/api"
	app "github.com/okian/pitchlog/internal/app"
	"github.com/okian/pitchlog/pkg/logger"
)

func newTestService(ctx context.Context) (*app.Service, *httptest.Server) {
	svc := app.New(app.WithWorkerCount(1))
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	return svc, httptest.NewServer(mux)
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc, srv := newTestService(ctx)
		Reset(func() {
			srv.Close()
			_ = svc.Stop(ctx)
		})

		Convey("When seeding matches", func() {
			stats, summary, err := Run(ctx, Config{
				BaseURL: srv.URL,
				Matches: 12,
				Workers: 4,
				Timeout: 5 * time.Second,
				Last:    5,
				Seed:    99,
			})

			Convey("Then every match is stored and summarized", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 12)
				So(stats.Submitted, ShouldEqual, 12)
				So(stats.Created, ShouldEqual, 12)
				So(stats.Failed, ShouldEqual, 0)
				So(svc.Size(), ShouldEqual, int64(12))
				So(summary.MatchesCount, ShouldEqual, 5)
			})
		})

		Convey("When the analytics window is not offered", func() {
			_, _, err := Run(ctx, Config{BaseURL: srv.URL, Matches: 2, Last: 4, Seed: 1})

			Convey("Then the run reports the rejection", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "analytics retrieval failed")
				So(svc.Size(), ShouldEqual, int64(2))
			})
		})
	})

	Convey("Given an unhealthy service", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		Reset(srv.Close)

		Convey("Then the run stops before submitting", func() {
			stats, _, err := Run(context.Background(), Config{BaseURL: srv.URL, Matches: 3})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check failed")
			So(stats.Submitted, ShouldEqual, 0)
		})
	})
}

func TestClientPostMatch(t *testing.T) {
	Convey("Given a server with scripted responses", t, func() {
		var status int
		var body string
		var gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("Idempotency-Key")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		Reset(srv.Close)
		client := NewClient(srv.URL, srv.Client())
		m := NewGenerator(3).Generate(1, time.Now())[0]

		Convey("Then 201 is a created match", func() {
			status, body = http.StatusCreated, `{"id":"a","duplicate":false}`
			outcome, err := client.PostMatch(context.Background(), "k1", m)
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, outcomeCreated)
			So(gotKey, ShouldEqual, "k1")
		})

		Convey("Then 200 with duplicate is a replay", func() {
			status, body = http.StatusOK, `{"id":"a","duplicate":true}`
			outcome, err := client.PostMatch(context.Background(), "k1", m)
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, outcomeDuplicate)
		})

		Convey("Then a 400 is a failure carrying the server message", func() {
			status, body = http.StatusBadRequest, `{"code":"bad_request","message":"opponent: required"}`
			outcome, err := client.PostMatch(context.Background(), "", m)
			So(outcome, ShouldEqual, outcomeFailed)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "opponent: required")
		})
	})
}

func TestSubmitMatchesRecoversPanics(t *testing.T) {
	Convey("Given a client without an HTTP transport", t, func() {
		client := NewClient("http://127.0.0.1:1", nil)
		matches := NewGenerator(5).Generate(3, time.Now())
		stats := &Stats{}

		Convey("Then every task runs and the panic is returned as an error", func() {
			var err error
			So(func() {
				err = submitMatches(context.Background(), Config{Workers: 2}, client, matches, stats, logger.Get())
			}, ShouldNotPanic)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "match submission task")
			So(stats.Submitted, ShouldEqual, 0)
		})
	})
}
