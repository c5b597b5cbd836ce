package textgen_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/okian/pitchlog/internal/adapters/textgen"
	"github.com/okian/pitchlog/internal/domain/report"
	"github.com/okian/pitchlog/pkg/resilience"
	. "github.com/smartystreets/goconvey/convey"
)

const okBody = `{
  "output": [
    {"type": "reasoning"},
    {"type": "message", "role": "assistant", "content": [
      {"type": "output_text", "text": "  NEGATIVE TRENDS\n- 100% of goals conceded came from ABP  "}
    ]}
  ]
}`

type recorded struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Input       []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"input"`
}

func TestClientGenerate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Responses API that answers successfully", t, func() {
		var (
			got  recorded
			auth string
			path string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			path = r.URL.Path
			raw, _ := io.ReadAll(r.Body)
			_ = sonic.Unmarshal(raw, &got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(okBody))
		}))
		defer srv.Close()

		c := textgen.New(
			textgen.WithAPIKey("sk-test"),
			textgen.WithBaseURL(srv.URL+"/"),
			textgen.WithModel("gpt-test"),
			textgen.WithTemperature(0.2),
		)

		text, err := c.Generate(ctx, "system prompt", "user prompt")

		Convey("Then it returns the trimmed output_text", func() {
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "NEGATIVE TRENDS\n- 100% of goals conceded came from ABP")
		})

		Convey("Then the request carries model, temperature and both messages", func() {
			So(path, ShouldEqual, "/v1/responses")
			So(auth, ShouldEqual, "Bearer sk-test")
			So(got.Model, ShouldEqual, "gpt-test")
			So(got.Temperature, ShouldEqual, 0.2)
			So(len(got.Input), ShouldEqual, 2)
			So(got.Input[0].Role, ShouldEqual, "system")
			So(got.Input[0].Content, ShouldEqual, "system prompt")
			So(got.Input[1].Role, ShouldEqual, "user")
			So(got.Input[1].Content, ShouldEqual, "user prompt")
		})
	})

	Convey("Given a client without an API key", t, func() {
		c := textgen.New(textgen.WithBaseURL("http://127.0.0.1:1"))

		_, err := c.Generate(ctx, "s", "u")

		Convey("Then it reports ErrNotConfigured without calling out", func() {
			So(errors.Is(err, report.ErrNotConfigured), ShouldBeTrue)
		})
	})

	Convey("Given an API that fails once with 500 then succeeds", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(okBody))
		}))
		defer srv.Close()

		c := textgen.New(
			textgen.WithAPIKey("k"),
			textgen.WithBaseURL(srv.URL),
			textgen.WithMaxRetries(2),
			textgen.WithBackoff(time.Millisecond),
		)

		text, err := c.Generate(ctx, "s", "u")

		Convey("Then it retries and succeeds", func() {
			So(err, ShouldBeNil)
			So(text, ShouldStartWith, "NEGATIVE TRENDS")
			So(calls.Load(), ShouldEqual, 2)
		})
	})

	Convey("Given an API that rejects the request with 400", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, `{"error":{"message":"bad model"}}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		c := textgen.New(
			textgen.WithAPIKey("k"),
			textgen.WithBaseURL(srv.URL),
			textgen.WithMaxRetries(3),
			textgen.WithBackoff(time.Millisecond),
		)

		_, err := c.Generate(ctx, "s", "u")

		Convey("Then it does not retry and exposes the status", func() {
			So(calls.Load(), ShouldEqual, 1)
			var httpErr *textgen.HTTPError
			So(errors.As(err, &httpErr), ShouldBeTrue)
			So(httpErr.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(httpErr.Body, ShouldContainSubstring, "bad model")
		})
	})

	Convey("Given an API answering without output_text", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"refusal"}]}]}`))
		}))
		defer srv.Close()

		c := textgen.New(textgen.WithAPIKey("k"), textgen.WithBaseURL(srv.URL))

		_, err := c.Generate(ctx, "s", "u")

		Convey("Then it returns an error", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no output_text")
		})
	})

	Convey("Given an API that keeps failing and a breaker with threshold 2", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := textgen.New(
			textgen.WithAPIKey("k"),
			textgen.WithBaseURL(srv.URL),
			textgen.WithMaxRetries(0),
			textgen.WithBreaker(resilience.NewBreaker(
				resilience.WithFailureThreshold(2),
				resilience.WithOpenTimeout(time.Minute),
			)),
		)

		_, err1 := c.Generate(ctx, "s", "u")
		_, err2 := c.Generate(ctx, "s", "u")
		_, err3 := c.Generate(ctx, "s", "u")

		Convey("Then the third call fails fast with ErrCircuitOpen", func() {
			So(err1, ShouldNotBeNil)
			So(err2, ShouldNotBeNil)
			So(errors.Is(err3, resilience.ErrCircuitOpen), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, 2)
		})
	})

	Convey("Given a slow API and a cancelled context during backoff", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "busy", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := textgen.New(
			textgen.WithAPIKey("k"),
			textgen.WithBaseURL(srv.URL),
			textgen.WithMaxRetries(5),
			textgen.WithBackoff(time.Hour),
		)

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err := c.Generate(cctx, "s", "u")

		Convey("Then it gives up as soon as the context ends", func() {
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(time.Since(start), ShouldBeLessThan, 5*time.Second)
		})
	})
}
