package verdict_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/lbhealth/internal/healthcheck"
	"github.com/angeloszaimis/lbhealth/internal/verdict"
)

func result(output string, exitCode int) healthcheck.Result {
	return healthcheck.Result{Output: []byte(output), ExitCode: exitCode}
}

var _ = Describe("Verdict", func() {
	Describe("Of", func() {
		DescribeTable("aggregates exit statuses",
			func(results []healthcheck.Result, expected verdict.Verdict) {
				Expect(verdict.Of(results)).To(Equal(expected))
			},
			Entry("no results", nil, verdict.Healthy),
			Entry("single pass", []healthcheck.Result{result("", 0)}, verdict.Healthy),
			Entry("all pass", []healthcheck.Result{result("", 0), result("", 0)}, verdict.Healthy),
			Entry("one failure", []healthcheck.Result{result("", 0), result("", 2)}, verdict.Unhealthy),
			Entry("signal termination", []healthcheck.Result{result("", -1)}, verdict.Unhealthy),
			Entry("spawn failure", []healthcheck.Result{result("", healthcheck.ExitSpawnFailed)}, verdict.Unhealthy),
			Entry("timeout", []healthcheck.Result{result("", healthcheck.ExitTimedOut)}, verdict.Unhealthy),
		)

		It("should map verdicts to status codes", func() {
			Expect(verdict.Healthy.StatusCode()).To(Equal(http.StatusOK))
			Expect(verdict.Unhealthy.StatusCode()).To(Equal(http.StatusInternalServerError))
		})

		It("should render verdict names", func() {
			Expect(verdict.Healthy.String()).To(Equal("healthy"))
			Expect(verdict.Unhealthy.String()).To(Equal("unhealthy"))
		})
	})

	Describe("Render", func() {
		It("should return 200 without a body for no checks", func() {
			resp := verdict.Render(nil, "/")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Body).To(BeNil())
		})

		It("should return 200 without a body for passing checks", func() {
			resp := verdict.Render([]healthcheck.Result{result("ok\n", 0)}, "/")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Body).To(BeNil())
		})

		It("should include the body for the verbose path", func() {
			resp := verdict.Render([]healthcheck.Result{result("  disk ok\n", 0)}, "/verbose")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(resp.Body)).To(Equal("disk ok\r\n"))
		})

		It("should include the body when unhealthy", func() {
			resp := verdict.Render([]healthcheck.Result{
				result("disk full\n", 1),
				result("load ok\n", 0),
			}, "/")
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(string(resp.Body)).To(Equal("disk full\r\n\r\nload ok\r\n"))
		})

		It("should treat other paths like the root path", func() {
			resp := verdict.Render([]healthcheck.Result{result("ok", 0)}, "/health")
			Expect(resp.Body).To(BeNil())
		})

		It("should only treat the exact verbose target as verbose", func() {
			for _, target := range []string{"/verbose?x=1", "/verbose/", "http://lb/verbose"} {
				resp := verdict.Render([]healthcheck.Result{result("ok", 0)}, target)
				Expect(resp.Body).To(BeNil(), target)
			}
		})

		It("should always set the content type", func() {
			for _, path := range []string{"/", "/verbose"} {
				for _, code := range []int{0, 1} {
					resp := verdict.Render([]healthcheck.Result{result("x", code)}, path)
					Expect(resp.Header.Get("Content-Type")).To(Equal("text/plain; charset=utf-8"))
				}
			}
		})

		It("should render an empty verbose body as a lone CRLF", func() {
			resp := verdict.Render(nil, "/verbose")
			Expect(string(resp.Body)).To(Equal("\r\n"))
		})
	})

	Describe("KillSwitch", func() {
		It("should be a 500 without a body", func() {
			resp := verdict.KillSwitch()
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(resp.Reason).To(Equal("Kill Switch"))
			Expect(resp.Body).To(BeNil())
			Expect(resp.Header.Get("Content-Type")).To(Equal(verdict.ContentType))
		})
	})

	Describe("WriteTo", func() {
		It("should write a raw HTTP/1.0 response", func() {
			var buf bytes.Buffer
			resp := verdict.Render([]healthcheck.Result{result("boom", 1)}, "/")

			n, err := resp.WriteTo(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(buf.Len())))
			Expect(buf.String()).To(Equal(
				"HTTP/1.0 500 Internal Server Error\r\n" +
					"Content-Type: text/plain; charset=utf-8\r\n" +
					"\r\n" +
					"boom\r\n"))
		})

		It("should use the custom reason phrase", func() {
			var buf bytes.Buffer
			_, err := verdict.KillSwitch().WriteTo(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(HavePrefix("HTTP/1.0 500 Kill Switch\r\n"))
			Expect(buf.String()).To(HaveSuffix("\r\n\r\n"))
		})

		It("should surface write errors", func() {
			_, err := verdict.KillSwitch().WriteTo(failingWriter{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Write", func() {
		It("should write through a ResponseWriter", func() {
			w := httptest.NewRecorder()
			resp := verdict.Render([]healthcheck.Result{result("ok", 0)}, "/verbose")

			Expect(resp.Write(w)).To(Succeed())
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal(verdict.ContentType))
			Expect(w.Body.String()).To(Equal("ok\r\n"))
		})

		It("should leave the body empty when none is rendered", func() {
			w := httptest.NewRecorder()
			Expect(verdict.Render(nil, "/").Write(w)).To(Succeed())
			Expect(w.Body.Len()).To(BeZero())
		})
	})
})

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}
