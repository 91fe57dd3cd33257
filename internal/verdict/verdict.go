package verdict

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/angeloszaimis/lbhealth/internal/healthcheck"
)

const (
	ContentType = "text/plain; charset=utf-8"
	VerbosePath = "/verbose"
)

var separator = []byte("\r\n\r\n")

type Verdict int

const (
	Healthy Verdict = iota
	Unhealthy
)

func (v Verdict) String() string {
	switch v {
	case Healthy:
		return "healthy"
	case Unhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// StatusCode maps the verdict to its HTTP status.
func (v Verdict) StatusCode() int {
	if v == Healthy {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// Of returns Healthy when results is empty or every check exited 0.
func Of(results []healthcheck.Result) Verdict {
	for _, result := range results {
		if !result.Passed() {
			return Unhealthy
		}
	}
	return Healthy
}

// Response is a fully rendered probe response.
type Response struct {
	StatusCode int
	// Reason overrides the standard reason phrase on the status line.
	Reason string
	Header http.Header
	// Body is nil when no body should be written.
	Body []byte
}

// Render builds the response for results. The body, made of every check's
// trimmed output, is included only when path is exactly VerbosePath or the
// verdict is Unhealthy. path is the raw request target, so "/verbose?x=1"
// is not verbose.
func Render(results []healthcheck.Result, path string) Response {
	v := Of(results)

	resp := Response{
		StatusCode: v.StatusCode(),
		Header:     textHeader(),
	}

	if path == VerbosePath || v == Unhealthy {
		resp.Body = Body(results)
	}

	return resp
}

// Body joins the trimmed output of each result with a blank line and ends
// it with CRLF.
func Body(results []healthcheck.Result) []byte {
	var buf bytes.Buffer
	for i, result := range results {
		if i > 0 {
			buf.Write(separator)
		}
		buf.Write(bytes.TrimSpace(result.Output))
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// KillSwitch is the response sent while the kill switch is active.
func KillSwitch() Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Reason:     "Kill Switch",
		Header:     textHeader(),
	}
}

// BadRequest is sent when the request line cannot be parsed.
func BadRequest() Response {
	return Response{
		StatusCode: http.StatusBadRequest,
		Header:     textHeader(),
	}
}

// WriteTo writes the response as raw HTTP/1.0 to w.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}

	reason := r.Reason
	if reason == "" {
		reason = http.StatusText(r.StatusCode)
	}

	fmt.Fprintf(cw, "HTTP/1.0 %d %s\r\n", r.StatusCode, reason)
	if err := r.Header.Write(cw); err != nil {
		return cw.n, err
	}
	cw.Write([]byte("\r\n"))
	if r.Body != nil {
		cw.Write(r.Body)
	}

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

// Write sends the response through a net/http ResponseWriter.
func (r Response) Write(w http.ResponseWriter) error {
	for key, values := range r.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(r.StatusCode)

	if r.Body == nil {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

func textHeader() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", ContentType)
	return h
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
