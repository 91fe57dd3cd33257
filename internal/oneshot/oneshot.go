// Package oneshot answers a single probe on an already-accepted connection,
// as handed over by systemd socket activation (StandardInput=socket).
package oneshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/lbhealth/internal/handler"
	"github.com/angeloszaimis/lbhealth/internal/verdict"
)

type Prober interface {
	Handle(ctx context.Context, req handler.Request) verdict.Response
}

// Serve reads one HTTP request from in, runs the probe and writes exactly
// one response to out. A request that cannot be parsed gets 400 and no
// check is run.
func Serve(ctx context.Context, in io.Reader, out io.Writer, prober Prober, logger *slog.Logger) error {
	req, err := http.ReadRequest(bufio.NewReader(in))
	if err != nil {
		logger.Warn("Failed to parse request", slog.Any("err", err))
		_, writeErr := verdict.BadRequest().WriteTo(out)
		return errors.Join(fmt.Errorf("read request: %w", err), writeErr)
	}
	defer req.Body.Close()

	logger.Debug("Received probe",
		slog.String("method", req.Method),
		slog.String("path", req.RequestURI),
		slog.String("proto", req.Proto),
		slog.String("user_agent", req.UserAgent()))

	resp := prober.Handle(ctx, handler.Request{
		Method: req.Method,
		Path:   req.RequestURI,
	})

	if _, err := resp.WriteTo(out); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}
