package server

import (
	"context"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"
)

// RWC joins a reader and a writer into the stream a jsonrpc2 connection runs on
type RWC struct {
	r io.ReadCloser
	w io.WriteCloser
}

// NewStdRWC creates a new RWC using standard input/output
func NewStdRWC() *RWC {
	return NewRWC(os.Stdin, os.Stdout)
}

func NewRWC(r io.ReadCloser, w io.WriteCloser) *RWC {
	return &RWC{r: r, w: w}
}

func (rw *RWC) Read(p []byte) (int, error)  { return rw.r.Read(p) }
func (rw *RWC) Write(p []byte) (int, error) { return rw.w.Write(p) }

// Close closes both ends, reporting the first error
func (rw *RWC) Close() error {
	var rerr, werr error
	if rw.r != nil {
		rerr = rw.r.Close()
	}
	if rw.w != nil {
		werr = rw.w.Close()
	}
	if rerr != nil {
		return rerr
	}
	return werr
}

// Serve answers requests read from rw until the client disconnects
func (s *Server) Serve(ctx context.Context, rw io.ReadWriteCloser) *jsonrpc2.Conn {
	conn := jsonrpc2.NewConn(
		ctx,
		jsonrpc2.NewBufferedStream(rw, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(s.Handle),
	)
	return conn
}
