// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/z5labs/bundlebridge/pkg/slogfield"
)

const (
	statusOK          = "200 OK"
	statusNotFound    = "404 Not Found"
	statusServerError = "500 Server Error"
)

type conn struct {
	srv *Server
	nc  net.Conn

	closeOnce sync.Once
}

// close is safe to call from both the serving goroutine and Shutdown.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.nc.Close()
	})
	c.srv.untrack(c)
}

func (c *conn) serve() {
	defer c.close()

	log := c.srv.log.With(slogfield.String("remote_addr", c.nc.RemoteAddr().String()))

	line, err := readRequestLine(bufio.NewReader(c.nc))
	if err != nil {
		if c.srv.Running() {
			log.Debug("failed to read request line", slogfield.Error(err))
		}
		return
	}
	if len(line) == 0 {
		return
	}
	log.Debug("incoming request", slogfield.String("request_line", line))

	token, ok := parseRequestLine(line)
	if !ok {
		writeStatus(c.nc, statusNotFound)
		return
	}

	src := c.srv.lookup(token)
	if src == nil {
		log.Debug("no stream registered for token", slogfield.String("token", token))
		writeStatus(c.nc, statusNotFound)
		return
	}

	committed, err := stream(c.nc, src)
	if err == nil {
		return
	}
	if c.srv.Running() {
		log.Error("error serving stream", slogfield.String("token", token), slogfield.Error(err))
	}
	if committed {
		return
	}
	writeStatus(c.nc, statusServerError)
}

// readRequestLine reads a single line terminated by LF, CR or CRLF. A CR
// ends the line without waiting for more input; an LF following it is
// only consumed if already buffered. A final line without a terminator is
// still returned. An empty request yields an empty line and no error.
func readRequestLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if b == '\r' && r.Buffered() > 0 {
			next, _ := r.Peek(1)
			if next[0] == '\n' {
				r.Discard(1)
			}
		}
		if b == '\n' || b == '\r' {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}

// parseRequestLine extracts the token from a request line of the
// form "GET /<token> ...".
func parseRequestLine(line string) (string, bool) {
	parts := strings.Split(line, " ")
	if len(parts) < 2 || parts[0] != "GET" {
		return "", false
	}
	path := parts[1]
	if !strings.HasPrefix(path, "/") {
		return "", false
	}
	return path[1:], true
}

// stream copies src to w behind a 200 status line. The returned bool is
// true once the status line has been handed to w, after which no other
// status can be sent.
func stream(w io.Writer, src Source) (bool, error) {
	rc, err := src.Open()
	if err != nil {
		return false, err
	}
	defer rc.Close()

	err = writeStatus(w, statusOK)
	if err != nil {
		return true, err
	}

	_, err = io.Copy(w, rc)
	return true, err
}

func writeStatus(w io.Writer, status string) error {
	_, err := io.WriteString(w, "HTTP/1.0 "+status+"\r\n\r\n")
	return err
}
