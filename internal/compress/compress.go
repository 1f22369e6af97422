// Package compress provides gzip middlewares: transparent decompression of
// gzip-encoded request bodies and compression of responses for clients that
// accept gzip.
package compress

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

// gzipReadCloser decompresses a request body and closes both layers.
type gzipReadCloser struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func newGzipReadCloser(body io.ReadCloser) (*gzipReadCloser, error) {
	zr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}

	return &gzipReadCloser{body: body, zr: zr}, nil
}

func (c *gzipReadCloser) Read(p []byte) (int, error) {
	return c.zr.Read(p)
}

func (c *gzipReadCloser) Close() error {
	if err := c.zr.Close(); err != nil {
		return err
	}
	return c.body.Close()
}

// gzipResponseWriter compresses only responses that carry a body with a
// successful status. The status line is held back until the first write (or
// Close) so Content-Encoding is announced only when bytes are compressed.
type gzipResponseWriter struct {
	http.ResponseWriter
	zw         *gzip.Writer
	status     int
	headerSent bool
	compress   bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
}

func (w *gzipResponseWriter) sendHeader(hasBody bool) {
	if w.headerSent {
		return
	}
	w.headerSent = true
	if w.status == 0 {
		w.status = http.StatusOK
	}

	header := w.Header()
	if hasBody &&
		w.status < http.StatusMultipleChoices &&
		w.status != http.StatusNoContent &&
		header.Get("Content-Encoding") == "" {
		header.Set("Content-Encoding", "gzip")
		header.Add("Vary", "Accept-Encoding")
		header.Del("Content-Length")
		w.compress = true
	}
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *gzipResponseWriter) Write(p []byte) (int, error) {
	w.sendHeader(len(p) > 0)
	if !w.compress {
		return w.ResponseWriter.Write(p)
	}
	if w.zw == nil {
		w.zw = gzipWriterPool.Get().(*gzip.Writer)
		w.zw.Reset(w.ResponseWriter)
	}

	return w.zw.Write(p)
}

// Close flushes the gzip stream, or sends a held-back status of a body-less response.
func (w *gzipResponseWriter) Close() error {
	if w.zw == nil {
		if w.status != 0 {
			w.sendHeader(false)
		}
		return nil
	}
	err := w.zw.Close()
	gzipWriterPool.Put(w.zw)
	w.zw = nil

	return err
}

// GzipResponse compresses the response when the request's Accept-Encoding allows gzip.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		gzipped := &gzipResponseWriter{ResponseWriter: response}
		defer gzipped.Close()

		h.ServeHTTP(gzipped, request)
	}

	return http.HandlerFunc(middleware)
}

// UngzipRequest replaces a gzip-encoded request body with its decompressed stream.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			body, err := newGzipReadCloser(request.Body)
			if err != nil {
				http.Error(response, "malformed gzip body", http.StatusBadRequest)
				return
			}
			request.Body = body
			request.Header.Del("Content-Encoding")
			defer body.Close()
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
