package compress

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type compressWriter struct {
	gin.ResponseWriter
	zw    *gzip.Writer
	wrote bool
}

func newCompressWriter(w gin.ResponseWriter) *compressWriter {
	w.Header().Add("Vary", "Accept-Encoding")
	return &compressWriter{
		ResponseWriter: w,
		zw:             gzip.NewWriter(w),
	}
}

func (c *compressWriter) Write(p []byte) (int, error) {
	if !c.wrote {
		c.wrote = true
		c.Header().Set("Content-Encoding", "gzip")
		c.Header().Del("Content-Length")
	}
	return c.zw.Write(p)
}

func (c *compressWriter) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// Close flushes the gzip stream. Responses without a body stay uncompressed.
func (c *compressWriter) Close() error {
	if !c.wrote {
		return nil
	}
	return c.zw.Close()
}

// compressReader transparently decompresses gzip request bodies.
type compressReader struct {
	io.ReadCloser
	zr *gzip.Reader
}

func newCompressReader(r io.ReadCloser) (*compressReader, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	return &compressReader{
		ReadCloser: r,
		zr:         zr,
	}, nil
}

func (c compressReader) Read(p []byte) (n int, err error) {
	return c.zr.Read(p)
}

func (c *compressReader) Close() error {
	if err := c.zr.Close(); err != nil {
		return err
	}
	return c.ReadCloser.Close()
}

// Compress gzips responses for clients that accept it and inflates gzip
// request bodies.
func Compress(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		contentEncoding := c.Request.Header.Get("Content-Encoding")
		if strings.Contains(contentEncoding, "gzip") {
			cr, err := newCompressReader(c.Request.Body)
			if err != nil {
				logger.Errorf("error decompressing request body: %v", err)
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed gzip body"})
				return
			}
			c.Request.Body = cr
			c.Request.Header.Del("Content-Encoding")
			c.Request.ContentLength = -1
			defer cr.Close()
		}

		acceptEncoding := c.Request.Header.Get("Accept-Encoding")
		if strings.Contains(acceptEncoding, "gzip") {
			cw := newCompressWriter(c.Writer)
			c.Writer = cw
			defer func() {
				if err := cw.Close(); err != nil {
					logger.Errorf("error closing gzip writer: %v", err)
				}
			}()
		}

		c.Next()
	}
}
