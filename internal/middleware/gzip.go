package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var compressibleTypes = []string{
	"application/json",
	"text/html",
	"text/plain",
}

var gzipWriters = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	wroteHeader bool
	compress    bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if statusCode != http.StatusNoContent && isCompressible(w.Header().Get("Content-Type")) {
		w.compress = true
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.Header().Add("Vary", "Accept-Encoding")
	}

	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(b)
	}
	return w.gz.Write(b)
}

func isCompressible(contentType string) bool {
	for _, t := range compressibleTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// Gzip распаковывает тело запроса в gzip и сжимает JSON и текстовые ответы,
// если клиент их принимает. Ошибки сброса сжатого ответа пишутся в logger.
func Gzip(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
				gr, err := gzip.NewReader(r.Body)
				if err != nil {
					http.Error(w, "invalid gzip body", http.StatusBadRequest)
					return
				}
				defer gr.Close()
				r.Body = gr
				r.Header.Del("Content-Encoding")
			}

			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gz := gzipWriters.Get().(*gzip.Writer)
			gz.Reset(w)
			defer gzipWriters.Put(gz)

			gw := &gzipResponseWriter{ResponseWriter: w, gz: gz}
			next.ServeHTTP(gw, r)

			if gw.compress {
				// Заголовки уже отправлены, поэтому ошибка только логируется.
				if err := gz.Close(); err != nil {
					logger.Warn("gzip response flush error",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)
				}
			}
		})
	}
}
