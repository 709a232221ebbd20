package middleware

import "net/http"

// statusWriter records the first status code a handler commits. A zero code
// means nothing reached the client yet. Flush and Unwrap are passed through
// so event streams and h2c upgrades see the real writer.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}

// Status is the committed code, or 200 when the handler wrote nothing.
func (sw *statusWriter) Status() int {
	if sw.code == 0 {
		return http.StatusOK
	}
	return sw.code
}

// Written reports whether headers have gone out.
func (sw *statusWriter) Written() bool { return sw.code != 0 }

func (sw *statusWriter) commit(code int) {
	if sw.code == 0 {
		sw.code = code
	}
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.commit(code)
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.commit(http.StatusOK)
	return sw.ResponseWriter.Write(b)
}

func (sw *statusWriter) Flush() {
	sw.commit(http.StatusOK)
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *statusWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }
