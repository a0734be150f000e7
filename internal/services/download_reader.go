package services

import (
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"camio-service/internal/utils"
)

// Download sources.
const (
	SourceLocal = "local"
	SourceMinio = "minio"
)

// countingReadCloser tracks the bytes and read time of an archive stream
// and reports them when the stream is closed.
type countingReadCloser struct {
	rc        io.ReadCloser
	id        uuid.UUID
	source    string
	metrics   *utils.Metrics
	bytes     int64
	sumRead   time.Duration
	firstRead time.Time
	closed    bool
}

func newCountingRC(rc io.ReadCloser, id uuid.UUID, source string, m *utils.Metrics) *countingReadCloser {
	return &countingReadCloser{rc: rc, id: id, source: source, metrics: m}
}

func (c *countingReadCloser) Read(p []byte) (int, error) {
	t0 := time.Now()
	n, err := c.rc.Read(p)
	c.sumRead += time.Since(t0)
	if n > 0 && c.firstRead.IsZero() {
		c.firstRead = time.Now()
	}
	c.bytes += int64(n)
	return n, err
}

func (c *countingReadCloser) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	log.Printf("Streamed export %s from %s: %d bytes, %d ms reading", c.id, c.source, c.bytes, c.sumRead.Milliseconds())
	if c.metrics != nil {
		c.metrics.RecordDownload(c.source, c.bytes)
	}
	return c.rc.Close()
}

// Stats returns the bytes read so far and the time spent in Read.
func (c *countingReadCloser) Stats() (int64, time.Duration) {
	return c.bytes, c.sumRead
}
