package bundle

import (
	"bytes"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Reporter accumulates formatted per-inner-iteration progress lines in a
// buffer and emits them as debug log entries when flushed. The direction
// computation flushes at the head of every inner iteration.
type Reporter struct {
	buf bytes.Buffer
	log *zap.Logger
}

// NewReporter returns a reporter writing through log. A nil logger disables
// output but keeps the buffering contract intact.
func NewReporter(log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{log: log}
}

// IterationHeader returns the column header for the per-iteration table.
func (r *Reporter) IterationHeader() string {
	return "In. Its.  QP Cuts  QP Its. QP   QP KKT    |Step|   QP Obj."
}

// IterationNullValues returns the placeholder row printed when the direction
// computation contributes no columns.
func (r *Reporter) IterationNullValues() string {
	return "-------- -------- -------- -- --------- --------- ---------"
}

// Printf appends a formatted fragment to the buffer.
func (r *Reporter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&r.buf, format, args...)
}

// Flush emits every buffered line and empties the buffer.
func (r *Reporter) Flush() {
	if r.buf.Len() == 0 {
		return
	}
	for _, line := range strings.Split(r.buf.String(), "\n") {
		if line != "" {
			r.log.Debug(line)
		}
	}
	r.buf.Reset()
}
