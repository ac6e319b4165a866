package storage

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/repository"
)

// JSONLWriter implements repository.RecordWriter, one JSON document per line
type JSONLWriter struct {
	out     io.Writer
	closer  io.Closer
	buf     *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLWriter creates a writer for filename; "-" writes to stdout
func NewJSONLWriter(filename string) (repository.RecordWriter, error) {
	if filename == "-" || filename == "" {
		return newJSONLWriter(os.Stdout, nil), nil
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return newJSONLWriter(file, file), nil
}

// NewJSONLStreamWriter wraps an existing stream; Close does not close it
func NewJSONLStreamWriter(out io.Writer) repository.RecordWriter {
	return newJSONLWriter(out, nil)
}

func newJSONLWriter(out io.Writer, closer io.Closer) *JSONLWriter {
	buf := bufio.NewWriter(out)
	return &JSONLWriter{
		out:     out,
		closer:  closer,
		buf:     buf,
		encoder: json.NewEncoder(buf),
	}
}

// Write encodes a single entry
func (w *JSONLWriter) Write(entry any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.encoder.Encode(entry)
}

// Flush pushes buffered lines to the underlying file
func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.buf.Flush(); err != nil {
		return err
	}
	if f, ok := w.out.(*os.File); ok && w.closer != nil {
		return f.Sync()
	}
	return nil
}

// Close flushes and closes the writer
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.buf.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
