package diskio

import (
	"io"
	"os"

	"emperror.dev/errors"
)

// chunkedIO reads and writes byte ranges against open file handles in chunks
// of the filesystem's reported optimal block size. Bounding each call to a
// single block keeps individual I/O latency predictable regardless of how
// large a range the caller asks for. The block size is discovered once at
// startup, not per call.
type chunkedIO struct {
	blockSize int64
}

func newChunkedIO(blockSize int64) *chunkedIO {
	return &chunkedIO{blockSize: blockSize}
}

// Read returns a buffer filled with the bytes in the range [start, end) of
// the given file. The range is read one block at a time, strictly in order,
// with each chunk completing before the next is issued. The final chunk is
// clipped to the actual size of the file, so a range extending past the end
// of the file yields a zero padded tail rather than an error.
func (c *chunkedIO) Read(f *os.File, start, end int64) ([]byte, error) {
	if start < 0 || end < start {
		return nil, newError(ErrCodeUnknownError, errors.New("invalid read range"))
	}
	st, err := f.Stat()
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	buf := make([]byte, end-start)
	for offset := int64(0); offset < int64(len(buf)); offset += c.blockSize {
		n := c.blockSize
		if remaining := int64(len(buf)) - offset; remaining < n {
			n = remaining
		}
		if tail := st.Size() - (start + offset); tail < n {
			if tail <= 0 {
				break
			}
			n = tail
		}
		if _, err := f.ReadAt(buf[offset:offset+n], start+offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "diskio: chunked read failed")
		}
	}
	return buf, nil
}

// Write writes data to the given file starting at position, one block sized
// chunk at a time. The final chunk is clipped to the remaining length of the
// data. Admission against the reservation budget must already have happened
// before this is called.
func (c *chunkedIO) Write(f *os.File, data []byte, position int64) error {
	if position < 0 {
		return newError(ErrCodeUnknownError, errors.New("invalid write position"))
	}
	for offset := int64(0); offset < int64(len(data)); offset += c.blockSize {
		n := c.blockSize
		if remaining := int64(len(data)) - offset; remaining < n {
			n = remaining
		}
		if _, err := f.WriteAt(data[offset:offset+n], position+offset); err != nil {
			return errors.Wrap(err, "diskio: chunked write failed")
		}
	}
	return nil
}
