// Package wire implements the tunnel protocol: a framed, typed
// request/response codec carried over a bidirectional byte stream
// (stdin/stdout of an SSH or local subprocess). Encoding is big-endian
// fixed-width integers with explicit length prefixes for variable-sized
// data -- bit-exact field order and encoding is the compatibility
// surface between controller and remote-executor versions (spec §6):
// changing it requires a coordinated upgrade of both sides.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aledsdavies/fora/core/invariant"
)

// Writer serializes primitive values to an underlying byte stream in
// the wire's canonical order.
type Writer struct {
	w   io.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	invariant.NotNil(w, "w")
	return &Writer{w: w}
}

// Err returns the first error encountered by any Write* call. Once set,
// subsequent Write* calls are no-ops; callers should write every field
// unconditionally and check Err once at the end.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.write([]byte{1})
	} else {
		w.write([]byte{0})
	}
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.write(b[:])
}

func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.write(b[:])
}

func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *Writer) WriteBytes(v []byte) {
	w.WriteU64(uint64(len(v)))
	w.write(v)
}

func (w *Writer) WriteStr(v string) { w.WriteBytes([]byte(v)) }

func (w *Writer) WriteOptStr(v *string) {
	w.WriteBool(v != nil)
	if v != nil {
		w.WriteStr(*v)
	}
}

func (w *Writer) WriteOptBytes(v []byte) {
	w.WriteBool(v != nil)
	if v != nil {
		w.WriteBytes(v)
	}
}

func (w *Writer) WriteStrList(v []string) {
	w.WriteU64(uint64(len(v)))
	for _, s := range v {
		w.WriteStr(s)
	}
}

// Reader deserializes primitive values from an underlying byte stream,
// enforcing the same order a Writer produced them in.
type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	invariant.NotNil(r, "r")
	return &Reader{r: r}
}

func (r *Reader) readFull(n uint64) ([]byte, error) {
	// Bound allocation: a malformed/adversarial length prefix must not
	// be used to allocate unbounded memory before the read fails.
	const maxFrame = 1 << 30 // 1 GiB
	if n > maxFrame {
		return nil, fmt.Errorf("wire: frame length %d exceeds maximum %d", n, maxFrame)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.readFull(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("wire: invalid bool byte %d", b[0])
	}
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.readFull(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.readFull(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	return r.readFull(n)
}

func (r *Reader) ReadStr() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) ReadOptStr() (*string, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	s, err := r.ReadStr()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Reader) ReadOptBytes() ([]byte, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	return r.ReadBytes()
}

func (r *Reader) ReadStrList() ([]string, error) {
	n, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
