package constraints

import (
	"encoding/binary"
	"fmt"
	"math"
)

/*
Wire format used by the consistency exchange. All integers are big-endian.

Request buffer:  u32 count, count x u64 dof.
Reply buffer:    u32 count, then count serialized lines in request order.
Line:            u8 flag (0 unconstrained, 1 constrained); if constrained:
                 u32 nEntries, nEntries x (u64 master, f64 coeff) ascending
                 by master, f64 inhomogeneity.
*/

const (
	flagUnconstrained = 0
	flagConstrained   = 1
)

func encodeRequest(dofs []int) []byte {
	buf := make([]byte, 4, 4+8*len(dofs))
	binary.BigEndian.PutUint32(buf, uint32(len(dofs)))
	for _, i := range dofs {
		buf = binary.BigEndian.AppendUint64(buf, uint64(i))
	}
	return buf
}

func decodeRequest(buf []byte) ([]int, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("request buffer of %d bytes", len(buf))
	}
	count := int(binary.BigEndian.Uint32(buf))
	buf = buf[4:]
	if len(buf) != 8*count {
		return nil, fmt.Errorf("request wants %d dofs in %d bytes", count, len(buf))
	}
	dofs := make([]int, count)
	for k := range dofs {
		dofs[k] = int(binary.BigEndian.Uint64(buf[8*k:]))
	}
	return dofs, nil
}

func appendLine(buf []byte, l *Line) []byte {
	if l == nil {
		return append(buf, flagUnconstrained)
	}
	buf = append(buf, flagConstrained)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(l.Entries)))
	for _, e := range l.Entries {
		buf = binary.BigEndian.AppendUint64(buf, uint64(e.Index))
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(e.Coeff))
	}
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(l.Inhomogeneity))
}

func decodeLine(buf []byte) (l *Line, rest []byte, err error) {
	if len(buf) < 1 {
		return nil, nil, fmt.Errorf("truncated line: missing flag")
	}
	flag := buf[0]
	buf = buf[1:]
	if flag == flagUnconstrained {
		return nil, buf, nil
	}
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("truncated line: missing entry count")
	}
	n := int(binary.BigEndian.Uint32(buf))
	buf = buf[4:]
	if len(buf) < 16*n+8 {
		return nil, nil, fmt.Errorf("truncated line: %d entries in %d bytes", n, len(buf))
	}
	l = &Line{Entries: make([]Entry, n)}
	for k := 0; k < n; k++ {
		l.Entries[k] = Entry{
			Index: int(binary.BigEndian.Uint64(buf)),
			Coeff: math.Float64frombits(binary.BigEndian.Uint64(buf[8:])),
		}
		buf = buf[16:]
	}
	l.Inhomogeneity = math.Float64frombits(binary.BigEndian.Uint64(buf))
	return l, buf[8:], nil
}

func encodeReply(lines []*Line) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(lines)))
	for _, l := range lines {
		buf = appendLine(buf, l)
	}
	return buf
}

func decodeReply(buf []byte, want int) ([]*Line, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("reply buffer of %d bytes", len(buf))
	}
	count := int(binary.BigEndian.Uint32(buf))
	if count != want {
		return nil, fmt.Errorf("reply holds %d lines, requested %d", count, want)
	}
	buf = buf[4:]
	lines := make([]*Line, count)
	var err error
	for k := 0; k < count; k++ {
		if lines[k], buf, err = decodeLine(buf); err != nil {
			return nil, err
		}
	}
	if len(buf) != 0 {
		return nil, fmt.Errorf("%d trailing bytes in reply", len(buf))
	}
	return lines, nil
}
