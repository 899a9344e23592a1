package packfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/kitforge/gitkit/gitobj"
)

// maxCopyLength is the largest length a single Copy instruction can encode
// directly; a zero length field in the wire format is defined to mean this
// value (spec.md §4.3).
const maxCopyLength = 0x10000

// Instruction is one step of a Git wire delta program (spec.md §3): either
// a Copy from the base at Offset for Length bytes, or an Insert of Data
// taken literally from the delta stream.
type Instruction struct {
	IsCopy bool
	Offset uint32
	Length uint32
	Data   []byte
}

// writeDeltaSizeVarint writes the plain (non-offset-biased) 7-bit
// MSB-continuation varint used for the base/target size fields in a delta
// header.
func writeDeltaSizeVarint(w io.Writer, v uint64) error {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		if err := writeByte(w, b); err != nil {
			return err
		}
		if v == 0 {
			return nil
		}
	}
}

func readDeltaSizeVarint(r io.ByteReader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, gitobj.NewCorruptionError("truncated delta size varint", err)
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			return v, nil
		}
	}
}

// EncodeDelta writes a complete Git wire delta program: the base and target
// size header followed by each instruction's byte encoding.
func EncodeDelta(w io.Writer, baseSize, targetSize int64, instructions []Instruction) error {
	if err := writeDeltaSizeVarint(w, uint64(baseSize)); err != nil {
		return err
	}
	if err := writeDeltaSizeVarint(w, uint64(targetSize)); err != nil {
		return err
	}
	for _, ins := range instructions {
		if ins.IsCopy {
			if err := encodeCopy(w, ins.Offset, ins.Length); err != nil {
				return err
			}
			continue
		}
		if err := encodeInsert(w, ins.Data); err != nil {
			return err
		}
	}
	return nil
}

func encodeCopy(w io.Writer, offset, length uint32) error {
	var obuf, lbuf [4]byte
	binary.LittleEndian.PutUint32(obuf[:], offset)
	binary.LittleEndian.PutUint32(lbuf[:], length)

	opcode := byte(0x80)
	var payload []byte

	for i := 0; i < 4; i++ {
		if obuf[i] != 0 {
			opcode |= 1 << uint(i)
			payload = append(payload, obuf[i])
		}
	}

	if length != maxCopyLength {
		for i := 0; i < 3; i++ {
			if lbuf[i] != 0 {
				opcode |= 1 << uint(4+i)
				payload = append(payload, lbuf[i])
			}
		}
	}

	if err := writeByte(w, opcode); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return gitobj.WrapBackend(err)
}

func decodeCopy(opcode byte, r io.ByteReader) (offset, length uint32, err error) {
	var obuf, lbuf [4]byte
	for i := 0; i < 4; i++ {
		if opcode&(1<<uint(i)) != 0 {
			b, err := r.ReadByte()
			if err != nil {
				return 0, 0, gitobj.NewCorruptionError("truncated copy offset", err)
			}
			obuf[i] = b
		}
	}
	for i := 0; i < 3; i++ {
		if opcode&(1<<uint(4+i)) != 0 {
			b, err := r.ReadByte()
			if err != nil {
				return 0, 0, gitobj.NewCorruptionError("truncated copy length", err)
			}
			lbuf[i] = b
		}
	}

	offset = binary.LittleEndian.Uint32(obuf[:])
	length = binary.LittleEndian.Uint32(lbuf[:])
	if length == 0 {
		length = maxCopyLength
	}
	return offset, length, nil
}

// insertMaxLength is the largest literal run a single Insert opcode byte
// (which must have its high bit clear) can carry.
const insertMaxLength = 0x7f

func encodeInsert(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > insertMaxLength {
			n = insertMaxLength
		}
		if n == 0 {
			return gitobj.NewInvalidArgumentError("empty insert instruction")
		}
		if err := writeByte(w, byte(n)); err != nil {
			return err
		}
		if _, err := w.Write(data[:n]); err != nil {
			return gitobj.WrapBackend(err)
		}
		data = data[n:]
	}
	return nil
}

// DecodeDeltaInstructions parses a complete wire delta program, returning
// the declared base/target sizes and the full instruction list.
func DecodeDeltaInstructions(r io.Reader) (baseSize, targetSize int64, instructions []Instruction, err error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	bs, err := readDeltaSizeVarint(br)
	if err != nil {
		return 0, 0, nil, err
	}
	ts, err := readDeltaSizeVarint(br)
	if err != nil {
		return 0, 0, nil, err
	}

	for {
		opcode, rerr := br.ReadByte()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, 0, nil, gitobj.NewCorruptionError("truncated delta instruction stream", rerr)
		}

		if opcode&0x80 != 0 {
			offset, length, derr := decodeCopy(opcode, br)
			if derr != nil {
				return 0, 0, nil, derr
			}
			instructions = append(instructions, Instruction{IsCopy: true, Offset: offset, Length: length})
			continue
		}

		if opcode == 0 {
			return 0, 0, nil, gitobj.NewCorruptionError("reserved delta opcode 0", nil)
		}

		data := make([]byte, opcode)
		if _, rerr := io.ReadFull(br, data); rerr != nil {
			return 0, 0, nil, gitobj.NewCorruptionError("truncated delta insert data", rerr)
		}
		instructions = append(instructions, Instruction{IsCopy: false, Data: data})
	}

	return int64(bs), int64(ts), instructions, nil
}

// ApplyDelta reconstructs the target bytes by applying delta to base
// (spec.md §8 property 6). It returns a *gitobj.CorruptionError if delta is
// malformed or its declared base size does not match len(base), and if the
// reconstructed length does not match the declared target size.
func ApplyDelta(base, delta []byte) ([]byte, error) {
	baseSize, targetSize, instructions, err := DecodeDeltaInstructions(bytes.NewReader(delta))
	if err != nil {
		return nil, err
	}
	if baseSize != int64(len(base)) {
		return nil, gitobj.NewCorruptionError("delta base size mismatch", nil)
	}

	out := make([]byte, 0, targetSize)
	for _, ins := range instructions {
		if ins.IsCopy {
			end := uint64(ins.Offset) + uint64(ins.Length)
			if end > uint64(len(base)) {
				return nil, gitobj.NewCorruptionError("delta copy instruction out of base range", nil)
			}
			out = append(out, base[ins.Offset:end]...)
			continue
		}
		out = append(out, ins.Data...)
	}

	if int64(len(out)) != targetSize {
		return nil, gitobj.NewCorruptionError("delta reconstruction size mismatch", nil)
	}

	return out, nil
}
