package ioformat

import (
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/latticeqcd/gofix/internal/gferr"
)

// LIME (Lattice QCD Interchange Message Encapsulation) wraps a sequence of
// independently-typed records behind a fixed 144-byte big-endian header
// each: 4-byte magic 0x456789ab, 2-byte version, 2-byte MB/ME flag bits,
// 8-byte data length, 128-byte NUL-padded ASCII record type, data padded up
// to the next 8-byte boundary.
const (
	limeMagic      = 0x456789ab
	limeHeaderSize = 144
	limeTypeSize   = 128
	limeMBFlag     = 1 << 15
	limeMEFlag     = 1 << 14
)

type limeRecord struct {
	recType string
	mbFlag  bool
	meFlag  bool
	data    []byte
}

type limeFile struct {
	records []limeRecord
}

func readLime(r io.Reader) (*limeFile, error) {
	lf := &limeFile{}
	for {
		var hdr [limeHeaderSize]byte
		_, err := io.ReadFull(r, hdr[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading LIME header")
		}
		magic := binary.BigEndian.Uint32(hdr[0:4])
		if magic != limeMagic {
			return nil, errors.Wrap(gferr.ErrFormat, "not a LIME file")
		}
		flags := binary.BigEndian.Uint16(hdr[6:8])
		length := binary.BigEndian.Uint64(hdr[8:16])
		recType := strings.TrimRight(string(hdr[16:16+limeTypeSize]), "\x00")

		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, errors.Wrap(err, "reading LIME record data")
		}
		pad := (8 - int(length%8)) % 8
		if pad > 0 {
			if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
				return nil, errors.Wrap(err, "reading LIME record padding")
			}
		}

		lf.records = append(lf.records, limeRecord{
			recType: recType,
			mbFlag:  flags&limeMBFlag != 0,
			meFlag:  flags&limeMEFlag != 0,
			data:    data,
		})
	}
	return lf, nil
}

func writeLime(w io.Writer, lf *limeFile) error {
	for _, rec := range lf.records {
		var hdr [limeHeaderSize]byte
		binary.BigEndian.PutUint32(hdr[0:4], limeMagic)
		binary.BigEndian.PutUint16(hdr[4:6], 1)
		var flags uint16
		if rec.mbFlag {
			flags |= limeMBFlag
		}
		if rec.meFlag {
			flags |= limeMEFlag
		}
		binary.BigEndian.PutUint16(hdr[6:8], flags)
		binary.BigEndian.PutUint64(hdr[8:16], uint64(len(rec.data)))
		copy(hdr[16:16+limeTypeSize], []byte(rec.recType))

		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := w.Write(rec.data); err != nil {
			return err
		}
		pad := (8 - len(rec.data)%8) % 8
		if pad > 0 {
			if _, err := w.Write(make([]byte, pad)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (lf *limeFile) find(recType string) int {
	for i, r := range lf.records {
		if r.recType == recType {
			return i
		}
	}
	return -1
}

func loadLimeFromPath(filename string) (*limeFile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLime(f)
}

func saveLimeToPath(filename string, lf *limeFile) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeLime(f, lf)
}

