package state

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeSnapshot serializes a snapshot as lz4-compressed msgpack.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	raw, err := msgpack.Marshal(&snapshot)
	if err != nil {
		return nil, eris.Wrap(err, "marshal snapshot")
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, eris.Wrap(err, "compress snapshot")
	}
	if err := zw.Close(); err != nil {
		return nil, eris.Wrap(err, "flush snapshot")
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reverses EncodeSnapshot. Numbers inside payload maps decode
// as int64, uint64 or float64.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return Snapshot{}, eris.Wrap(err, "decompress snapshot")
	}
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.UseLooseInterfaceDecoding(true)
	var snapshot Snapshot
	if err := dec.Decode(&snapshot); err != nil {
		return Snapshot{}, eris.Wrap(err, "unmarshal snapshot")
	}
	return snapshot, nil
}
