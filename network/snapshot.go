package network

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/paulmach/orb"

	"drainage-route-server/routing"
)

// Snapshot is a built graph tagged with the fingerprint of the pipes and
// precision it was built from.
type Snapshot struct {
	Fingerprint string
	Graph       *routing.Graph
}

// Fingerprint identifies a pipe set and merge precision. Pipe order is
// significant since it decides node IDs.
func Fingerprint(pipes []orb.LineString, precision int) string {
	if precision < 0 {
		precision = -1
	}

	h := sha256.New()
	var buf [8]byte
	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeUint(uint64(int64(precision)))
	writeUint(uint64(len(pipes)))
	for _, line := range pipes {
		writeUint(uint64(len(line)))
		for _, p := range line {
			writeUint(math.Float64bits(p[0]))
			writeUint(math.Float64bits(p[1]))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// WriteSnapshot encodes a snapshot with gob.
func WriteSnapshot(w io.Writer, s Snapshot) error {
	if s.Graph == nil {
		return fmt.Errorf("failed to encode graph snapshot: nil graph")
	}
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode graph snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode graph snapshot: %w", err)
	}
	if s.Graph == nil {
		return Snapshot{}, fmt.Errorf("failed to decode graph snapshot: missing graph")
	}
	return s, nil
}

func SaveSnapshot(path string, s Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create snapshot file: %w", err)
	}
	defer f.Close()

	if err := WriteSnapshot(f, s); err != nil {
		return err
	}
	return f.Close()
}

func LoadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("could not open snapshot file: %w", err)
	}
	defer f.Close()

	return ReadSnapshot(f)
}
