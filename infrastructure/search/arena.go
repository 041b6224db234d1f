package search

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Companion files that make up a persisted index.
const (
	IndexFileName    = "index.bin"
	MetadataFileName = "metadata.json"
)

// Arena binary format identifiers.
const (
	arenaMagic   uint32 = 0x4d445658 // "MDVX"
	arenaVersion uint32 = 1
)

// metadataEntry is the on-disk metadata for one vector row.
type metadataEntry struct {
	DocID     string    `json:"doc_id"`
	ChunkText string    `json:"chunk_text"`
	Features  []string  `json:"features"`
	FilePaths []string  `json:"file_paths"`
	Timestamp time.Time `json:"timestamp"`
	Deleted   bool      `json:"deleted"`
}

// writeArena writes vectors to path as a binary arena: a fixed header
// followed by count rows of dimension little-endian float64 values.
func writeArena(path string, dimension int, vectors [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vector arena: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	header := []uint32{arenaMagic, arenaVersion, uint32(dimension), uint32(len(vectors))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write arena header: %w", err)
		}
	}

	for _, vec := range vectors {
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("write arena row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush vector arena: %w", err)
	}
	return f.Close()
}

// readArena reads a binary arena written by writeArena and returns its
// dimension and rows.
func readArena(path string) (int, [][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)
	var magic, version, dimension, count uint32
	for _, dst := range []*uint32{&magic, &version, &dimension, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return 0, nil, fmt.Errorf("read arena header: %w", err)
		}
	}

	if magic != arenaMagic {
		return 0, nil, fmt.Errorf("not a vector arena file: %s", path)
	}
	if version != arenaVersion {
		return 0, nil, fmt.Errorf("unsupported arena version %d", version)
	}
	if dimension == 0 {
		return 0, nil, fmt.Errorf("arena has zero dimension: %s", path)
	}

	vectors := make([][]float64, 0, count)
	for i := uint32(0); i < count; i++ {
		row := make([]float64, dimension)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return 0, nil, fmt.Errorf("read arena row %d: %w", i, err)
		}
		vectors = append(vectors, row)
	}

	// A well-formed arena ends exactly after the last row.
	if _, err := r.ReadByte(); err != io.EOF {
		return 0, nil, fmt.Errorf("trailing data in vector arena: %s", path)
	}

	return int(dimension), vectors, nil
}

// writeMetadata writes entries to path as a JSON object keyed by string
// row ids.
func writeMetadata(path string, entries []metadataEntry) error {
	keyed := make(map[string]metadataEntry, len(entries))
	for i, e := range entries {
		keyed[strconv.Itoa(i)] = e
	}

	data, err := json.MarshalIndent(keyed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// readMetadata reads a metadata file written by writeMetadata. Entries
// are returned ordered by row id, which must form the exact range
// [0, len).
func readMetadata(path string) ([]metadataEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var keyed map[string]metadataEntry
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	entries := make([]metadataEntry, len(keyed))
	for key, entry := range keyed {
		id, err := strconv.Atoi(key)
		// Non-canonical keys ("01", "+1") would alias another row and leave
		// one slot zero-valued while the length check still passes.
		if err != nil || strconv.Itoa(id) != key || id < 0 || id >= len(keyed) {
			return nil, fmt.Errorf("metadata has invalid row id %q", key)
		}
		entries[id] = entry
	}
	return entries, nil
}
