package remote

// Manifest describes the complete file set for one game version. The daemon
// never diffs or resolves versions itself; it downloads exactly what the
// server lists here.
type Manifest struct {
	GameID  string         `json:"id"`
	Version string         `json:"version"`
	Files   []ManifestFile `json:"files"`
}

// ManifestFile is one file on disk, split into one or more chunks that are
// fetched individually and written at their offsets.
type ManifestFile struct {
	Name        string          `json:"name"`
	Permissions uint32          `json:"permissions"`
	Chunks      []ManifestChunk `json:"chunks"`
}

// ManifestChunk is one fetchable unit. Checksum is the hex md5 of the
// chunk's bytes.
type ManifestChunk struct {
	Index    int    `json:"index"`
	Offset   int64  `json:"offset"`
	Length   int64  `json:"length"`
	Checksum string `json:"checksum"`
}

// Length returns the file's total size.
func (f ManifestFile) Length() int64 {
	var total int64
	for _, c := range f.Chunks {
		total += c.Length
	}
	return total
}

// TotalLength returns the byte count of the whole file set, used for the
// progress target and the disk-space preflight.
func (m *Manifest) TotalLength() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Length()
	}
	return total
}
