package store

import "time"

// Group is a tracked newsgroup. First and Last are the scan collaborator's
// article cursor and are opaque to the orchestrator.
type Group struct {
	ID        int64
	Name      string
	Active    bool
	First     int64
	Last      int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Binary is an assembled, not yet released set of parts.
type Binary struct {
	ID         int64
	Hash       string
	Name       string
	GroupName  string
	Posted     time.Time
	TotalParts int
}

// Part groups the segments of one file. BinaryID is zero until the pipeline
// assigns the part to a binary.
type Part struct {
	ID            int64
	BinaryID      int64
	MessageID     string
	Subject       string
	GroupName     string
	TotalSegments int
	Posted        time.Time
}

// Segment is one retrievable article recorded by a group scan.
type Segment struct {
	ID        int64
	GroupID   int64
	PartID    int64
	MessageID string
	Number    int
	Size      int64
	Posted    time.Time
}

// Miss records a segment that could not be retrieved from a group.
type Miss struct {
	ID        int64
	GroupName string
	MessageID string
	Attempts  int
	CreatedAt time.Time
}

// Release is the final indexed unit.
type Release struct {
	ID         int64
	Name       string
	SearchName string
	GroupName  string
	Posted     time.Time
	Size       int64
	Added      time.Time
}

// ArtifactKind names one of the per-release artifact tables.
type ArtifactKind string

const (
	ArtifactNZB ArtifactKind = "nzb"
	ArtifactNFO ArtifactKind = "nfo"
	ArtifactSFV ArtifactKind = "sfv"
)

// ArtifactKinds lists every artifact kind in table order.
var ArtifactKinds = []ArtifactKind{ArtifactNZB, ArtifactNFO, ArtifactSFV}

// CompactionKind selects the intensity of a compaction pass.
type CompactionKind int

const (
	// CompactionLight refreshes planner statistics.
	CompactionLight CompactionKind = iota
	// CompactionFull rebuilds the database file to reclaim space, then
	// refreshes statistics.
	CompactionFull
)

func (k CompactionKind) String() string {
	switch k {
	case CompactionFull:
		return "full"
	default:
		return "light"
	}
}

// Stats holds row counts per table.
type Stats struct {
	Groups       int64
	ActiveGroups int64
	Segments     int64
	Parts        int64
	Binaries     int64
	Misses       int64
	MissGroups   int64
	Releases     int64
	Artifacts    map[ArtifactKind]int64
}

// DatabaseHealth captures diagnostic information about the index database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	MissingTables    []string
	ForeignKeys      bool
	IntegrityCheck   bool
	Error            string
}
