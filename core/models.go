package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Listings and profiles use storage sequences; categories and skills use
// content-based IDs derived from their case-folded name.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FoldName returns the case-insensitive identity of a category or skill name.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// TermID returns the ID of a taxonomy term. Names differing only by case map
// to the same ID.
func TermID(kind TermKind, name string) ID {
	return IDFromContent("(" + string(kind) + "," + FoldName(name) + ")")
}

// TermKind distinguishes the two taxonomies a listing is tagged with.
type TermKind string

const (
	TermCategory TermKind = "category"
	TermSkill    TermKind = "skill"
)

// Term is a category or skill name. The stored Name keeps the casing of the
// first writer.
type Term struct {
	Id         ID
	Kind       TermKind
	Name       string
	InsertedAt time.Time
}

// Listing is a job posting as seen by the matching engine.
type Listing struct {
	Id               ID
	OwnerId          ID
	Title            string
	Company          string
	City             string
	Country          string
	Type             string // employment type, e.g. "Full-Time"
	Description      string
	Responsibilities string
	WhoYouAre        string
	NiceToHaves      string
	Keywords         string
	Capacity         *int // nil means unlimited
	ApplicationCount int
	ApplyBefore      time.Time
	PostedOn         time.Time
	SalaryFrom       *float64
	SalaryTo         *float64
	Categories       []string
	Skills           []string
	InsertedAt       time.Time
	UpdatedAt        time.Time
}

// EmbeddingContent returns the listing fields that feed its embedding document.
// Two listings with equal content produce equal documents.
func (l *Listing) EmbeddingContent() string {
	parts := []string{
		l.Title, l.Keywords, l.Type, l.Description,
		l.Responsibilities, l.WhoYouAre, l.NiceToHaves,
		strings.Join(l.Categories, ","), strings.Join(l.Skills, ","),
	}
	return strings.Join(parts, "\x00")
}

// Profile is a job seeker's skill set.
type Profile struct {
	Id         ID
	OwnerId    ID
	Skills     []string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// EntityKind identifies what an embedding belongs to.
type EntityKind uint8

const (
	EntityListing EntityKind = iota + 1
	EntityProfile
)

func (k EntityKind) String() string {
	switch k {
	case EntityListing:
		return "listing"
	case EntityProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// EntityRef points at a listing or a profile.
type EntityRef struct {
	Kind EntityKind
	Id   ID
}

// ListingRef returns a reference to the listing with the given ID.
func ListingRef(id ID) EntityRef {
	return EntityRef{Kind: EntityListing, Id: id}
}

// ProfileRef returns a reference to the profile with the given ID.
func ProfileRef(id ID) EntityRef {
	return EntityRef{Kind: EntityProfile, Id: id}
}

// EmbeddingState is the freshness of a cached vector.
type EmbeddingState int

const (
	EmbeddingAbsent EmbeddingState = iota
	EmbeddingStale
	EmbeddingFresh
)

func (s EmbeddingState) String() string {
	switch s {
	case EmbeddingStale:
		return "stale"
	case EmbeddingFresh:
		return "fresh"
	default:
		return "absent"
	}
}

// Embedding is a cached vector plus its staleness flag.
// The zero value is an absent embedding.
type Embedding struct {
	Vector     []float32
	Stale      bool
	ComputedAt time.Time
}

// State reports whether the embedding is absent, stale or fresh.
func (e Embedding) State() EmbeddingState {
	if len(e.Vector) == 0 {
		return EmbeddingAbsent
	}
	if e.Stale {
		return EmbeddingStale
	}
	return EmbeddingFresh
}

// Present reports whether a vector has ever been computed.
func (e Embedding) Present() bool {
	return len(e.Vector) > 0
}

// FilterSpec is a structured listing filter. Nil or empty fields impose no
// constraint.
type FilterSpec struct {
	Categories []string `json:"categories,omitempty"`
	Types      []string `json:"types,omitempty"`
	SalaryFrom *float64 `json:"salaryFrom,omitempty"`
	SalaryTo   *float64 `json:"salaryTo,omitempty"`
}

// ScoredListing pairs a listing with its keyword relevance score.
type ScoredListing struct {
	Listing *Listing
	Score   int
}

// CategoryCount is the number of eligible listings tagged with a category.
type CategoryCount struct {
	CategoryName string `json:"categoryName"`
	JobCount     int    `json:"jobCount"`
}
