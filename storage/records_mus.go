package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/jobmatch/core"
)

// Records are encoded field by field with mus serializers. Each record type
// has a single visit function that drives both size calculation and
// marshalling, so the two can never disagree.

// recordVersion prefixes every encoded record.
const recordVersion uint64 = 1

type encoder interface {
	uint64(v uint64)
	int64(v int64)
	int(v int)
	string(v string)
	bool(v bool)
	float32(v float32)
	float64(v float64)
}

// sizer accumulates the encoded size without writing.
type sizer struct{ n int }

func (s *sizer) uint64(v uint64)   { s.n += varint.Uint64.Size(v) }
func (s *sizer) int64(v int64)     { s.n += varint.Int64.Size(v) }
func (s *sizer) int(v int)         { s.n += varint.Int.Size(v) }
func (s *sizer) string(v string)   { s.n += ord.String.Size(v) }
func (s *sizer) bool(v bool)       { s.n += ord.Bool.Size(v) }
func (s *sizer) float32(v float32) { s.n += raw.Float32.Size(v) }
func (s *sizer) float64(v float64) { s.n += raw.Float64.Size(v) }

// writer marshals into a buffer sized by sizer.
type writer struct {
	bs []byte
	n  int
}

func (w *writer) uint64(v uint64)   { w.n += varint.Uint64.Marshal(v, w.bs[w.n:]) }
func (w *writer) int64(v int64)     { w.n += varint.Int64.Marshal(v, w.bs[w.n:]) }
func (w *writer) int(v int)         { w.n += varint.Int.Marshal(v, w.bs[w.n:]) }
func (w *writer) string(v string)   { w.n += ord.String.Marshal(v, w.bs[w.n:]) }
func (w *writer) bool(v bool)       { w.n += ord.Bool.Marshal(v, w.bs[w.n:]) }
func (w *writer) float32(v float32) { w.n += raw.Float32.Marshal(v, w.bs[w.n:]) }
func (w *writer) float64(v float64) { w.n += raw.Float64.Marshal(v, w.bs[w.n:]) }

// reader unmarshals sequentially and remembers the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) uint64() (v uint64) {
	if r.err == nil {
		var n int
		v, n, r.err = varint.Uint64.Unmarshal(r.bs[r.n:])
		r.n += n
	}
	return
}

func (r *reader) int64() (v int64) {
	if r.err == nil {
		var n int
		v, n, r.err = varint.Int64.Unmarshal(r.bs[r.n:])
		r.n += n
	}
	return
}

func (r *reader) int() (v int) {
	if r.err == nil {
		var n int
		v, n, r.err = varint.Int.Unmarshal(r.bs[r.n:])
		r.n += n
	}
	return
}

func (r *reader) string() (v string) {
	if r.err == nil {
		var n int
		v, n, r.err = ord.String.Unmarshal(r.bs[r.n:])
		r.n += n
	}
	return
}

func (r *reader) bool() (v bool) {
	if r.err == nil {
		var n int
		v, n, r.err = ord.Bool.Unmarshal(r.bs[r.n:])
		r.n += n
	}
	return
}

func (r *reader) float32() (v float32) {
	if r.err == nil {
		var n int
		v, n, r.err = raw.Float32.Unmarshal(r.bs[r.n:])
		r.n += n
	}
	return
}

func (r *reader) float64() (v float64) {
	if r.err == nil {
		var n int
		v, n, r.err = raw.Float64.Unmarshal(r.bs[r.n:])
		r.n += n
	}
	return
}

// length reads a slice length and rejects values that cannot fit in the
// remaining input.
func (r *reader) length() int {
	l := r.int()
	if r.err == nil && (l < 0 || l > len(r.bs)-r.n) {
		r.err = ErrTruncatedData
		return 0
	}
	return l
}

func (r *reader) version() {
	if v := r.uint64(); r.err == nil && v != recordVersion {
		r.err = fmt.Errorf("unsupported record version %d", v)
	}
}

func (r *reader) result() error {
	if r.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	return nil
}

// encode runs visit twice: once to size the buffer and once to fill it.
func encode(visit func(e encoder)) []byte {
	s := &sizer{}
	visit(s)
	w := &writer{bs: make([]byte, s.n)}
	visit(w)
	return w.bs[:w.n]
}

func putTime(e encoder, t time.Time) {
	if t.IsZero() {
		e.int64(0)
		return
	}
	e.int64(t.UnixMicro())
}

func getTime(r *reader) time.Time {
	v := r.int64()
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

func putStrings(e encoder, values []string) {
	e.int(len(values))
	for _, v := range values {
		e.string(v)
	}
}

func getStrings(r *reader) []string {
	l := r.length()
	if l == 0 {
		return nil
	}
	values := make([]string, l)
	for i := range values {
		values[i] = r.string()
	}
	return values
}

func putVector(e encoder, vector []float32) {
	e.int(len(vector))
	for _, v := range vector {
		e.float32(v)
	}
}

func getVector(r *reader) []float32 {
	l := r.length()
	if l == 0 {
		return nil
	}
	vector := make([]float32, l)
	for i := range vector {
		vector[i] = r.float32()
	}
	return vector
}

func putOptionalInt(e encoder, v *int) {
	e.bool(v != nil)
	if v != nil {
		e.int(*v)
	}
}

func getOptionalInt(r *reader) *int {
	if !r.bool() {
		return nil
	}
	v := r.int()
	return &v
}

func putOptionalFloat(e encoder, v *float64) {
	e.bool(v != nil)
	if v != nil {
		e.float64(*v)
	}
}

func getOptionalFloat(r *reader) *float64 {
	if !r.bool() {
		return nil
	}
	v := r.float64()
	return &v
}

func visitListing(e encoder, l *core.Listing) {
	e.uint64(recordVersion)
	e.uint64(uint64(l.Id))
	e.uint64(uint64(l.OwnerId))
	e.string(l.Title)
	e.string(l.Company)
	e.string(l.City)
	e.string(l.Country)
	e.string(l.Type)
	e.string(l.Description)
	e.string(l.Responsibilities)
	e.string(l.WhoYouAre)
	e.string(l.NiceToHaves)
	e.string(l.Keywords)
	putOptionalInt(e, l.Capacity)
	e.int(l.ApplicationCount)
	putTime(e, l.ApplyBefore)
	putTime(e, l.PostedOn)
	putOptionalFloat(e, l.SalaryFrom)
	putOptionalFloat(e, l.SalaryTo)
	putStrings(e, l.Categories)
	putStrings(e, l.Skills)
	putTime(e, l.InsertedAt)
	putTime(e, l.UpdatedAt)
}

func readListing(r *reader) *core.Listing {
	r.version()
	l := &core.Listing{}
	l.Id = core.ID(r.uint64())
	l.OwnerId = core.ID(r.uint64())
	l.Title = r.string()
	l.Company = r.string()
	l.City = r.string()
	l.Country = r.string()
	l.Type = r.string()
	l.Description = r.string()
	l.Responsibilities = r.string()
	l.WhoYouAre = r.string()
	l.NiceToHaves = r.string()
	l.Keywords = r.string()
	l.Capacity = getOptionalInt(r)
	l.ApplicationCount = r.int()
	l.ApplyBefore = getTime(r)
	l.PostedOn = getTime(r)
	l.SalaryFrom = getOptionalFloat(r)
	l.SalaryTo = getOptionalFloat(r)
	l.Categories = getStrings(r)
	l.Skills = getStrings(r)
	l.InsertedAt = getTime(r)
	l.UpdatedAt = getTime(r)
	return l
}

func visitProfile(e encoder, p *core.Profile) {
	e.uint64(recordVersion)
	e.uint64(uint64(p.Id))
	e.uint64(uint64(p.OwnerId))
	putStrings(e, p.Skills)
	putTime(e, p.InsertedAt)
	putTime(e, p.UpdatedAt)
}

func readProfile(r *reader) *core.Profile {
	r.version()
	p := &core.Profile{}
	p.Id = core.ID(r.uint64())
	p.OwnerId = core.ID(r.uint64())
	p.Skills = getStrings(r)
	p.InsertedAt = getTime(r)
	p.UpdatedAt = getTime(r)
	return p
}

func visitTerm(e encoder, t *core.Term) {
	e.uint64(recordVersion)
	e.uint64(uint64(t.Id))
	e.string(string(t.Kind))
	e.string(t.Name)
	putTime(e, t.InsertedAt)
}

func readTerm(r *reader) *core.Term {
	r.version()
	t := &core.Term{}
	t.Id = core.ID(r.uint64())
	t.Kind = core.TermKind(r.string())
	t.Name = r.string()
	t.InsertedAt = getTime(r)
	return t
}

func visitEmbedding(e encoder, emb *core.Embedding) {
	e.uint64(recordVersion)
	putVector(e, emb.Vector)
	e.bool(emb.Stale)
	putTime(e, emb.ComputedAt)
}

func readEmbedding(r *reader) core.Embedding {
	r.version()
	var emb core.Embedding
	emb.Vector = getVector(r)
	emb.Stale = r.bool()
	emb.ComputedAt = getTime(r)
	return emb
}
