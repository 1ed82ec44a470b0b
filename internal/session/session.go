package session

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/filterlab/internal/diffmap"
	"github.com/ironsheep/filterlab/internal/imaging"
	"github.com/ironsheep/filterlab/internal/params"
	"github.com/ironsheep/filterlab/internal/report"
	"github.com/ironsheep/filterlab/internal/stats"
	"github.com/ironsheep/filterlab/internal/tone"
)

// Role names one side of the comparison.
type Role string

const (
	Reference Role = "reference"
	Mine      Role = "mine"
)

// ParseRole accepts "reference", "ref" or "mine".
func ParseRole(s string) (Role, error) {
	switch s {
	case "reference", "ref":
		return Reference, nil
	case "mine":
		return Mine, nil
	default:
		return "", fmt.Errorf("unknown role %q (want reference or mine)", s)
	}
}

// ErrNotReady is returned when an operation needs state that has not been
// loaded or computed yet. The session is left unchanged.
var ErrNotReady = errors.New("session not ready")

// ContentError reports an image with no visible pixels.
type ContentError struct {
	Role Role
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("%s image: %v", e.Role, stats.ErrNoContent)
}

func (e *ContentError) Unwrap() error {
	return stats.ErrNoContent
}

// Options configures a Session.
type Options struct {
	// Strength scales every suggested slider. Non-positive selects
	// diffmap.DefaultStrength.
	Strength float64

	// MaxWorkingSize bounds the longer side of the working copy.
	// Non-positive selects imaging.DefaultMaxWorkingSize.
	MaxWorkingSize int
}

// Suggestion is the outcome of Analyze.
type Suggestion struct {
	Params     params.Params      `json:"params"`
	Difference diffmap.Difference `json:"difference"`
	Reference  stats.Statistics   `json:"reference"`
	Mine       stats.Statistics   `json:"mine"`
	Report     []report.Line      `json:"report"`
}

// Status summarises what the session currently holds.
type Status struct {
	Reference     *imaging.ImageInfo `json:"reference,omitempty"`
	Mine          *imaging.ImageInfo `json:"mine,omitempty"`
	HasSuggestion bool               `json:"hasSuggestion"`
	Adjustments   params.Params      `json:"adjustments"`
}

type snapshot struct {
	full    *image.NRGBA
	working *image.NRGBA
	info    imaging.ImageInfo
	stats   stats.Statistics
}

// Session is the state of one reference/mine comparison.
type Session struct {
	mapper  diffmap.Mapper
	maxSize int

	mu        sync.RWMutex
	ref       *snapshot
	mine      *snapshot
	suggested *Suggestion
	current   params.Params
}

// New creates an empty session.
func New(opts Options) *Session {
	size := opts.MaxWorkingSize
	if size <= 0 {
		size = imaging.DefaultMaxWorkingSize
	}
	return &Session{
		mapper:  diffmap.New(opts.Strength),
		maxSize: size,
	}
}

// Strength returns the multiplier applied to suggestions.
func (s *Session) Strength() float64 {
	return s.mapper.Strength
}

// LoadReference measures p and stores it as the reference. Any previous
// suggestion is discarded; the current sliders are kept.
//
// A photo without visible pixels fails with a *ContentError and leaves the
// session unchanged.
func (s *Session) LoadReference(p *imaging.Photo) (stats.Statistics, error) {
	snap, err := s.snapshot(Reference, p)
	if err != nil {
		return stats.Statistics{}, err
	}

	s.mu.Lock()
	s.ref = snap
	s.suggested = nil
	s.mu.Unlock()

	return snap.stats, nil
}

// LoadMine measures p and stores it as the photo being edited. Any previous
// suggestion is discarded and the sliders return to neutral.
func (s *Session) LoadMine(p *imaging.Photo) (stats.Statistics, error) {
	snap, err := s.snapshot(Mine, p)
	if err != nil {
		return stats.Statistics{}, err
	}

	s.mu.Lock()
	s.mine = snap
	s.suggested = nil
	s.current = params.Params{}
	s.mu.Unlock()

	return snap.stats, nil
}

func (s *Session) snapshot(role Role, p *imaging.Photo) (*snapshot, error) {
	if p == nil || p.Image == nil {
		return nil, fmt.Errorf("%s image: nothing to load", role)
	}

	full := p.Image
	if full.Rect.Min != (image.Point{}) || full.Stride != 4*full.Rect.Dx() {
		full = imaging.ToNRGBA(full)
	}
	working := imaging.FitWorking(full, s.maxSize)

	st, err := stats.FromImage(working)
	if err != nil {
		if errors.Is(err, stats.ErrNoContent) {
			return nil, &ContentError{Role: role}
		}
		return nil, fmt.Errorf("%s image: %w", role, err)
	}

	return &snapshot{full: full, working: working, info: p.Info, stats: st}, nil
}

// Statistics returns the measurement of one loaded photo.
func (s *Session) Statistics(role Role) (stats.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.side(role)
	if snap == nil {
		return stats.Statistics{}, fmt.Errorf("%w: %s image not loaded", ErrNotReady, role)
	}
	return snap.stats, nil
}

func (s *Session) side(role Role) *snapshot {
	if role == Reference {
		return s.ref
	}
	return s.mine
}

// Analyze maps the reference and mine measurements to suggested sliders and
// makes them current. Both photos must be loaded.
func (s *Session) Analyze() (Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ref == nil || s.mine == nil {
		return Suggestion{}, fmt.Errorf("%w: load both reference and mine before analyzing", ErrNotReady)
	}

	sg := Compare(s.mapper, s.ref.stats, s.mine.stats)
	s.suggested = &sg
	s.current = sg.Params
	return sg, nil
}

// Compare builds a suggestion from two measurements without touching any
// session state.
func Compare(m diffmap.Mapper, ref, mine stats.Statistics) Suggestion {
	p := m.Map(ref, mine)
	return Suggestion{
		Params:     p,
		Difference: diffmap.Diff(ref, mine),
		Reference:  ref,
		Mine:       mine,
		Report:     report.Lines(p),
	}
}

// Suggested returns the last suggestion, if Analyze has run since the photos
// were loaded.
func (s *Session) Suggested() (Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.suggested == nil {
		return Suggestion{}, false
	}
	return *s.suggested, true
}

// Adjustments returns the sliders currently in effect.
func (s *Session) Adjustments() params.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetAdjustments replaces the current sliders. Values are clamped to the
// slider range and the stored values are returned.
func (s *Session) SetAdjustments(p params.Params) params.Params {
	p = p.Clamped()

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	return p
}

// ResetToSuggested restores the sliders of the last suggestion.
func (s *Session) ResetToSuggested() (params.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suggested == nil {
		return params.Params{}, fmt.Errorf("%w: no suggestion to restore", ErrNotReady)
	}
	s.current = s.suggested.Params
	return s.current, nil
}

// ResetAdjustments sets every slider back to zero.
func (s *Session) ResetAdjustments() {
	s.mu.Lock()
	s.current = params.Params{}
	s.mu.Unlock()
}

// Report renders the current sliders.
func (s *Session) Report() string {
	return report.Format(s.Adjustments())
}

// Status reports which photos are loaded and the current sliders.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		HasSuggestion: s.suggested != nil,
		Adjustments:   s.current,
	}
	if s.ref != nil {
		info := s.ref.info
		st.Reference = &info
	}
	if s.mine != nil {
		info := s.mine.info
		st.Mine = &info
	}
	return st
}

// Preview renders the current sliders over mine's working copy.
func (s *Session) Preview() (*image.NRGBA, error) {
	return s.render(false)
}

// Export renders the current sliders over mine's full-resolution copy.
func (s *Session) Export() (*image.NRGBA, error) {
	return s.render(true)
}

func (s *Session) render(full bool) (*image.NRGBA, error) {
	s.mu.RLock()
	snap, p := s.mine, s.current
	s.mu.RUnlock()

	if snap == nil {
		return nil, fmt.Errorf("%w: mine image not loaded", ErrNotReady)
	}

	src := snap.working
	if full {
		src = snap.full
	}

	dst := image.NewNRGBA(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	if err := tone.ApplyTo(dst.Pix, src.Pix, src.Rect.Dx(), src.Rect.Dy(), p); err != nil {
		return nil, err
	}
	return dst, nil
}
