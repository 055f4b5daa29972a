package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"portfolio/internal/content"
	"portfolio/internal/imageref"
)

type State int

const (
	Idle State = iota
	Editing
	Submitting
	Saved
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrBusy       = errors.New("a submit is already in progress")
	ErrNotEditing = errors.New("no record is open for editing")
)

// Blob is an image picked in the form and not yet uploaded.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

type AssetStore interface {
	Upload(ctx context.Context, blob Blob) (key string, err error)
	Delete(ctx context.Context, key string) error
}

type Records[P any] interface {
	Create(ctx context.Context, rec P) (P, error)
	Update(ctx context.Context, id string, rec P) (P, error)
	Delete(ctx context.Context, id string) error
}

// Editor drives one admin form: open a record, stage or remove its image,
// submit. The image reference the record had when it was opened is kept
// aside and only deleted from storage after a save that replaced it.
type Editor[T any, P content.Entity[T]] struct {
	assets   AssetStore
	records  Records[P]
	resolver imageref.Resolver
	log      zerolog.Logger

	mu      sync.Mutex
	state   State
	draft   P
	id      string
	initial imageref.Ref
	staged  *Blob
	remove  bool
	busy    bool
	orphans []string
	lastErr error
}

func NewEditor[T any, P content.Entity[T]](assets AssetStore, records Records[P], resolver imageref.Resolver, log zerolog.Logger) *Editor[T, P] {
	return &Editor[T, P]{
		assets:   assets,
		records:  records,
		resolver: resolver,
		log:      log,
	}
}

// Open starts editing existing, or a blank record when existing is nil.
func (e *Editor[T, P]) Open(existing P) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrBusy
	}

	e.draft = P(new(T))
	e.id = ""
	e.initial = imageref.Ref{}
	if existing != nil {
		e.draft = clone(existing)
		e.id = existing.Metadata().ID
		e.initial = e.resolver.Resolve(storedImage(existing))
	}
	e.staged = nil
	e.remove = false
	e.lastErr = nil
	e.state = Editing
	return nil
}

// Draft is the record being edited. Callers change its fields in place.
func (e *Editor[T, P]) Draft() P {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

func (e *Editor[T, P]) StageImage(blob Blob) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editable(); err != nil {
		return err
	}
	e.staged = &blob
	e.remove = false
	return nil
}

func (e *Editor[T, P]) RemoveImage() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editable(); err != nil {
		return err
	}
	e.staged = nil
	e.remove = true
	return nil
}

// Submit validates locally, uploads a staged image, saves the record and
// then drops the replaced asset. A failed upload saves nothing. A failed
// save after an upload leaves that upload orphaned; it is reported by
// Orphans. Either failure keeps the staged state so Submit can be retried.
func (e *Editor[T, P]) Submit(ctx context.Context) (P, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	if err := e.editable(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	rec := clone(e.draft)
	if err := content.Prepare(rec); err != nil {
		e.state = Editing
		e.mu.Unlock()
		return nil, err
	}
	e.busy = true
	e.state = Submitting
	id, initial, staged, remove := e.id, e.initial, e.staged, e.remove
	e.mu.Unlock()

	saved, next, err := e.submit(ctx, rec, id, initial, staged, remove)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	if err != nil {
		e.state = Failed
		e.lastErr = err
		return nil, err
	}
	e.state = Saved
	e.lastErr = nil
	e.draft = clone(saved)
	e.id = saved.Metadata().ID
	e.initial = next
	e.staged = nil
	e.remove = false
	return saved, nil
}

func (e *Editor[T, P]) submit(ctx context.Context, rec P, id string, initial imageref.Ref, staged *Blob, remove bool) (P, imageref.Ref, error) {
	next := initial
	uploaded := ""
	if staged != nil {
		key, err := e.assets.Upload(ctx, *staged)
		if err != nil {
			return nil, initial, err
		}
		uploaded = key
		next = imageref.Ref{Kind: imageref.StorageKey, Value: key}
	} else if remove {
		next = imageref.Ref{}
	}

	if m, ok := any(rec).(content.Illustrated); ok {
		media := m.MediaRef()
		media.Image = nil
		media.ImageKey = nil
		if next.Kind != imageref.None {
			media.Image = content.Ptr(next.Value)
			media.ImageKey = content.Ptr(next.Value)
		}
	}

	var (
		saved P
		err   error
	)
	if id == "" {
		saved, err = e.records.Create(ctx, rec)
	} else {
		saved, err = e.records.Update(ctx, id, rec)
	}
	if err != nil {
		if uploaded != "" {
			e.mu.Lock()
			e.orphans = append(e.orphans, uploaded)
			e.mu.Unlock()
			e.log.Warn().Str("key", uploaded).Msg("record save failed, uploaded asset left unreferenced")
		}
		return nil, initial, err
	}

	if initial.IsKey() && initial.Value != next.Value {
		if err := e.assets.Delete(ctx, initial.Value); err != nil {
			e.log.Warn().Err(err).Str("key", initial.Value).Msg("delete replaced asset failed")
		}
	}
	return saved, next, nil
}

// DeleteRecord removes the record and then, best-effort, its stored asset.
// External image references are never deleted.
func (e *Editor[T, P]) DeleteRecord(ctx context.Context, id string, image string) error {
	if err := e.records.Delete(ctx, id); err != nil {
		return err
	}
	if ref := e.resolver.Resolve(image); ref.IsKey() {
		if err := e.assets.Delete(ctx, ref.Value); err != nil {
			e.log.Warn().Err(err).Str("key", ref.Value).Msg("delete record asset failed")
		}
	}
	return nil
}

// Close abandons the form and releases any staged image.
func (e *Editor[T, P]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = nil
	e.id = ""
	e.initial = imageref.Ref{}
	e.staged = nil
	e.remove = false
	e.lastErr = nil
	if !e.busy {
		e.state = Idle
	}
}

func (e *Editor[T, P]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor[T, P]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Orphans lists keys uploaded by submits whose record save failed.
func (e *Editor[T, P]) Orphans() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.orphans...)
}

// InitialImage is the reference captured when the record was opened.
func (e *Editor[T, P]) InitialImage() imageref.Ref {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initial
}

func (e *Editor[T, P]) editable() error {
	if e.busy {
		return ErrBusy
	}
	if e.state != Editing && e.state != Failed && e.state != Saved {
		return ErrNotEditing
	}
	if e.draft == nil {
		return ErrNotEditing
	}
	return nil
}

func clone[T any, P content.Entity[T]](p P) P {
	c := *p
	return P(&c)
}

// storedImage prefers the canonical key over the display URL.
func storedImage(rec content.Record) string {
	m, ok := rec.(content.Illustrated)
	if !ok {
		return ""
	}
	media := m.MediaRef()
	return content.Or(content.Deref(media.ImageKey), content.Deref(media.Image))
}
