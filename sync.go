package sketchpad

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/bep/debounce"
	"golang.org/x/sync/errgroup"
)

// Remote is the snapshot store collaborator.
type Remote interface {
	// Save applies a delta. Expected to be an idempotent upsert.
	Save(ctx context.Context, p *SavePayload) error
	// Load returns the full current scene.
	Load(ctx context.Context) (*Snapshot, error)
	// UploadImage stores binary image data and returns a reference usable
	// as an image's SourceRef.
	UploadImage(ctx context.Context, name string, data []byte) (string, error)
}

// BitmapLoader fetches and decodes the bitmap behind a SourceRef.
type BitmapLoader interface {
	LoadBitmap(ctx context.Context, ref string) (image.Image, error)
}

// decodeLimit bounds concurrent bitmap fetches during a load.
const decodeLimit = 8

// resultQueueSize is the capacity of the completion queue drained by Poll.
const resultQueueSize = 64

// PersistenceSync reconciles an ElementStore with a Remote. Network calls
// run on their own goroutines; their outcomes are queued and applied to the
// store only from Poll, on the goroutine that owns the store.
type PersistenceSync struct {
	store   *ElementStore
	remote  Remote
	bitmaps BitmapLoader

	debounced func(f func())
	due       chan struct{}
	results   chan func()

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	uploadOrigin Point
	uploadScale  float64

	saves int
}

// NewPersistenceSync returns a sync bound to store. bitmaps may be nil, in
// which case every loaded image gets a placeholder.
func NewPersistenceSync(store *ElementStore, remote Remote, bitmaps BitmapLoader, window time.Duration) *PersistenceSync {
	ctx, cancel := context.WithCancel(context.Background())
	d := DefaultConfig()
	return &PersistenceSync{
		store:        store,
		remote:       remote,
		bitmaps:      bitmaps,
		debounced:    debounce.New(window),
		due:          make(chan struct{}, 1),
		results:      make(chan func(), resultQueueSize),
		ctx:          ctx,
		cancel:       cancel,
		uploadOrigin: d.UploadOrigin,
		uploadScale:  d.UploadScale,
	}
}

// SetUploadPlacement sets where uploaded images land and how their pixel
// size is scaled.
func (p *PersistenceSync) SetUploadPlacement(origin Point, scale float64) {
	p.uploadOrigin = origin
	p.uploadScale = scale
}

// Saves returns the number of save requests issued.
func (p *PersistenceSync) Saves() int { return p.saves }

// Schedule restarts the debounce timer. When it fires, the next Poll
// issues one save reflecting the store at that moment.
func (p *PersistenceSync) Schedule() {
	p.debounced(func() {
		select {
		case p.due <- struct{}{}:
		default:
		}
	})
}

// Poll runs a due save and applies completed network results. Call it once
// per frame from the goroutine that owns the store.
func (p *PersistenceSync) Poll() {
	select {
	case <-p.due:
		p.SaveNow()
	default:
	}
	for {
		select {
		case fn := <-p.results:
			fn()
		default:
			return
		}
	}
}

// SaveNow builds the payload synchronously and sends it without waiting.
// Failures are logged and not retried; the next save carries the same
// changes again.
func (p *PersistenceSync) SaveNow() {
	payload := BuildPayload(p.store)
	p.saves++
	Logger().Debug("save issued", "version", payload.Version,
		"new", len(payload.Delta.Lines.New)+len(payload.Delta.Images.New)+len(payload.Delta.TextBoxes.New),
		"modified", len(payload.Delta.Lines.Modified)+len(payload.Delta.Images.Modified)+len(payload.Delta.TextBoxes.Modified),
		"deleted", len(payload.Delta.Lines.Deleted)+len(payload.Delta.Images.Deleted)+len(payload.Delta.TextBoxes.Deleted))

	p.spawn(func(ctx context.Context) func() {
		if err := p.remote.Save(ctx, payload); err != nil {
			return func() { Logger().Warn("save failed", "version", payload.Version, "error", err) }
		}
		return func() {
			p.store.AckDeleted(payload)
			Logger().Info("canvas saved", "version", payload.Version)
		}
	})
}

// StartLoad fetches the remote scene in the background; the next Poll
// after it settles replaces the store.
func (p *PersistenceSync) StartLoad() {
	p.spawn(func(ctx context.Context) func() {
		scene, err := p.Load(ctx)
		if err != nil {
			return func() { Logger().Warn("load failed", "error", err) }
		}
		return func() {
			debugCheckSceneSize(scene)
			p.store.Replace(scene)
			Logger().Info("canvas loaded",
				"lines", len(scene.Lines), "images", len(scene.Images), "text", len(scene.TextBoxes))
		}
	})
}

// Load fetches the remote snapshot and decodes every image bitmap in
// parallel. It returns only after all decodes settle. A failed decode
// yields a placeholder bitmap and keeps the element.
func (p *PersistenceSync) Load(ctx context.Context) (*Scene, error) {
	snap, err := p.remote.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		snap = &Snapshot{}
	}

	scene := &Scene{
		Lines:     make([]*LineElement, 0, len(snap.Lines)),
		Images:    make([]*ImageElement, 0, len(snap.Images)),
		TextBoxes: make([]*TextBoxElement, 0, len(snap.TextBoxes)),
	}
	for _, rec := range snap.Lines {
		if len(rec.Points) == 0 {
			Logger().Warn("skipping line without points", "id", rec.ID)
			continue
		}
		scene.Lines = append(scene.Lines, &LineElement{meta: loadedMeta(rec.ID), Points: rec.Points})
	}
	for _, rec := range snap.TextBoxes {
		scene.TextBoxes = append(scene.TextBoxes, &TextBoxElement{
			meta: loadedMeta(rec.ID),
			Text: rec.Body(),
			X:    rec.X, Y: rec.Y, Width: rec.Width, Height: rec.Height,
		})
	}

	var g errgroup.Group
	g.SetLimit(decodeLimit)
	for _, rec := range snap.Images {
		img := &ImageElement{
			meta:      loadedMeta(rec.ID),
			SourceRef: rec.URL,
			X:         rec.X, Y: rec.Y, Width: rec.Width, Height: rec.Height,
		}
		scene.Images = append(scene.Images, img)
		g.Go(func() error {
			img.Bitmap = p.decode(ctx, img.SourceRef)
			return nil
		})
	}
	_ = g.Wait()
	return scene, nil
}

func (p *PersistenceSync) decode(ctx context.Context, ref string) image.Image {
	if p.bitmaps == nil {
		return placeholderBitmap()
	}
	bmp, err := p.bitmaps.LoadBitmap(ctx, ref)
	if err != nil || bmp == nil {
		Logger().Warn("bitmap decode failed, using placeholder", "ref", ref, "error", err)
		return placeholderBitmap()
	}
	return bmp
}

// Upload sends image data to the remote, decodes the stored bitmap and
// places a new image element once both succeed.
func (p *PersistenceSync) Upload(name string, data []byte) {
	origin, scale := p.uploadOrigin, p.uploadScale
	p.spawn(func(ctx context.Context) func() {
		ref, err := p.remote.UploadImage(ctx, name, data)
		if err != nil {
			return func() { Logger().Warn("upload failed", "name", name, "error", err) }
		}
		if p.bitmaps == nil {
			return func() { Logger().Warn("upload stored but no bitmap loader configured", "ref", ref) }
		}
		bmp, err := p.bitmaps.LoadBitmap(ctx, ref)
		if err != nil {
			return func() { Logger().Warn("uploaded bitmap decode failed", "ref", ref, "error", err) }
		}
		b := bmp.Bounds()
		box := Rect{
			X: origin.X, Y: origin.Y,
			Width:  float64(b.Dx()) * scale,
			Height: float64(b.Dy()) * scale,
		}
		return func() {
			p.store.AddImage(ref, box, bmp)
			Logger().Info("image uploaded", "ref", ref)
		}
	})
}

// spawn runs work on its own goroutine and queues the closure it returns
// for the next Poll.
func (p *PersistenceSync) spawn(work func(ctx context.Context) func()) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		apply := work(p.ctx)
		if apply == nil {
			return
		}
		select {
		case p.results <- apply:
		case <-p.ctx.Done():
		}
	}()
}

// Wait blocks until every issued request has finished and its result is
// queued for Poll.
func (p *PersistenceSync) Wait() {
	p.inflight.Wait()
}

// Close cancels outstanding requests.
func (p *PersistenceSync) Close() {
	p.cancel()
}

func loadedMeta(id string) meta {
	if id == "" {
		id = NewID()
	}
	return meta{ID: id, Status: StatusUnchanged}
}

// placeholderBitmap stands in for an image whose bitmap could not be
// decoded. It is drawn transparent.
func placeholderBitmap() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 1, 1))
}
