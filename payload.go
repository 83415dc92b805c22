package sketchpad

// LineRecord is the wire form of a line.
type LineRecord struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
	Status string  `json:"status,omitempty"`
}

// ImageRecord is the wire form of an image. The bitmap never travels.
type ImageRecord struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Status string  `json:"status,omitempty"`
}

// TextRecord is the wire form of a text box. Older stores answer with
// "content" instead of "text"; both are read.
type TextRecord struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Content string  `json:"content,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Status  string  `json:"status,omitempty"`
}

// Body returns Text, falling back to Content.
func (r TextRecord) Body() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Content
}

// Bucket groups the changed records of one element kind.
type Bucket[R any] struct {
	New      []R      `json:"new"`
	Modified []R      `json:"modified"`
	Deleted  []string `json:"deleted"`
}

// Empty reports whether the bucket carries nothing.
func (b Bucket[R]) Empty() bool {
	return len(b.New) == 0 && len(b.Modified) == 0 && len(b.Deleted) == 0
}

// Delta is the per-kind change set of a save.
type Delta struct {
	Lines     Bucket[LineRecord]  `json:"lines"`
	Images    Bucket[ImageRecord] `json:"images"`
	TextBoxes Bucket[TextRecord]  `json:"textBoxes"`
}

// Empty reports whether no element changed.
func (d Delta) Empty() bool {
	return d.Lines.Empty() && d.Images.Empty() && d.TextBoxes.Empty()
}

// SavePayload is sent to Remote.Save. Lines, Images and TextBoxes are the
// combined list of every live element kept for stores that predate Delta;
// unchanged entries carry no status.
type SavePayload struct {
	Lines     []LineRecord  `json:"lines"`
	Images    []ImageRecord `json:"images"`
	TextBoxes []TextRecord  `json:"textBoxes"`
	Delta     Delta         `json:"delta"`

	// Version is the store version the payload was built from.
	Version uint64 `json:"version"`
}

// Snapshot is the answer of Remote.Load. Missing arrays decode as nil and
// are treated as empty.
type Snapshot struct {
	Lines     []LineRecord  `json:"lines"`
	Images    []ImageRecord `json:"images"`
	TextBoxes []TextRecord  `json:"textBoxes"`
}

func wireStatus(s Status) string {
	if s == StatusUnchanged {
		return ""
	}
	return s.String()
}

// BuildPayload partitions the store into the combined list and the
// per-kind delta. Acknowledged tombstones are omitted.
func BuildPayload(s *ElementStore) *SavePayload {
	p := &SavePayload{
		Lines:     []LineRecord{},
		Images:    []ImageRecord{},
		TextBoxes: []TextRecord{},
		Version:   s.Version(),
	}
	for _, l := range s.lines {
		if l.Status == StatusDeleted {
			if !l.acked {
				p.Delta.Lines.Deleted = append(p.Delta.Lines.Deleted, l.ID)
			}
			continue
		}
		rec := LineRecord{ID: l.ID, Points: l.Points, Status: wireStatus(l.Status)}
		p.Lines = append(p.Lines, rec)
		addToBucket(&p.Delta.Lines, l.Status, rec)
	}
	for _, img := range s.images {
		if img.Status == StatusDeleted {
			if !img.acked {
				p.Delta.Images.Deleted = append(p.Delta.Images.Deleted, img.ID)
			}
			continue
		}
		rec := ImageRecord{
			ID: img.ID, URL: img.SourceRef,
			X: img.X, Y: img.Y, Width: img.Width, Height: img.Height,
			Status: wireStatus(img.Status),
		}
		p.Images = append(p.Images, rec)
		addToBucket(&p.Delta.Images, img.Status, rec)
	}
	for _, t := range s.textBoxes {
		if t.Status == StatusDeleted {
			if !t.acked {
				p.Delta.TextBoxes.Deleted = append(p.Delta.TextBoxes.Deleted, t.ID)
			}
			continue
		}
		rec := TextRecord{
			ID: t.ID, Text: t.Text,
			X: t.X, Y: t.Y, Width: t.Width, Height: t.Height,
			Status: wireStatus(t.Status),
		}
		p.TextBoxes = append(p.TextBoxes, rec)
		addToBucket(&p.Delta.TextBoxes, t.Status, rec)
	}
	return p
}

func addToBucket[R any](b *Bucket[R], status Status, rec R) {
	switch status {
	case StatusNew:
		b.New = append(b.New, rec)
	case StatusModified:
		b.Modified = append(b.Modified, rec)
	}
}
