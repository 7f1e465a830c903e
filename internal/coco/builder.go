package coco

// Builder hands out dense 1-based image and annotation ids.
type Builder struct {
	NextImageID      int
	NextAnnotationID int
}

// NewBuilder starts both counters at 1.
func NewBuilder() *Builder {
	return &Builder{NextImageID: 1, NextAnnotationID: 1}
}

// ImageID returns the next image id and advances the counter.
func (b *Builder) ImageID() int {
	if b.NextImageID < 1 {
		b.NextImageID = 1
	}
	id := b.NextImageID
	b.NextImageID++
	return id
}

// AnnotationID returns the next annotation id and advances the counter.
func (b *Builder) AnnotationID() int {
	if b.NextAnnotationID < 1 {
		b.NextAnnotationID = 1
	}
	id := b.NextAnnotationID
	b.NextAnnotationID++
	return id
}
