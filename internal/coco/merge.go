package coco

import (
	"fmt"

	"cocoprep/internal/dataset"
)

// Merge combines single-category parts into one multi-class part. Images are
// renumbered 1..N in part order, annotation ids 1..M, and each part's
// annotations take the 1-based position of that part as category id.
func Merge(parts []Part, supercategory string) (Part, error) {
	if supercategory == "" {
		supercategory = DefaultSupercategory
	}
	merged := Part{
		Category:    "combined",
		Images:      []Image{},
		Annotations: []Annotation{},
		Categories:  make([]Category, 0, len(parts)),
	}
	builder := NewBuilder()

	for idx, part := range parts {
		categoryID := idx + 1
		merged.Categories = append(merged.Categories, Category{
			ID:            categoryID,
			Name:          dataset.Singular(part.Category),
			Supercategory: supercategory,
		})

		idMap := make(map[int]int, len(part.Images))
		for _, img := range part.Images {
			newID := builder.ImageID()
			idMap[img.ID] = newID
			img.ID = newID
			merged.Images = append(merged.Images, img)
		}
		for _, ann := range part.Annotations {
			imageID, ok := idMap[ann.ImageID]
			if !ok {
				return Part{}, fmt.Errorf("category %s: annotation %d references unknown image %d", part.Category, ann.ID, ann.ImageID)
			}
			ann.ID = builder.AnnotationID()
			ann.ImageID = imageID
			ann.CategoryID = categoryID
			merged.Annotations = append(merged.Annotations, ann)
		}
	}
	return merged, nil
}
