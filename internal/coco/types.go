package coco

// Version is stamped into every document's info block.
const Version = "1.0.0"

// Info is the document header.
type Info struct {
	Year        int    `json:"year"`
	Version     string `json:"version"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Image references one image file relative to the dataset root.
type Image struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Annotation is one box. BBox is [x, y, width, height] in pixels.
type Annotation struct {
	ID         int       `json:"id"`
	ImageID    int       `json:"image_id"`
	CategoryID int       `json:"category_id"`
	BBox       []float64 `json:"bbox"`
	Area       float64   `json:"area"`
	IsCrowd    int       `json:"iscrowd"`
}

// Category is one class.
type Category struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// License is kept for format compatibility; exports carry none.
type License struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Document is a complete export.
type Document struct {
	Info        Info         `json:"info"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
	Licenses    []License    `json:"licenses"`
}

// Part is the collected content of one category split.
type Part struct {
	Category    string
	Images      []Image
	Annotations []Annotation
	Categories  []Category
}

// NewDocument wraps part with info. Nil lists become empty lists.
func NewDocument(info Info, part Part) Document {
	doc := Document{
		Info:        info,
		Images:      part.Images,
		Annotations: part.Annotations,
		Categories:  part.Categories,
		Licenses:    []License{},
	}
	if doc.Images == nil {
		doc.Images = []Image{}
	}
	if doc.Annotations == nil {
		doc.Annotations = []Annotation{}
	}
	if doc.Categories == nil {
		doc.Categories = []Category{}
	}
	return doc
}
