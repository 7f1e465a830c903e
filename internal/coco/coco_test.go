package coco

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"cocoprep/internal/boxcsv"
	"cocoprep/internal/dataset"
	"cocoprep/internal/logging"
	"cocoprep/internal/testsupport"
)

func addImage(t *testing.T, fs afero.Fs, layout dataset.Layout, file string, w, h int, boxes ...boxcsv.Box) {
	t.Helper()
	var data []byte
	if strings.HasSuffix(strings.ToLower(file), ".png") {
		data = testsupport.PNG(t, w, h)
	} else {
		data = testsupport.JPEG(t, w, h)
	}
	testsupport.WriteFile(t, fs, filepath.Join(layout.ImagesDir(), file), data)
	rows := make([]boxcsv.Row, len(boxes))
	for i, b := range boxes {
		rows[i] = boxcsv.Row{Item: i, Box: b, Label: 1}
	}
	if err := boxcsv.WriteFile(fs, layout.CSVPath(dataset.Stem(file)), rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestBuilderCounters(t *testing.T) {
	b := NewBuilder()
	if b.ImageID() != 1 || b.ImageID() != 2 || b.AnnotationID() != 1 {
		t.Fatal("unexpected ids")
	}
	if b.NextImageID != 3 || b.NextAnnotationID != 2 {
		t.Fatalf("unexpected builder state %+v", b)
	}
	var zero Builder
	if zero.ImageID() != 1 {
		t.Fatal("zero builder must start at 1")
	}
}

func TestCollectRoundTripsBoxesExactly(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := dataset.NewLayout("/data", "oranges")
	box := boxcsv.Box{X: 0.1, Y: 1.0 / 3.0, Width: 12.345678901234567, Height: 4}
	addImage(t, fs, layout, "a.jpg", 8, 6, box)

	part, _, err := NewCollector(fs, "", logging.NewNop()).Collect(context.Background(), layout, "train", NewBuilder())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(part.Annotations) != 1 {
		t.Fatalf("expected one annotation, got %d", len(part.Annotations))
	}
	ann := part.Annotations[0]
	if !reflect.DeepEqual(ann.BBox, []float64{box.X, box.Y, box.Width, box.Height}) {
		t.Fatalf("bbox changed: %v", ann.BBox)
	}
	if ann.Area != box.Width*box.Height || ann.IsCrowd != 0 || ann.CategoryID != 1 {
		t.Fatalf("unexpected annotation %+v", ann)
	}

	// Through the encoded document as well.
	data, err := Encode(NewDocument(Info{}, part))
	if err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, fs, "/out/doc.json", data)
	doc, err := ReadDocument(fs, "/out/doc.json")
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if !reflect.DeepEqual(doc.Annotations[0].BBox, ann.BBox) {
		t.Fatalf("bbox changed through JSON: %v", doc.Annotations[0].BBox)
	}
}

func TestCollectUsesSplitListAndSkipsMissingImages(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := dataset.NewLayout("/data", "oranges")
	addImage(t, fs, layout, "b.JPG", 5, 4, boxcsv.Box{X: 1, Y: 1, Width: 2, Height: 2})
	addImage(t, fs, layout, "a.png", 3, 2)
	addImage(t, fs, layout, "c.jpg", 2, 2)
	testsupport.WriteFile(t, fs, layout.SplitPath("val"), []byte("b\na\n\nghost\nb\n"))

	part, stats, err := NewCollector(fs, "plant", logging.NewNop()).Collect(context.Background(), layout, "val", NewBuilder())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []Image{
		{ID: 1, FileName: "oranges/images/a.png", Width: 3, Height: 2},
		{ID: 2, FileName: "oranges/images/b.JPG", Width: 5, Height: 4},
	}
	if !reflect.DeepEqual(part.Images, want) {
		t.Fatalf("unexpected images %+v", part.Images)
	}
	if stats.NoImage != 1 || stats.Fallback {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(part.Annotations) != 1 || part.Annotations[0].ImageID != 2 {
		t.Fatalf("unexpected annotations %+v", part.Annotations)
	}
	if !reflect.DeepEqual(part.Categories, []Category{{ID: 1, Name: "orange", Supercategory: "plant"}}) {
		t.Fatalf("unexpected categories %+v", part.Categories)
	}
}

func TestCollectFallsBackToAllImages(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := dataset.NewLayout("/data", "backgrounds")
	addImage(t, fs, layout, "x.jpg", 2, 2)
	addImage(t, fs, layout, "y.png", 2, 2)
	testsupport.WriteFile(t, fs, layout.SplitPath("test"), []byte("\n\n"))

	part, stats, err := NewCollector(fs, "", logging.NewNop()).Collect(context.Background(), layout, "test", NewBuilder())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !stats.Fallback || len(part.Images) != 2 {
		t.Fatalf("expected fallback to both images, got %+v %+v", stats, part.Images)
	}
}

func TestCollectFindsMixedCaseExtensions(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := dataset.NewLayout("/data", "backgrounds")
	addImage(t, fs, layout, "a.jpg", 2, 2)
	addImage(t, fs, layout, "b.Jpg", 3, 2)
	addImage(t, fs, layout, "c.Png", 4, 2)

	part, stats, err := NewCollector(fs, "", logging.NewNop()).Collect(context.Background(), layout, "test", NewBuilder())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.NoImage != 0 || len(part.Images) != 3 {
		t.Fatalf("expected all three images, got %+v %+v", stats, part.Images)
	}
	if part.Images[1].FileName != "backgrounds/images/b.Jpg" || part.Images[2].Width != 4 {
		t.Fatalf("unexpected images %+v", part.Images)
	}
}

func TestCollectWarnsAboutUnreadableBoxRows(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := dataset.NewLayout("/data", "oranges")
	addImage(t, fs, layout, "a.jpg", 10, 10)
	csv := "item,x,y,w,h,label\n0,1,1,2,2,1\n1,oops,1,2,2,1\n2,1,1\n"
	testsupport.WriteFile(t, fs, layout.CSVPath("a"), []byte(csv))

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	part, stats, err := NewCollector(fs, "", logger).Collect(context.Background(), layout, "test", NewBuilder())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.SkippedRows != 2 || len(part.Annotations) != 1 {
		t.Fatalf("expected one box and two skipped rows, got %+v %+v", stats, part.Annotations)
	}
	logs := buf.String()
	if !strings.Contains(logs, `"event_type":"box_rows_skipped"`) || !strings.Contains(logs, `"skipped_rows":2`) {
		t.Fatalf("expected skipped-row warning, got %s", logs)
	}
}

func TestCollectKeepsImagesWithoutBoxes(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := dataset.NewLayout("/data", "backgrounds")
	addImage(t, fs, layout, "empty.jpg", 4, 4)
	testsupport.WriteFile(t, fs, filepath.Join(layout.ImagesDir(), "nocsv.jpg"), testsupport.JPEG(t, 4, 4))

	part, _, err := NewCollector(fs, "", logging.NewNop()).Collect(context.Background(), layout, "train", NewBuilder())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(part.Images) != 2 || len(part.Annotations) != 0 {
		t.Fatalf("expected 2 images and no annotations, got %d/%d", len(part.Images), len(part.Annotations))
	}
	data, err := Encode(NewDocument(Info{}, part))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"annotations": []`) {
		t.Fatalf("annotations must encode as an empty list:\n%s", data)
	}
}

func TestMergeRenumbersAndRemaps(t *testing.T) {
	a := Part{Category: "oranges"}
	b := Part{Category: "backgrounds"}
	builderA, builderB := NewBuilder(), NewBuilder()
	for i := 0; i < 3; i++ {
		id := builderA.ImageID()
		a.Images = append(a.Images, Image{ID: id, FileName: "oranges/images/o.jpg"})
		a.Annotations = append(a.Annotations, Annotation{ID: builderA.AnnotationID(), ImageID: id, CategoryID: 1})
	}
	for i := 0; i < 2; i++ {
		id := builderB.ImageID()
		b.Images = append(b.Images, Image{ID: id, FileName: "backgrounds/images/b.jpg"})
		b.Annotations = append(b.Annotations, Annotation{ID: builderB.AnnotationID(), ImageID: id, CategoryID: 1})
	}

	merged, err := Merge([]Part{a, b}, "")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(merged.Images) != 5 {
		t.Fatalf("expected 5 images, got %d", len(merged.Images))
	}
	ids := make(map[int]string)
	for i, img := range merged.Images {
		if img.ID != i+1 {
			t.Fatalf("image %d has id %d", i, img.ID)
		}
		ids[img.ID] = img.FileName
	}
	for i, ann := range merged.Annotations {
		if ann.ID != i+1 {
			t.Fatalf("annotation %d has id %d", i, ann.ID)
		}
		file, ok := ids[ann.ImageID]
		if !ok {
			t.Fatalf("annotation %d references missing image %d", ann.ID, ann.ImageID)
		}
		wantCat := 1
		if strings.HasPrefix(file, "backgrounds/") {
			wantCat = 2
		}
		if ann.CategoryID != wantCat {
			t.Fatalf("annotation %d: category %d, want %d", ann.ID, ann.CategoryID, wantCat)
		}
	}
	wantCats := []Category{
		{ID: 1, Name: "orange", Supercategory: "plant"},
		{ID: 2, Name: "background", Supercategory: "plant"},
	}
	if !reflect.DeepEqual(merged.Categories, wantCats) {
		t.Fatalf("unexpected categories %+v", merged.Categories)
	}
	if a.Images[0].ID != 1 || b.Images[0].ID != 1 {
		t.Fatal("Merge must not modify its inputs")
	}
}

func TestMergeRejectsDanglingReference(t *testing.T) {
	part := Part{Category: "oranges", Annotations: []Annotation{{ID: 1, ImageID: 9}}}
	if _, err := Merge([]Part{part}, ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestConverterRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	oranges := dataset.NewLayout("/data", "oranges")
	backgrounds := dataset.NewLayout("/data", "backgrounds")
	addImage(t, fs, oranges, "o1.jpg", 4, 4, boxcsv.Box{X: 1, Y: 1, Width: 2, Height: 2}, boxcsv.Box{X: 0, Y: 0, Width: 1, Height: 1})
	addImage(t, fs, oranges, "o2.jpg", 4, 4)
	addImage(t, fs, backgrounds, "b1.png", 3, 3, boxcsv.Box{X: 0, Y: 0, Width: 3, Height: 3})

	conv := NewConverter(fs, Options{
		Root:          "/data",
		Out:           "/data/annotations",
		Categories:    []string{"oranges", "backgrounds", "lemons"},
		Splits:        []string{"train"},
		Combined:      true,
		DatasetName:   "Plant Village Orange",
		Supercategory: "plant",
		Year:          2025,
	}, logging.NewNop())

	report, err := conv.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(report.MissingCategories, []string{"lemons"}) || !report.Skipped() {
		t.Fatalf("unexpected missing categories %v", report.MissingCategories)
	}
	if len(report.Outputs) != 3 {
		t.Fatalf("expected 3 outputs, got %+v", report.Outputs)
	}

	doc, err := ReadDocument(fs, "/data/annotations/oranges_instances_train.json")
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	wantInfo := Info{Year: 2025, Version: "1.0.0", Description: "Plant Village Orange oranges train split"}
	if doc.Info != wantInfo {
		t.Fatalf("unexpected info %+v", doc.Info)
	}
	if len(doc.Images) != 2 || len(doc.Annotations) != 2 {
		t.Fatalf("unexpected oranges document %+v", doc)
	}

	combined, err := ReadDocument(fs, "/data/annotations/combined_instances_train.json")
	if err != nil {
		t.Fatalf("ReadDocument combined: %v", err)
	}
	if combined.Info.Description != "Plant Village Orange combined train split (oranges, backgrounds)" {
		t.Fatalf("unexpected combined description %q", combined.Info.Description)
	}
	if len(combined.Images) != 3 || len(combined.Annotations) != 3 || len(combined.Categories) != 2 {
		t.Fatalf("unexpected combined document %+v", combined)
	}
}

func TestConverterSkipsCombinedForSingleCategory(t *testing.T) {
	fs := afero.NewMemMapFs()
	addImage(t, fs, dataset.NewLayout("/data", "oranges"), "o1.jpg", 2, 2)

	conv := NewConverter(fs, Options{
		Root:       "/data",
		Out:        "/out",
		Categories: []string{"oranges"},
		Splits:     []string{"val"},
		Combined:   true,
	}, logging.NewNop())
	report, err := conv.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Outputs) != 1 || report.Skipped() {
		t.Fatalf("unexpected report %+v", report)
	}
	if ok, _ := afero.Exists(fs, "/out/combined_instances_val.json"); ok {
		t.Fatal("combined export needs at least two categories")
	}
}
