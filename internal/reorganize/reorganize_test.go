package reorganize_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"cocoprep/internal/dataset"
	"cocoprep/internal/logging"
	"cocoprep/internal/reorganize"
	"cocoprep/internal/testsupport"
)

const srcDir = "/data/Orange_raw"

func newFixture(t *testing.T) (afero.Fs, reorganize.Source, dataset.Layout) {
	t.Helper()
	fs := afero.NewMemMapFs()
	raw := filepath.Join(srcDir, "without_augmentation")

	testsupport.WriteFile(t, fs, filepath.Join(raw, "img_001.JPG"), testsupport.JPEG(t, 8, 6))
	testsupport.WriteFile(t, fs, filepath.Join(raw, "img_001.json"), testsupport.AnnotationJSON(t, "CREC_HLB_1.JPG",
		testsupport.Box{BBox: [4]float64{1, 2.5, 3, 4}, CategoryID: 3},
		testsupport.Box{BBox: [4]float64{0.1, 0, 2, 2}, CategoryID: 0},
		testsupport.Box{BBox: [4]float64{5, 5, 1, 1}, CategoryID: 1},
	))
	testsupport.WriteFile(t, fs, filepath.Join(raw, "img_002.png"), testsupport.PNG(t, 4, 4))
	testsupport.WriteFile(t, fs, filepath.Join(raw, "img_002.png.json"), testsupport.AnnotationJSON(t, "b.png"))
	testsupport.WriteFile(t, fs, filepath.Join(raw, "img_003.jpg"), testsupport.JPEG(t, 4, 4))
	testsupport.WriteFile(t, fs, filepath.Join(raw, "img_004.jpg"), testsupport.JPEG(t, 4, 4))
	testsupport.WriteFile(t, fs, filepath.Join(raw, "img_004.json"), []byte("{not json"))
	testsupport.WriteFile(t, fs, filepath.Join(raw, "readme.txt"), []byte("ignore me"))
	testsupport.WriteFile(t, fs, filepath.Join(srcDir, "top_level.jpg"), testsupport.JPEG(t, 4, 4))

	src := reorganize.Source{Category: "oranges", Dir: srcDir, Subdir: "without_augmentation"}
	return fs, src, dataset.NewLayout("/data", "oranges")
}

func TestCategoryBuildsLayout(t *testing.T) {
	fs, src, layout := newFixture(t)
	r := reorganize.New(fs, nil, logging.NewNop())

	result, err := r.Category(context.Background(), src, layout)
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	want := reorganize.Result{
		Category:    "oranges",
		SourceDir:   filepath.Join(srcDir, "without_augmentation"),
		Images:      4,
		WithJSON:    3,
		WithoutJSON: 1,
		Malformed:   1,
		Boxes:       3,
	}
	if result != want {
		t.Fatalf("unexpected result\n got %+v\nwant %+v", result, want)
	}

	images, err := dataset.ListImageFiles(fs, layout.ImagesDir(), dataset.DefaultImageExtensions)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(images, []string{"img_001.JPG", "img_002.png", "img_003.jpg", "img_004.jpg"}) {
		t.Fatalf("unexpected images %v", images)
	}

	csv := string(testsupport.ReadFile(t, fs, layout.CSVPath("img_001")))
	wantCSV := "#item,x,y,width,height,label\n0,1,2.5,3,4,1\n1,0.1,0,2,2,0\n2,5,5,1,1,1\n"
	if csv != wantCSV {
		t.Fatalf("unexpected csv:\n%s", csv)
	}
	for _, stem := range []string{"img_002", "img_003", "img_004"} {
		got := string(testsupport.ReadFile(t, fs, layout.CSVPath(stem)))
		if got != "#item,x,y,width,height,label\n" {
			t.Fatalf("expected header-only csv for %s, got %q", stem, got)
		}
	}

	// <filename>.json is stored under the stem; malformed JSON is still copied.
	for _, stem := range []string{"img_001", "img_002", "img_004"} {
		if ok, _ := afero.Exists(fs, layout.JSONPath(stem)); !ok {
			t.Fatalf("expected json copy for %s", stem)
		}
	}
	if ok, _ := afero.Exists(fs, layout.JSONPath("img_003")); ok {
		t.Fatal("no json expected for img_003")
	}
	if ok, _ := afero.Exists(fs, filepath.Join(layout.ImagesDir(), "top_level.jpg")); ok {
		t.Fatal("files outside the subdir must not be copied")
	}

	original := testsupport.ReadFile(t, fs, filepath.Join(srcDir, "without_augmentation", "img_001.JPG"))
	copied := testsupport.ReadFile(t, fs, filepath.Join(layout.ImagesDir(), "img_001.JPG"))
	if !bytes.Equal(original, copied) {
		t.Fatal("image copy differs from source")
	}

	entries, err := dataset.ReadLabelmap(fs, layout)
	if err != nil {
		t.Fatalf("ReadLabelmap: %v", err)
	}
	if entries[0].ObjectName != "background" || entries[1].ObjectName != "orange" {
		t.Fatalf("unexpected labelmap %+v", entries)
	}

	all, _, err := dataset.ReadSplitList(fs, layout.SplitPath(dataset.SplitAll))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(all, []string{"img_001", "img_002", "img_003", "img_004"}) {
		t.Fatalf("unexpected all.txt %v", all)
	}
}

func TestCategoryIsIdempotent(t *testing.T) {
	fs, src, layout := newFixture(t)
	r := reorganize.New(fs, nil, logging.NewNop())
	ctx := context.Background()

	if _, err := r.Category(ctx, src, layout); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := snapshot(t, fs, layout.Dir())

	if _, err := r.Category(ctx, src, layout); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := snapshot(t, fs, layout.Dir())

	if !reflect.DeepEqual(first, second) {
		t.Fatal("second run changed the layout")
	}
}

func TestCategoryFallsBackToDirWithoutSubdir(t *testing.T) {
	fs := afero.NewMemMapFs()
	testsupport.WriteFile(t, fs, "/data/bg_raw/a.jpg", testsupport.JPEG(t, 2, 2))
	r := reorganize.New(fs, nil, logging.NewNop())

	src := reorganize.Source{Category: "backgrounds", Dir: "/data/bg_raw", Subdir: "without_augmentation"}
	result, err := r.Category(context.Background(), src, dataset.NewLayout("/data", "backgrounds"))
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if result.SourceDir != "/data/bg_raw" || result.Images != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCategoryMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := reorganize.New(fs, nil, logging.NewNop())
	layout := dataset.NewLayout("/data", "oranges")

	result, err := r.Category(context.Background(), reorganize.Source{Category: "oranges", Dir: "/nope"}, layout)
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if !result.Missing {
		t.Fatalf("expected Missing, got %+v", result)
	}
	if ok, _ := afero.DirExists(fs, layout.Dir()); ok {
		t.Fatal("missing source must not create the layout")
	}
}

func TestCategoryHonoursCancellation(t *testing.T) {
	fs, src, layout := newFixture(t)
	r := reorganize.New(fs, nil, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Category(ctx, src, layout); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestSeedSplitsRoutesByPattern(t *testing.T) {
	fs := afero.NewMemMapFs()
	testsupport.WriteFile(t, fs, "/data/all/train.txt", []byte(strings.Join([]string{
		"CREC_HLB_1.JPG",
		"leaf_bg_1.jpg",
		"image (3).JPG",
		"UF.Citrus_HLB_9.jpg",
		"",
	}, "\n")))
	testsupport.WriteFile(t, fs, "/data/all/val.txt", []byte("bg_only.jpg\n"))

	oranges := dataset.NewLayout("/data", "oranges")
	backgrounds := dataset.NewLayout("/data", "backgrounds")
	routes := []reorganize.Route{
		{Category: "oranges", Patterns: []string{"CREC_HLB", "UF.Citrus_HLB", "image ("}},
		{Category: "backgrounds"},
	}
	r := reorganize.New(fs, nil, logging.NewNop())
	result, err := r.SeedSplits(context.Background(), "/data/all", []string{"train", "val", "test"}, routes,
		map[string]dataset.Layout{"oranges": oranges, "backgrounds": backgrounds})
	if err != nil {
		t.Fatalf("SeedSplits: %v", err)
	}

	train, _, _ := dataset.ReadSplitList(fs, oranges.SplitPath("train"))
	if !reflect.DeepEqual(train, []string{"CREC_HLB_1", "image (3)", "UF.Citrus_HLB_9"}) {
		t.Fatalf("unexpected oranges train %v", train)
	}
	bgTrain, _, _ := dataset.ReadSplitList(fs, backgrounds.SplitPath("train"))
	if !reflect.DeepEqual(bgTrain, []string{"leaf_bg_1"}) {
		t.Fatalf("unexpected backgrounds train %v", bgTrain)
	}
	if _, exists, _ := dataset.ReadSplitList(fs, oranges.SplitPath("val")); exists {
		t.Fatal("oranges received no val entries and must not get a val file")
	}
	if !reflect.DeepEqual(result.MissingSplits, []string{"test"}) {
		t.Fatalf("unexpected missing splits %v", result.MissingSplits)
	}
	if len(result.Counts) != 3 {
		t.Fatalf("unexpected counts %+v", result.Counts)
	}
}

func TestClassifyWithoutFallback(t *testing.T) {
	routes := []reorganize.Route{{Category: "oranges", Patterns: []string{"HLB"}}}
	if got := reorganize.Classify(routes, "HLB_1.jpg"); got != "oranges" {
		t.Fatalf("got %q", got)
	}
	if got := reorganize.Classify(routes, "leaf.jpg"); got != "" {
		t.Fatalf("expected no category, got %q", got)
	}
}

func snapshot(t *testing.T, fs afero.Fs, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			data, readErr := afero.ReadFile(fs, path)
			if readErr != nil {
				return readErr
			}
			files[path] = string(data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return files
}
