package boxcsv

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestEncodeCanonical(t *testing.T) {
	data, err := Encode([]Row{
		{Item: 0, Box: Box{X: 12.5, Y: 40, Width: 88, Height: 61}, Label: 1},
		{Item: 1, Box: Box{X: 0.1, Y: 1e-05, Width: 3, Height: 4}, Label: 0},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "#item,x,y,width,height,label\n0,12.5,40,88,61,1\n1,0.1,0.00001,3,4,0\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}

	empty, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil): %v", err)
	}
	if string(empty) != Header+"\n" {
		t.Fatalf("unexpected header-only output %q", empty)
	}
}

func TestRoundTripExact(t *testing.T) {
	boxes := []Box{
		{X: 0.1, Y: 0.2, Width: 1.0 / 3.0, Height: 123456.789},
		{X: 1e-9, Y: 3, Width: 2.220446049250313e-16, Height: 7},
	}
	rows := make([]Row, len(boxes))
	for i, b := range boxes {
		rows[i] = Row{Item: i, Box: b, Label: 1}
	}
	fs := afero.NewMemMapFs()
	if err := WriteFile(fs, "/csv/a.csv", rows); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	result, err := ReadFile(fs, "/csv/a.csv")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(result.Boxes, boxes) {
		t.Fatalf("round trip mismatch: got %+v want %+v", result.Boxes, boxes)
	}
	if result.Skipped != 0 {
		t.Fatalf("unexpected skipped rows %d", result.Skipped)
	}
}

func TestReadSynonymsAndCase(t *testing.T) {
	input := "Item,XC,Y_Center,DX,H\n0,1,2,3,4\n1,5,6,7,8\n"
	result, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []Box{{X: 1, Y: 2, Width: 3, Height: 4}, {X: 5, Y: 6, Width: 7, Height: 8}}
	if !reflect.DeepEqual(result.Boxes, want) {
		t.Fatalf("got %+v want %+v", result.Boxes, want)
	}
}

func TestReadFallsThroughUnparseableSynonym(t *testing.T) {
	input := "x,xc,y,width,height\nbad,9,1,2,3\n"
	result, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(result.Boxes) != 1 || result.Boxes[0].X != 9 {
		t.Fatalf("expected xc fallback, got %+v", result.Boxes)
	}
}

func TestReadSkipsIncompleteRows(t *testing.T) {
	input := strings.Join([]string{
		"#item,x,y,width,height,label",
		"0,1,2,3,4,1",
		"1,,2,3,4,1",
		"2,1,2,abc,4,1",
		"3,1,2",
		"4,NaN,2,3,4,1",
		"5, 6 ,7,8,9,1",
	}, "\n") + "\n"
	result, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []Box{{X: 1, Y: 2, Width: 3, Height: 4}, {X: 6, Y: 7, Width: 8, Height: 9}}
	if !reflect.DeepEqual(result.Boxes, want) {
		t.Fatalf("got %+v want %+v", result.Boxes, want)
	}
	if result.Skipped != 4 {
		t.Fatalf("expected 4 skipped rows, got %d", result.Skipped)
	}
}

func TestReadEmptyAndMissing(t *testing.T) {
	result, err := Read(strings.NewReader(""))
	if err != nil || len(result.Boxes) != 0 {
		t.Fatalf("empty input: %+v %v", result, err)
	}
	result, err = Read(strings.NewReader(Header + "\n"))
	if err != nil || len(result.Boxes) != 0 {
		t.Fatalf("header only: %+v %v", result, err)
	}
	result, err = ReadFile(afero.NewMemMapFs(), "/missing.csv")
	if err != nil || len(result.Boxes) != 0 {
		t.Fatalf("missing file: %+v %v", result, err)
	}
}

func TestBoxArea(t *testing.T) {
	if got := (Box{Width: 2.5, Height: 4}).Area(); got != 10 {
		t.Fatalf("Area = %v", got)
	}
}
