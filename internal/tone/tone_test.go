package tone

import (
	"encoding/json"
	"errors"
	"image"
	"path/filepath"
	"reflect"
	"regexp"
	"sync"
	"testing"

	"github.com/ayusman/skintone/internal/detector"
	"github.com/ayusman/skintone/internal/fixtures"
	"github.com/ayusman/skintone/internal/palette"
)

var hexPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// faceRect is where the skin patch is painted in the standard fixture.
var faceRect = image.Rect(30, 20, 90, 80)

// withMock returns an Estimator whose detector is m.
func withMock(m *detector.MockDetector) *Estimator {
	return New(DefaultConfig(), WithDetectorFactory(func(detector.Config) (detector.Detector, error) {
		return m, nil
	}))
}

// skinPhoto writes a 120x100 blue photo with a skin-colored face patch.
func skinPhoto(t *testing.T) string {
	t.Helper()
	img := fixtures.WithPatch(120, 100, fixtures.Blue, fixtures.Skin, faceRect)
	path, err := fixtures.Save(t.TempDir(), "face.png", img)
	if err != nil {
		t.Fatalf("fixtures.Save() error = %v", err)
	}
	return path
}

func assertDegraded(t *testing.T, r Result) {
	t.Helper()

	if r.Status() != StatusDegraded {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusDegraded)
	}
	if r.ReportImages != nil {
		t.Error("degraded result should not carry report images")
	}
	if len(r.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(r.Faces))
	}

	face := r.Faces[0]
	if face.FaceID != 0 {
		t.Errorf("FaceID = %d, want 0", face.FaceID)
	}
	if face.SkinTone != "#E6B76D" {
		t.Errorf("SkinTone = %s, want #E6B76D", face.SkinTone)
	}
	want := []Swatch{
		{Color: "#E6B76D", Percent: 0.6},
		{Color: "#D99559", Percent: 0.25},
		{Color: "#C27A46", Percent: 0.15},
	}
	if !reflect.DeepEqual(face.DominantColors, want) {
		t.Errorf("DominantColors = %+v, want %+v", face.DominantColors, want)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.TonePalette != PalettePerla {
		t.Errorf("TonePalette = %q, want %q", opts.TonePalette, PalettePerla)
	}
	if opts.NDominantColors != 3 {
		t.Errorf("NDominantColors = %d, want 3", opts.NDominantColors)
	}
	if opts.ReturnReportImage {
		t.Error("ReturnReportImage should default to false")
	}
}

func TestKnownPalette(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{PalettePerla, true},
		{PaletteYadonOstfeld, true},
		{PaletteProder, true},
		{PaletteDefault, true},
		{"sepia", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := KnownPalette(tt.name); got != tt.want {
			t.Errorf("KnownPalette(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAnalyze_MissingFile(t *testing.T) {
	m := detector.NewMockDetector(faceRect)
	e := withMock(m)

	for _, report := range []bool{false, true} {
		r := e.Analyze(filepath.Join(t.TempDir(), "missing.jpg"), Options{ReturnReportImage: report})
		assertDegraded(t, r)
	}

	if m.Calls() != 0 {
		t.Errorf("detector should not run for a missing file, got %d calls", m.Calls())
	}
}

func TestAnalyze_PackageLevel_MissingFile(t *testing.T) {
	r := Analyze(filepath.Join(t.TempDir(), "missing.png"), PalettePerla, 3, true)
	assertDegraded(t, r)
}

func TestAnalyze_CorruptFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path, err := fixtures.SaveCorrupt(t.TempDir(), "corrupt.jpg")
	if err != nil {
		t.Fatalf("fixtures.SaveCorrupt() error = %v", err)
	}

	r := withMock(detector.NewMockDetector(faceRect)).Analyze(path, DefaultOptions())
	assertDegraded(t, r)
}

func TestAnalyze_NoFace(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path := skinPhoto(t)
	m := detector.NewMockDetector()

	for _, report := range []bool{false, true} {
		r := withMock(m).Analyze(path, Options{ReturnReportImage: report})

		if r.Status() != StatusNoFace {
			t.Errorf("Status() = %q, want %q", r.Status(), StatusNoFace)
		}
		if r.Faces == nil || len(r.Faces) != 0 {
			t.Errorf("Faces = %#v, want empty non-nil slice", r.Faces)
		}
		if r.ReportImages != nil {
			t.Error("no-face result should not carry report images")
		}

		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		if string(data) != `{"faces":[]}` {
			t.Errorf("JSON = %s, want {\"faces\":[]}", data)
		}
	}
}

func TestAnalyze_FaceWithSkin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path := skinPhoto(t)
	m := detector.NewMockDetector(faceRect)
	r := withMock(m).Analyze(path, DefaultOptions())

	if r.Status() != StatusOK {
		t.Fatalf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if len(r.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(r.Faces))
	}

	face := r.Faces[0]
	if face.FaceID != 0 {
		t.Errorf("FaceID = %d, want 0", face.FaceID)
	}
	if !hexPattern.MatchString(face.SkinTone) {
		t.Errorf("SkinTone %q is not lowercase #rrggbb", face.SkinTone)
	}
	if face.SkinTone != "#c89678" {
		t.Errorf("SkinTone = %s, want #c89678", face.SkinTone)
	}

	want := []Swatch{
		{Color: "#c89678", Percent: 0.6},
		{Color: "#a07860", Percent: 0.25},
		{Color: "#f0b490", Percent: 0.15},
	}
	if !reflect.DeepEqual(face.DominantColors, want) {
		t.Errorf("DominantColors = %+v, want %+v", face.DominantColors, want)
	}

	for _, s := range face.DominantColors {
		if !hexPattern.MatchString(s.Color) {
			t.Errorf("swatch color %q is not lowercase #rrggbb", s.Color)
		}
	}

	if r.ReportImages != nil {
		t.Error("report images should be absent when not requested")
	}
	if !m.Closed() {
		t.Error("detector should be closed after the call")
	}
}

func TestAnalyze_SwatchOrdering(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	r := withMock(detector.NewMockDetector(faceRect)).Analyze(skinPhoto(t), DefaultOptions())
	colors := r.Faces[0].DominantColors

	base, _ := palette.ParseHex(colors[0].Color)
	darker, _ := palette.ParseHex(colors[1].Color)
	lighter, _ := palette.ParseHex(colors[2].Color)

	if darker.R > base.R || darker.G > base.G || darker.B > base.B {
		t.Errorf("darker %+v exceeds base %+v", darker, base)
	}
	if lighter.R < base.R || lighter.G < base.G || lighter.B < base.B {
		t.Errorf("lighter %+v below base %+v", lighter, base)
	}
}

func TestAnalyze_NoSkinPixels(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path, err := fixtures.Save(t.TempDir(), "blue.png", fixtures.Solid(100, 100, fixtures.Blue))
	if err != nil {
		t.Fatalf("fixtures.Save() error = %v", err)
	}

	r := withMock(detector.NewMockDetector(image.Rect(10, 10, 60, 60))).Analyze(path, DefaultOptions())

	if r.Status() != StatusOK {
		t.Fatalf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	face := r.Faces[0]
	if face.SkinTone != "#d2aa78" {
		t.Errorf("SkinTone = %s, want #d2aa78", face.SkinTone)
	}
	if !reflect.DeepEqual(face.DominantColors, palette.Derive(palette.DefaultSample)) {
		t.Errorf("DominantColors = %+v, want swatches of the default sample", face.DominantColors)
	}
}

func TestAnalyze_FirstFaceOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	// The first rectangle covers only blue background, the second the skin patch.
	m := detector.NewMockDetector(image.Rect(95, 80, 120, 100), faceRect)
	r := withMock(m).Analyze(skinPhoto(t), DefaultOptions())

	if len(r.Faces) != 1 {
		t.Fatalf("expected exactly 1 face entry, got %d", len(r.Faces))
	}
	if r.Faces[0].SkinTone != "#d2aa78" {
		t.Errorf("SkinTone = %s, want #d2aa78 from the first rectangle", r.Faces[0].SkinTone)
	}
}

func TestAnalyze_ReportImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path := skinPhoto(t)
	r := withMock(detector.NewMockDetector(faceRect)).Analyze(path, Options{ReturnReportImage: true})

	img, ok := r.ReportImages[ReportKeyFace]
	if !ok || img == nil {
		t.Fatal("expected report image under key \"face\"")
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 100 {
		t.Errorf("report dimensions = %dx%d, want 120x100", b.Dx(), b.Dy())
	}

	// The swatch square holds the base color.
	cr, cg, cb, _ := img.At(30, 30).RGBA()
	if uint8(cr>>8) != 200 || uint8(cg>>8) != 150 || uint8(cb>>8) != 120 {
		t.Errorf("swatch pixel = (%d,%d,%d), want (200,150,120)", cr>>8, cg>>8, cb>>8)
	}

	encoded, err := r.EncodeReportImages()
	if err != nil {
		t.Fatalf("EncodeReportImages() error = %v", err)
	}
	if len(encoded[ReportKeyFace]) == 0 {
		t.Error("expected PNG bytes for the face report")
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if _, ok := decoded["report_images"]; ok {
		t.Error("report images should not be serialized to JSON")
	}
}

func TestAnalyze_FaceClampedToBounds(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path := skinPhoto(t)

	t.Run("partially outside", func(t *testing.T) {
		m := detector.NewMockDetector(image.Rect(40, 30, 500, 500))
		r := withMock(m).Analyze(path, DefaultOptions())
		if r.Status() != StatusOK {
			t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
		}
		if r.Faces[0].SkinTone != "#c89678" {
			t.Errorf("SkinTone = %s, want #c89678", r.Faces[0].SkinTone)
		}
	})

	t.Run("fully outside", func(t *testing.T) {
		m := detector.NewMockDetector(image.Rect(400, 400, 500, 500))
		assertDegraded(t, withMock(m).Analyze(path, DefaultOptions()))
	})
}

func TestAnalyze_DetectorFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path := skinPhoto(t)

	t.Run("detect error", func(t *testing.T) {
		m := detector.NewMockDetector()
		m.SetError(errors.New("inference failed"))
		assertDegraded(t, withMock(m).Analyze(path, Options{ReturnReportImage: true}))
	})

	t.Run("factory error", func(t *testing.T) {
		e := New(DefaultConfig(), WithDetectorFactory(func(detector.Config) (detector.Detector, error) {
			return nil, detector.ErrCascadeNotFound
		}))
		assertDegraded(t, e.Analyze(path, DefaultOptions()))
	})

	t.Run("missing cascade", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Detector.CascadePath = filepath.Join(t.TempDir(), "missing.xml")
		assertDegraded(t, New(cfg).Analyze(path, DefaultOptions()))
	})

	t.Run("panic", func(t *testing.T) {
		e := New(DefaultConfig(), WithDetectorFactory(func(detector.Config) (detector.Detector, error) {
			panic("native library crashed")
		}))
		assertDegraded(t, e.Analyze(path, DefaultOptions()))
	})
}

func TestAnalyze_IgnoredOptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path := skinPhoto(t)
	e := withMock(detector.NewMockDetector(faceRect))
	base := e.Analyze(path, DefaultOptions())

	for _, opts := range []Options{
		{TonePalette: PaletteProder, NDominantColors: 7},
		{TonePalette: "unknown", NDominantColors: 0},
		{TonePalette: "", NDominantColors: -1},
	} {
		r := e.Analyze(path, opts)
		if !reflect.DeepEqual(r, base) {
			t.Errorf("options %+v changed the result: %+v vs %+v", opts, r, base)
		}
		if len(r.Faces[0].DominantColors) != 3 {
			t.Errorf("expected 3 swatches, got %d", len(r.Faces[0].DominantColors))
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path := skinPhoto(t)
	e := withMock(detector.NewMockDetector(faceRect))
	opts := Options{ReturnReportImage: true}

	first := e.Analyze(path, opts)
	second := e.Analyze(path, opts)

	if !reflect.DeepEqual(first, second) {
		t.Error("two calls with the same arguments returned different results")
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	path := skinPhoto(t)
	e := New(DefaultConfig(), WithDetectorFactory(func(detector.Config) (detector.Detector, error) {
		return detector.NewMockDetector(faceRect), nil
	}))

	var wg sync.WaitGroup
	results := make(chan Result, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- e.Analyze(path, DefaultOptions())
		}()
	}

	wg.Wait()
	close(results)

	for r := range results {
		if r.Status() != StatusOK || r.Faces[0].SkinTone != "#c89678" {
			t.Errorf("concurrent Analyze = %+v", r)
		}
	}
}

func TestAnalyze_HaarBlankPhoto(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}
	if _, err := detector.FindCascade("", detector.FrontalFaceCascade); err != nil {
		t.Skip("frontal face cascade not installed")
	}

	path, err := fixtures.Save(t.TempDir(), "gray.png", fixtures.Solid(200, 160, fixtures.Gray))
	if err != nil {
		t.Fatalf("fixtures.Save() error = %v", err)
	}

	r := New(DefaultConfig()).Analyze(path, DefaultOptions())
	if r.Status() != StatusNoFace {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusNoFace)
	}
}

func TestOutcome_Flatten(t *testing.T) {
	entry := FaceEntry{FaceID: 0, SkinTone: "#c89678", DominantColors: palette.Derive(palette.RGB{R: 200, G: 150, B: 120})}

	t.Run("ok without report", func(t *testing.T) {
		r := okOutcome(entry, nil).flatten()
		if r.Status() != StatusOK || len(r.Faces) != 1 || r.ReportImages != nil {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("ok with report", func(t *testing.T) {
		img := fixtures.Solid(4, 4, fixtures.Gray)
		r := okOutcome(entry, img).flatten()
		if r.ReportImages[ReportKeyFace] != img {
			t.Error("expected report image under key \"face\"")
		}
	})

	t.Run("no face", func(t *testing.T) {
		r := noFaceOutcome().flatten()
		if r.Status() != StatusNoFace || r.Faces == nil || len(r.Faces) != 0 {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		assertDegraded(t, degradedOutcome(errors.New("x")).flatten())
	})
}

func TestResult_JSON(t *testing.T) {
	r := okOutcome(FaceEntry{
		FaceID:         0,
		SkinTone:       "#d2aa78",
		DominantColors: palette.Derive(palette.DefaultSample),
	}, nil).flatten()

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	want := `{"faces":[{"face_id":0,"skin_tone":"#d2aa78","dominant_colors":[` +
		`{"color":"#d2aa78","percent":0.6},{"color":"#a88860","percent":0.25},{"color":"#fccc90","percent":0.15}]}]}`
	if string(data) != want {
		t.Errorf("JSON =\n%s\nwant\n%s", data, want)
	}
}

func TestResult_EncodeReportImages_None(t *testing.T) {
	encoded, err := noFaceOutcome().flatten().EncodeReportImages()
	if err != nil {
		t.Fatalf("EncodeReportImages() error = %v", err)
	}
	if encoded != nil {
		t.Errorf("expected nil map, got %v", encoded)
	}
}
