package tone

import (
	"fmt"
	"image"

	"github.com/ayusman/skintone/internal/palette"
	"github.com/ayusman/skintone/internal/report"
)

// ReportKeyFace is the ReportImages key of the annotated face image.
const ReportKeyFace = "face"

// Swatch is a color plus a display weight.
type Swatch = palette.Swatch

// Status describes how an analysis ended.
type Status string

// Analysis statuses.
const (
	StatusOK       Status = "ok"
	StatusNoFace   Status = "no_face"
	StatusDegraded Status = "degraded"
)

// FaceEntry is the estimate for one detected face.
type FaceEntry struct {
	FaceID         int      `json:"face_id"`
	SkinTone       string   `json:"skin_tone"`
	DominantColors []Swatch `json:"dominant_colors"`
}

// Result is the flattened analysis payload. It marshals to
// {"faces": [...]}; report images are decoded buffers and are left out of
// JSON, use EncodeReportImages to serialize them.
type Result struct {
	Faces        []FaceEntry            `json:"faces"`
	ReportImages map[string]image.Image `json:"-"`

	status Status
}

// Status reports whether a face was measured, none was found, or the
// analysis fell back to the constant degraded payload.
func (r Result) Status() Status {
	return r.status
}

// EncodeReportImages PNG-encodes every report image. It returns nil when
// there are none.
func (r Result) EncodeReportImages() (map[string][]byte, error) {
	if len(r.ReportImages) == 0 {
		return nil, nil
	}

	out := make(map[string][]byte, len(r.ReportImages))
	for key, img := range r.ReportImages {
		data, err := report.EncodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("report image %q: %w", key, err)
		}
		out[key] = data
	}
	return out, nil
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeNoFace
	outcomeDegraded
)

// outcome is the internal result of one analysis before flattening.
type outcome struct {
	kind   outcomeKind
	face   FaceEntry
	report image.Image
	reason error
}

func okOutcome(face FaceEntry, reportImage image.Image) outcome {
	return outcome{kind: outcomeOK, face: face, report: reportImage}
}

func noFaceOutcome() outcome {
	return outcome{kind: outcomeNoFace}
}

func degradedOutcome(reason error) outcome {
	return outcome{kind: outcomeDegraded, reason: reason}
}

// flatten converts the outcome into the externally visible payload.
func (o outcome) flatten() Result {
	switch o.kind {
	case outcomeOK:
		r := Result{Faces: []FaceEntry{o.face}, status: StatusOK}
		if o.report != nil {
			r.ReportImages = map[string]image.Image{ReportKeyFace: o.report}
		}
		return r
	case outcomeNoFace:
		return Result{Faces: []FaceEntry{}, status: StatusNoFace}
	default:
		return Result{
			Faces: []FaceEntry{{
				FaceID:         0,
				SkinTone:       palette.DegradedTone,
				DominantColors: palette.Degraded(),
			}},
			status: StatusDegraded,
		}
	}
}
