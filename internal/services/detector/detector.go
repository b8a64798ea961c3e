package detector

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"sentinel-core-go/internal/models"
)

// Detector wraps one pretrained ONNX object-detection model behind a
// uniform predict contract. The four detection kinds differ only in
// model artifact and default tuning, so there is a single Detector type
// parameterized by model path, name and class labels.
type Detector struct {
	Key         string
	Name        string
	ModelPath   string
	Classes     []string
	Description string

	mu      sync.Mutex
	net     gocv.Net
	loaded  bool
	loadErr error
}

// NewDetector creates a detector; the model is loaded lazily on first
// Predict and cached for the detector's lifetime.
func NewDetector(key, name, modelPath, description string, classes []string) *Detector {
	return &Detector{
		Key:         key,
		Name:        name,
		ModelPath:   modelPath,
		Classes:     classes,
		Description: description,
	}
}

// Info returns model metadata for introspection and UI use
func (d *Detector) Info() models.ModelInfo {
	return models.ModelInfo{
		Key:         d.Key,
		Name:        d.Name,
		Path:        d.ModelPath,
		Classes:     d.Classes,
		Description: d.Description,
	}
}

// load reads the network on first use. A failed load is cached: the
// detector is dead, everything else keeps running.
func (d *Detector) load() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return d.loadErr
	}
	d.loaded = true

	if _, err := os.Stat(d.ModelPath); err != nil {
		d.loadErr = fmt.Errorf("model file not found: %s", d.ModelPath)
		log.Error().Str("detector", d.Key).Str("path", d.ModelPath).Msg("Model file not found")
		return d.loadErr
	}

	net := gocv.ReadNetFromONNX(d.ModelPath)
	if net.Empty() {
		d.loadErr = fmt.Errorf("failed to load model: %s", d.ModelPath)
		log.Error().Str("detector", d.Key).Str("path", d.ModelPath).Msg("Failed to load model")
		return d.loadErr
	}

	d.net = net
	log.Info().Str("detector", d.Key).Str("path", d.ModelPath).Msg("Model loaded")
	return nil
}

// Predict runs the model over one frame and returns an annotated copy of
// the frame plus the surviving detections. The caller owns Close on the
// returned Mat.
func (d *Detector) Predict(frame gocv.Mat, confThreshold, iouThreshold float64, imageSize int) (gocv.Mat, []models.Detection, error) {
	if err := d.load(); err != nil {
		return gocv.Mat{}, nil, err
	}
	if frame.Empty() {
		return gocv.Mat{}, nil, fmt.Errorf("empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(imageSize, imageSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	detections := d.decode(output, frame.Cols(), frame.Rows(),
		float32(confThreshold), float32(iouThreshold), imageSize)

	annotated := frame.Clone()
	for _, det := range detections {
		drawDetection(&annotated, det)
	}
	return annotated, detections, nil
}

// decode parses YOLO-style rows [cx, cy, w, h, obj, class scores...],
// rescales boxes to the source frame and applies non-maximum suppression.
func (d *Detector) decode(output gocv.Mat, frameW, frameH int, confThreshold, iouThreshold float32, imageSize int) []models.Detection {
	stride := 5 + len(d.Classes)
	total := output.Total()
	if stride == 0 || total < stride {
		return nil
	}
	rows := total / stride
	data := output.Reshape(1, rows)
	defer data.Close()

	xFactor := float32(frameW) / float32(imageSize)
	yFactor := float32(frameH) / float32(imageSize)

	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int

	for r := 0; r < rows; r++ {
		objectness := data.GetFloatAt(r, 4)
		if objectness < confThreshold {
			continue
		}

		bestClass, bestScore := 0, float32(0)
		for c := 0; c < len(d.Classes); c++ {
			if score := data.GetFloatAt(r, 5+c); score > bestScore {
				bestScore = score
				bestClass = c
			}
		}

		confidence := objectness * bestScore
		if confidence < confThreshold {
			continue
		}

		cx := data.GetFloatAt(r, 0) * xFactor
		cy := data.GetFloatAt(r, 1) * yFactor
		w := data.GetFloatAt(r, 2) * xFactor
		h := data.GetFloatAt(r, 3) * yFactor

		rect := image.Rect(
			int(cx-w/2), int(cy-h/2),
			int(cx+w/2), int(cy+h/2),
		)
		boxes = append(boxes, rect)
		scores = append(scores, confidence)
		classIDs = append(classIDs, bestClass)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, scores, confThreshold, iouThreshold)
	detections := make([]models.Detection, 0, len(indices))
	for _, idx := range indices {
		detections = append(detections, models.Detection{
			Box:        boxes[idx],
			Confidence: float64(scores[idx]),
			Label:      d.Classes[classIDs[idx]],
		})
	}
	return detections
}

// Close releases the loaded network, if any
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded && d.loadErr == nil {
		d.net.Close()
		d.loaded = false
	}
}

var boxColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}

func drawDetection(img *gocv.Mat, det models.Detection) {
	gocv.Rectangle(img, det.Box, boxColor, 2)
	label := fmt.Sprintf("%s %.2f", det.Label, det.Confidence)
	origin := image.Pt(det.Box.Min.X, det.Box.Min.Y-6)
	if origin.Y < 12 {
		origin.Y = det.Box.Min.Y + 16
	}
	gocv.PutText(img, label, origin, gocv.FontHersheySimplex, 0.55, boxColor, 2)
}
