package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// MsgCouldNotCheck is the message for any image whose size could not be
// determined.  Such images never meet the requirement.
const MsgCouldNotCheck = "could not check resolution"

// Resolution is the outcome of a check.  Width and Height are zero when
// the size is unknown.
type Resolution struct {
	Meets   bool   `json:"meets_requirement"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Message string `json:"message"`
}

// ResolutionChecker reports whether an uploaded image is large enough to
// print.  PNG, JPEG and GIF headers are read locally; other formats are
// measured by the model.
type ResolutionChecker struct {
	gen     Generator
	timeout time.Duration
	log     *zap.Logger
}

func NewResolutionChecker(gen Generator, timeout time.Duration, log *zap.Logger) *ResolutionChecker {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResolutionChecker{gen: gen, timeout: timeout, log: log}
}

var dimensionsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"width":  {Type: genai.TypeInteger, Description: "image width in pixels"},
		"height": {Type: genai.TypeInteger, Description: "image height in pixels"},
	},
	Required: []string{"width", "height"},
}

const dimensionsPrompt = "Report the pixel dimensions of the attached image. " +
	"Answer only with its width and height in pixels."

// Check measures img and compares it with the minimum size.  The verdict
// and message are always computed here from the measured size, never
// taken from the model.
func (r *ResolutionChecker) Check(ctx context.Context, img []byte, mime string, minW, minH int) Resolution {
	if len(img) == 0 {
		return Resolution{Message: "no image provided"}
	}
	w, h, err := r.measure(ctx, img, mime)
	if err != nil {
		r.log.Warn("resolution check failed", zap.String("mime", mime), zap.Error(err))
		return Resolution{Message: MsgCouldNotCheck}
	}
	return judge(w, h, minW, minH)
}

func (r *ResolutionChecker) measure(ctx context.Context, img []byte, mime string) (int, int, error) {
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(img)); err == nil {
		return cfg.Width, cfg.Height, nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	raw, err := r.gen.Generate(ctx, Request{Prompt: dimensionsPrompt, Image: img, ImageMIME: mime, Schema: dimensionsSchema})
	if err != nil {
		return 0, 0, err
	}
	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.Unmarshal([]byte(raw), &dims); err != nil {
		return 0, 0, fmt.Errorf("parse model answer: %w", err)
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		return 0, 0, fmt.Errorf("model reported %dx%d", dims.Width, dims.Height)
	}
	return dims.Width, dims.Height, nil
}

func judge(w, h, minW, minH int) Resolution {
	res := Resolution{Width: w, Height: h}
	var short []string
	if w < minW {
		short = append(short, fmt.Sprintf("width is %dpx, %dpx short of the %dpx minimum", w, minW-w, minW))
	}
	if h < minH {
		short = append(short, fmt.Sprintf("height is %dpx, %dpx short of the %dpx minimum", h, minH-h, minH))
	}
	if len(short) == 0 {
		res.Meets = true
		res.Message = fmt.Sprintf("Image is %dx%d and meets the %dx%d minimum.", w, h, minW, minH)
		return res
	}
	res.Message = fmt.Sprintf("Image is %dx%d: %s.", w, h, strings.Join(short, " and "))
	return res
}
