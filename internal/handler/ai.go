package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/ai"
	"github.com/iliyamo/stickerverse/internal/logging"
)

// maxImageBytes caps uploads to the resolution check.
const maxImageBytes = 10 << 20

// ResolutionService is *ai.ResolutionChecker.
type ResolutionService interface {
	Check(ctx context.Context, img []byte, mime string, minW, minH int) ai.Resolution
}

// RecommendService is *ai.Recommender.
type RecommendService interface {
	Recommend(ctx context.Context, names []string) []ai.Suggestion
}

// AIHandler exposes the two model-backed helpers.  Neither ever answers
// with a server error: failures come back as their safe defaults.
type AIHandler struct {
	Resolution ResolutionService
	Recommend  RecommendService
	Log        *zap.Logger
}

func NewAIHandler(res ResolutionService, rec RecommendService, log *zap.Logger) *AIHandler {
	return &AIHandler{Resolution: res, Recommend: rec, Log: logging.OrNop(log)}
}

// CheckResolution: POST /v1/ai/resolution-check, multipart form with
// image, min_width and min_height.
func (h *AIHandler) CheckResolution(c echo.Context) error {
	minW, err := positiveInt(c.FormValue("min_width"))
	if err != nil {
		return badRequest(c, "min_width must be a positive integer")
	}
	minH, err := positiveInt(c.FormValue("min_height"))
	if err != nil {
		return badRequest(c, "min_height must be a positive integer")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image file is required")
	}
	if fh.Size > maxImageBytes {
		return badRequest(c, "image is larger than 10 MiB")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "could not read image")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		return badRequest(c, "could not read image")
	}

	mime := fh.Header.Get(echo.HeaderContentType)
	if mime == "" || mime == echo.MIMEOctetStream {
		mime = http.DetectContentType(data)
	}
	return c.JSON(http.StatusOK, h.Resolution.Check(c.Request().Context(), data, mime, minW, minH))
}

type recommendReq struct {
	Names []string `json:"names"`
}

// Recommendations: POST /v1/ai/recommendations {"names": [...]}
func (h *AIHandler) Recommendations(c echo.Context) error {
	var req recommendReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	items := h.Recommend.Recommend(c.Request().Context(), req.Names)
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
