package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"

	"docuscan/constants"
	"docuscan/internal/common"
)

// CloudConfig configures the hosted vision backend.
type CloudConfig struct {
	Endpoint string
	APIKey   string
}

// Cloud recognizes text through the Azure Computer Vision OCR API. It fails
// closed: every credential, network, or service error is reported as
// common.ErrBackendUnavailable so the selector can route to the local engine;
// nothing from this backend is ever fatal for the pipeline.
type Cloud struct {
	cfg    CloudConfig
	logger *slog.Logger

	initOnce sync.Once
	client   *computervision.BaseClient
}

func NewCloud(cfg CloudConfig, logger *slog.Logger) *Cloud {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloud{cfg: cfg, logger: logger}
}

func (c *Cloud) Name() string { return constants.EngineAzureVision }

func (c *Cloud) init() *computervision.BaseClient {
	c.initOnce.Do(func() {
		client := computervision.New(c.cfg.Endpoint)
		client.Authorizer = autorest.NewCognitiveServicesAuthorizer(c.cfg.APIKey)
		c.client = &client
	})
	return c.client
}

// Recognize uploads the image and maps the service's region/line/word layout
// to tokens. The API reports no per-word confidence, so each token carries the
// aggregate heuristic score of the recognized text.
func (c *Cloud) Recognize(ctx context.Context, imagePath string) (Result, error) {
	if c.cfg.Endpoint == "" || c.cfg.APIKey == "" {
		return Result{}, fmt.Errorf("%w: cloud vision not configured", common.ErrBackendUnavailable)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return Result{}, fmt.Errorf("read image: %w", err)
	}

	client := c.init()
	ocrResult, err := client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(data)),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		c.logger.Warn("cloud ocr failed", "error", err)
		return Result{}, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	tokens := tokensFromOCRResult(ocrResult)
	if len(tokens) == 0 {
		return Result{}, nil
	}

	// Single aggregate score applied uniformly across the tokens.
	var joined strings.Builder
	for i, t := range tokens {
		if i > 0 {
			joined.WriteByte(' ')
		}
		joined.WriteString(t.Text)
	}
	conf := heuristicConfidence(joined.String())
	for i := range tokens {
		tokens[i].Confidence = conf
	}

	c.logger.Debug("cloud ocr done", "path", imagePath, "tokens", len(tokens), "confidence", conf)
	return Result{Tokens: tokens, Confidence: conf}, nil
}

// tokensFromOCRResult flattens the region/line/word hierarchy into word
// tokens. Each word inherits the vertical midpoint of its line's bounding box
// ("x,y,width,height" per the API).
func tokensFromOCRResult(result computervision.OcrResult) []Token {
	var tokens []Token
	if result.Regions == nil {
		return nil
	}
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			y, ok := lineMidpoint(line.BoundingBox)
			if !ok || line.Words == nil {
				continue
			}
			for _, word := range *line.Words {
				if word.Text == nil || strings.TrimSpace(*word.Text) == "" {
					continue
				}
				tokens = append(tokens, Token{Text: strings.TrimSpace(*word.Text), Y: y})
			}
		}
	}
	return tokens
}

func lineMidpoint(boundingBox *string) (float64, bool) {
	if boundingBox == nil {
		return 0, false
	}
	parts := strings.Split(*boundingBox, ",")
	if len(parts) < 4 {
		return 0, false
	}
	y, err1 := strconv.Atoi(parts[1])
	h, err2 := strconv.Atoi(parts[3])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return float64(y) + float64(h)/2, true
}
