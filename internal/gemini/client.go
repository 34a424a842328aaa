package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
	DefaultTextModel  = "gemini-1.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	textModel  string
	imageModel string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = DefaultTextModel
	}

	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = DefaultImageModel
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		apiVersion: apiVersion,
		textModel:  textModel,
		imageModel: imageModel,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GenerateText runs a single-turn prompt against the text model and returns
// the trimmed answer.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}

	payload := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{Temperature: req.Temperature},
	}
	if system := strings.TrimSpace(req.System); system != "" {
		payload.SystemInstruction = &content{Role: "user", Parts: []part{{Text: system}}}
	}

	resp, err := c.generateContent(ctx, c.textModel, payload)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// GenerateImage asks the image model for a picture and returns the first
// image part of the answer.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Image{}, errors.New("prompt is empty")
	}

	parts := []part{{Text: prompt}}
	for _, ref := range req.References {
		if len(ref.Data) == 0 {
			continue
		}
		parts = append(parts, part{InlineData: &blob{
			Data:     base64.StdEncoding.EncodeToString(ref.Data),
			MimeType: DetectMimeType(ref.Data, ref.MimeType),
		}})
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}
	if ar := strings.TrimSpace(req.AspectRatio); ar != "" {
		payload.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: ar}
	}

	resp, err := c.generateContent(ctx, c.imageModel, payload)
	if err != nil && payload.GenerationConfig.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		c.logger.Warn("imageConfig not supported, retrying without aspect ratio",
			"model", c.imageModel,
			"api_version", c.apiVersion,
		)
		payload.GenerationConfig.ImageConfig = nil
		resp, err = c.generateContent(ctx, c.imageModel, payload)
	}
	if err != nil {
		return Image{}, err
	}

	if len(resp.images) == 0 {
		if text := strings.TrimSpace(resp.text); text != "" {
			return Image{}, fmt.Errorf("%w: model answered with text: %s", ErrNoImage, truncate(text, 200))
		}
		return Image{}, ErrNoImage
	}
	return resp.images[0], nil
}

type response struct {
	text   string
	images []Image
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (response, error) {
	if c.apiKey == "" {
		return response{}, ErrMissingAPIKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("gemini generateContent",
		"model", model,
		"status", httpResp.StatusCode,
		"bytes", len(rawBody),
		"took", time.Since(start),
	)

	if httpResp.StatusCode >= 400 {
		return response{}, newAPIError(httpResp.StatusCode, httpResp.Status, rawBody)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}

	return extractParts(decoded)
}

func extractParts(resp generateContentResponse) (response, error) {
	if len(resp.Candidates) == 0 {
		return response{}, nil
	}

	var out response
	var textBuilder strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return response{}, fmt.Errorf("decode inline image: %w", err)
		}
		out.images = append(out.images, Image{
			Data:     data,
			MimeType: DetectMimeType(data, p.InlineData.MimeType),
		})
	}
	out.text = textBuilder.String()
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64      `json:"temperature,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}
