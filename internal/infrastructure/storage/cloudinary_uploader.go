package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/servicehub/pkg/config"
)

const defaultCloudinaryURL = "https://api.cloudinary.com/v1_1"

// CloudinaryUploader stores images with Cloudinary's signed upload API
type CloudinaryUploader struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewCloudinaryUploader creates an uploader from Cloudinary configuration
func NewCloudinaryUploader(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set")
	}
	return &CloudinaryUploader{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    cfg.Folder,
		baseURL:   defaultCloudinaryURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}, nil
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload sends data to Cloudinary and returns the secure URL
func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(u.now().Unix(), 10),
	}
	if u.folder != "" {
		params["folder"] = u.folder
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := w.WriteField("api_key", u.apiKey); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.WriteField("signature", sign(params, u.apiSecret)); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", u.baseURL, url.PathEscape(u.cloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var out cloudinaryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("cloudinary error (status %d): %s", resp.StatusCode, msg)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("no secure_url in response")
	}

	return out.SecureURL, nil
}

// sign computes Cloudinary's request signature: the sorted k=v pairs joined
// with '&', followed by the secret, hashed with SHA-1.
func sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
