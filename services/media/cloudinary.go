// Package mediasvc stores uploaded files on Cloudinary through its REST
// upload API (the official Go SDK targets a newer Go than this module).
package mediasvc

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

	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core"
)

const baseURL = "https://api.cloudinary.com/v1_1"

type cloudinaryService struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	client    *http.Client
	logger    core.Logger
}

var _ core.MediaService = (*cloudinaryService)(nil)

func NewCloudinaryService(logger core.Logger, conf *core.Config) *cloudinaryService {
	return &cloudinaryService{
		cloudName: conf.Cloudinary.CloudName,
		apiKey:    conf.Cloudinary.APIKey,
		apiSecret: conf.Cloudinary.APISecret,
		folder:    conf.Cloudinary.Folder,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// sign builds the request signature: sha1 of the sorted params joined with
// '&', followed by the API secret.
func (svc cloudinaryService) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + svc.apiSecret))
	return hex.EncodeToString(sum[:])
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (svc cloudinaryService) Upload(ctx context.Context, file io.Reader, filename string) (core.UploadResult, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{"timestamp": timestamp}
	if svc.folder != "" {
		params["folder"] = svc.folder
	}
	signature := svc.sign(params)

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return core.UploadResult{}, errors.Wrap(err, "writing form field")
		}
	}
	if err := w.WriteField("api_key", svc.apiKey); err != nil {
		return core.UploadResult{}, errors.Wrap(err, "writing form field")
	}
	if err := w.WriteField("signature", signature); err != nil {
		return core.UploadResult{}, errors.Wrap(err, "writing form field")
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return core.UploadResult{}, errors.Wrap(err, "creating form file")
	}
	if _, err := io.Copy(fw, file); err != nil {
		return core.UploadResult{}, errors.Wrap(err, "copying file")
	}
	if err := w.Close(); err != nil {
		return core.UploadResult{}, errors.Wrap(err, "closing form")
	}

	endpoint := fmt.Sprintf("%s/%s/auto/upload", baseURL, svc.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return core.UploadResult{}, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	res, err := svc.client.Do(req)
	if err != nil {
		return core.UploadResult{}, errors.Wrap(err, "uploading file")
	}
	defer func() { _ = res.Body.Close() }()

	var parsed uploadResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return core.UploadResult{}, errors.Wrap(err, "decoding response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return core.UploadResult{}, errors.Errorf("uploading file - status: %d - %s", res.StatusCode, parsed.Error.Message)
	}
	return core.UploadResult{
		URL:      parsed.SecureURL,
		PublicID: parsed.PublicID,
		Format:   parsed.Format,
		Width:    parsed.Width,
		Height:   parsed.Height,
		Bytes:    parsed.Bytes,
	}, nil
}

func (svc cloudinaryService) Delete(ctx context.Context, publicID string) error {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}
	signature := svc.sign(params)

	form := make(url.Values)
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", svc.apiKey)
	form.Set("signature", signature)

	endpoint := fmt.Sprintf("%s/%s/image/destroy", baseURL, svc.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "deleting file")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(res.Body)
		return errors.Errorf("deleting file - status: %d - %s", res.StatusCode, raw)
	}
	return nil
}
