package widget

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Cloudinary uploads through the Cloudinary API as an unsigned upload bound
// to the configured upload preset.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

type CloudinaryOptions struct {
	AccountID string
	APIKey    string
	APISecret string
	// UploadPrefix overrides the API host, mainly for tests.
	UploadPrefix string
}

func NewCloudinary(opts CloudinaryOptions) (*Cloudinary, error) {
	conf, err := config.NewFromParams(opts.AccountID, opts.APIKey, opts.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	if opts.UploadPrefix != "" {
		conf.API.UploadPrefix = opts.UploadPrefix
	}

	cld, err := cloudinary.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

func (c *Cloudinary) Transfer(ctx context.Context, cfg Config, file File) (*models.UploadResult, error) {
	params := uploader.UploadParams{
		ResourceType:   cfg.ResourceType,
		AllowedFormats: api.CldAPIArray(cfg.ClientAllowedFormats),
		Context:        api.CldAPIMap(cfg.Metadata),
	}

	resp, err := c.cld.Upload.UnsignedUpload(ctx, bytes.NewReader(file.Content), cfg.UploadPresetID, params)
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return &models.UploadResult{
			Event: models.EventError,
			Info:  models.UploadInfo{Message: resp.Error.Message},
		}, nil
	}

	return &models.UploadResult{
		Event: models.EventSuccess,
		Info: models.UploadInfo{
			SecureURL:        resp.SecureURL,
			OriginalFilename: strings.TrimSuffix(file.Name, filepath.Ext(file.Name)),
		},
	}, nil
}
