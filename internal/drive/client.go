package drive

import (
	"context"
	"fmt"
	"io"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/knowledgebot/pkg/models"
)

// Config represents the Google Drive knowledge-base configuration.
type Config struct {
	// FolderID scopes which files are eligible for retrieval.
	FolderID string `yaml:"folder_id"`
	// ServiceAccountJSON is the service-account credential, usually
	// injected via the GOOGLE_SERVICE_ACCOUNT environment variable.
	ServiceAccountJSON string `yaml:"service_account_json"`
	PageSize           int64  `yaml:"page_size"`
}

// Client is a read-only Google Drive adapter for the knowledge-base
// folder.
type Client struct {
	service  *drive.Service
	folderID string
	pageSize int64
}

// NewClient builds a Drive client authenticated with the configured
// service account.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	service, err := drive.NewService(ctx,
		option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		service:  service,
		folderID: cfg.FolderID,
		pageSize: pageSize,
	}, nil
}

// ListFiles returns all non-trashed files directly under the
// knowledge-base folder, following pagination.
func (c *Client) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", c.folderID)

	var records []models.FileRecord
	pageToken := ""
	for {
		call := c.service.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)").
			PageSize(c.pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list drive folder %s: %w", c.folderID, err)
		}
		for _, f := range page.Files {
			records = append(records, models.FileRecord{
				ID:        f.Id,
				Name:      f.Name,
				MediaType: f.MimeType,
			})
		}
		if page.NextPageToken == "" {
			return records, nil
		}
		pageToken = page.NextPageToken
	}
}

// DownloadFile fetches the raw bytes of a single file.
func (c *Client) DownloadFile(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download drive file %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read drive file %s: %w", id, err)
	}
	return data, nil
}
