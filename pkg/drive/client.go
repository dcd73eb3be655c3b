package drive

import (
	"context"
	"fmt"
	"io"
	"time"

	"opsboard/pkg/breaker"
	"opsboard/pkg/gapi"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	FolderMime   = "application/vnd.google-apps.folder"
	ShortcutMime = "application/vnd.google-apps.shortcut"

	pageSize   = 1000
	fileFields = "id,name,mimeType,iconLink,size,webViewLink,webContentLink,shortcutDetails"
)

// Options scope a call. Every call supports shared drives; RootID, when
// set, restricts listings to that shared drive.
type Options struct {
	RootID string
}

// FilesAPI is the slice of the Drive v3 API the browser needs.
type FilesAPI interface {
	RootID(ctx context.Context) (string, error)
	List(ctx context.Context, q, pageToken string, opts Options) (*drive.FileList, error)
	Create(ctx context.Context, f *drive.File, media io.Reader, opts Options) (*drive.File, error)
	Get(ctx context.Context, id string, opts Options) (*drive.File, error)
	Download(ctx context.Context, id string, opts Options) (io.ReadCloser, error)
	Delete(ctx context.Context, id string, opts Options) error
}

// DriveClient implements FilesAPI over the Drive v3 REST service.
type DriveClient struct {
	service *drive.Service
	breaker *breaker.Breaker
}

func NewDriveClient(ctx context.Context, opts ...option.ClientOption) (*DriveClient, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return &DriveClient{service: srv, breaker: gapi.NewBreaker("drive", 5, 30*time.Second)}, nil
}

func (c *DriveClient) RootID(ctx context.Context) (string, error) {
	var f *drive.File
	err := gapi.Call(ctx, c.breaker, "drive", "files.get", func() error {
		var err error
		f, err = c.service.Files.Get("root").Fields("id").Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (c *DriveClient) List(ctx context.Context, q, pageToken string, opts Options) (*drive.FileList, error) {
	call := c.service.Files.List().
		Q(q).
		Fields(googleapi.Field("nextPageToken,files(" + fileFields + ")")).
		PageSize(pageSize).
		OrderBy("folder,name").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if opts.RootID != "" {
		call = call.Corpora("drive").DriveId(opts.RootID)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	var list *drive.FileList
	err := gapi.Call(ctx, c.breaker, "drive", "files.list", func() error {
		var err error
		list, err = call.Context(ctx).Do()
		return err
	})
	return list, err
}

func (c *DriveClient) Create(ctx context.Context, f *drive.File, media io.Reader, opts Options) (*drive.File, error) {
	call := c.service.Files.Create(f).
		Fields(googleapi.Field(fileFields)).
		SupportsAllDrives(true)
	if media != nil {
		call = call.Media(media)
	}

	var created *drive.File
	op := func() error {
		var err error
		created, err = call.Context(ctx).Do()
		return err
	}
	var err error
	if media != nil {
		err = gapi.CallOnce(c.breaker, "drive", "files.upload", op)
	} else {
		err = gapi.Call(ctx, c.breaker, "drive", "files.create", op)
	}
	return created, err
}

func (c *DriveClient) Get(ctx context.Context, id string, opts Options) (*drive.File, error) {
	var f *drive.File
	err := gapi.Call(ctx, c.breaker, "drive", "files.get", func() error {
		var err error
		f, err = c.service.Files.Get(id).Fields(googleapi.Field(fileFields)).SupportsAllDrives(true).Context(ctx).Do()
		return err
	})
	return f, err
}

func (c *DriveClient) Download(ctx context.Context, id string, opts Options) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := gapi.Call(ctx, c.breaker, "drive", "files.download", func() error {
		resp, err := c.service.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
		if err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	return body, err
}

func (c *DriveClient) Delete(ctx context.Context, id string, opts Options) error {
	return gapi.Call(ctx, c.breaker, "drive", "files.delete", func() error {
		return c.service.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do()
	})
}
