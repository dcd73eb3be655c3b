// Package drive browses and edits the documentation folders kept in
// Google Drive.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/drive/v3"
)

// DefaultShortcutName is used when a shortcut is created without a name.
const DefaultShortcutName = "Atajo"

var ErrNoID = errors.New("no Drive file id in URL")

type File struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MimeType       string `json:"mimeType"`
	IconLink       string `json:"iconLink,omitempty"`
	Size           int64  `json:"size,omitempty"`
	WebViewLink    string `json:"webViewLink,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
	ShortcutTarget string `json:"shortcutTarget,omitempty"`
	Folder         bool   `json:"folder,omitempty"`
}

func fromDrive(f *drive.File) File {
	out := File{
		ID:             f.Id,
		Name:           f.Name,
		MimeType:       f.MimeType,
		IconLink:       f.IconLink,
		Size:           f.Size,
		WebViewLink:    f.WebViewLink,
		WebContentLink: f.WebContentLink,
		Folder:         f.MimeType == FolderMime,
	}
	if f.ShortcutDetails != nil {
		out.ShortcutTarget = f.ShortcutDetails.TargetId
	}
	return out
}

// IsNative reports whether the file is a Docs/Sheets/Slides document,
// which can only be opened, not downloaded.
func (f File) IsNative() bool {
	return strings.HasPrefix(f.MimeType, "application/vnd.google-apps")
}

type Browser struct {
	api FilesAPI
}

func NewBrowser(api FilesAPI) *Browser {
	return &Browser{api: api}
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// EnsurePath walks segments from opts.RootID (or My Drive) creating the
// folders that are missing, and returns the id of the last one. Lookup and
// creation are separate calls, so concurrent callers can create duplicates.
func (b *Browser) EnsurePath(ctx context.Context, segments []string, opts Options) (string, error) {
	parent := opts.RootID
	if parent == "" {
		root, err := b.api.RootID(ctx)
		if err != nil {
			return "", fmt.Errorf("drive root: %w", err)
		}
		parent = root
	}
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		id, err := b.ensureFolder(ctx, parent, seg, opts)
		if err != nil {
			return "", err
		}
		parent = id
	}
	return parent, nil
}

func (b *Browser) ensureFolder(ctx context.Context, parent, name string, opts Options) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		queryEscaper.Replace(name), queryEscaper.Replace(parent), FolderMime)
	list, err := b.api.List(ctx, q, "", opts)
	if err != nil {
		return "", fmt.Errorf("find folder %q: %w", name, err)
	}
	if list != nil && len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	created, err := b.api.Create(ctx, &drive.File{Name: name, MimeType: FolderMime, Parents: []string{parent}}, nil, opts)
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	log.WithFields(log.Fields{"folder": name, "id": created.Id}).Info("Created Drive folder")
	return created.Id, nil
}

// ListFiles returns every non-trashed child of folderID, folders first.
func (b *Browser) ListFiles(ctx context.Context, folderID string, opts Options) ([]File, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false", queryEscaper.Replace(folderID))
	var out []File
	token := ""
	for {
		list, err := b.api.List(ctx, q, token, opts)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", folderID, err)
		}
		for _, f := range list.Files {
			out = append(out, fromDrive(f))
		}
		if list.NextPageToken == "" {
			return out, nil
		}
		token = list.NextPageToken
	}
}

// UploadFile stores content as a new file in folderID.
func (b *Browser) UploadFile(ctx context.Context, folderID, name, mimeType string, content io.Reader, opts Options) (File, error) {
	meta := &drive.File{Name: name, MimeType: mimeType, Parents: []string{folderID}}
	f, err := b.api.Create(ctx, meta, content, opts)
	if err != nil {
		return File{}, fmt.Errorf("upload %q: %w", name, err)
	}
	return fromDrive(f), nil
}

// CreateShortcut adds a shortcut to targetID inside folderID.
func (b *Browser) CreateShortcut(ctx context.Context, folderID, targetID, name string, opts Options) (File, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultShortcutName
	}
	meta := &drive.File{
		Name:            name,
		MimeType:        ShortcutMime,
		Parents:         []string{folderID},
		ShortcutDetails: &drive.FileShortcutDetails{TargetId: targetID},
	}
	f, err := b.api.Create(ctx, meta, nil, opts)
	if err != nil {
		return File{}, fmt.Errorf("shortcut to %s: %w", targetID, err)
	}
	return fromDrive(f), nil
}

func (b *Browser) DeleteFile(ctx context.Context, fileID string, opts Options) error {
	if err := b.api.Delete(ctx, fileID, opts); err != nil {
		return fmt.Errorf("delete %s: %w", fileID, err)
	}
	return nil
}

// Download opens a binary file. For native documents Body is nil and the
// caller should send the user to File.WebViewLink.
func (b *Browser) Download(ctx context.Context, fileID string, opts Options) (File, io.ReadCloser, error) {
	meta, err := b.api.Get(ctx, fileID, opts)
	if err != nil {
		return File{}, nil, fmt.Errorf("get %s: %w", fileID, err)
	}
	f := fromDrive(meta)
	if f.IsNative() {
		return f, nil, nil
	}
	body, err := b.api.Download(ctx, fileID, opts)
	if err != nil {
		return f, nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	return f, body, nil
}

var idPathRe = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

// ExtractID pulls a file id out of a Docs, Sheets or Drive link.
func ExtractID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "", ErrNoID
	}
	if m := idPathRe.FindStringSubmatch(u.Path); m != nil {
		return m[1], nil
	}
	if id := u.Query().Get("id"); id != "" {
		return id, nil
	}
	return "", ErrNoID
}
