package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"opsboard/pkg/drive"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

const maxUploadBytes = 50 << 20

func registerDriveRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-portals",
		Method:      http.MethodGet,
		Path:        "/v1/drive/portals",
		Summary:     "Documentation portals and categories",
		Tags:        []string{"drive"},
	}, h.ListPortals)

	huma.Register(api, huma.Operation{
		OperationID: "list-portal-files",
		Method:      http.MethodGet,
		Path:        "/v1/drive/portals/{portal}/{category}",
		Summary:     "Files of a portal category, creating its folders if needed",
		Tags:        []string{"drive"},
	}, h.ListPortalFiles)

	huma.Register(api, huma.Operation{
		OperationID:   "upload-file",
		Method:        http.MethodPost,
		Path:          "/v1/drive/portals/{portal}/{category}/files",
		Summary:       "Upload the request body as a new file",
		Tags:          []string{"drive"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxUploadBytes,
	}, h.UploadFile)

	huma.Register(api, huma.Operation{
		OperationID:   "create-shortcut",
		Method:        http.MethodPost,
		Path:          "/v1/drive/portals/{portal}/{category}/shortcuts",
		Summary:       "Add a shortcut to an existing file",
		Tags:          []string{"drive"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateShortcut)

	huma.Register(api, huma.Operation{
		OperationID: "delete-file",
		Method:      http.MethodDelete,
		Path:        "/v1/drive/files/{id}",
		Summary:     "Delete a file or shortcut",
		Tags:        []string{"drive"},
	}, h.DeleteFile)
}

func (h *Handler) ListPortals(ctx context.Context, _ *struct{}) (*PortalsOutput, error) {
	out := &PortalsOutput{}
	out.Body.Portals = drive.Portals
	out.Body.Categories = drive.Categories
	return out, nil
}

func (h *Handler) ListPortalFiles(ctx context.Context, in *PortalInput) (*FolderOutput, error) {
	folder, files, err := h.svc.PortalFiles(ctx, in.Portal, in.Category)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	out := &FolderOutput{}
	out.Body.FolderID = folder
	out.Body.Files = files
	if out.Body.Files == nil {
		out.Body.Files = []drive.File{}
	}
	return out, nil
}

func (h *Handler) UploadFile(ctx context.Context, in *UploadInput) (*FileOutput, error) {
	mime := in.ContentType
	if mime == "" {
		mime = "application/octet-stream"
	}
	f, err := h.svc.Upload(ctx, in.Portal, in.Category, in.Name, mime, bytes.NewReader(in.RawBody))
	if err != nil {
		return nil, apiError(ctx, err)
	}
	log.WithFields(log.Fields{"file": f.Name, "id": f.ID, "bytes": len(in.RawBody)}).Info("Uploaded file")
	return &FileOutput{Body: f}, nil
}

func (h *Handler) CreateShortcut(ctx context.Context, in *ShortcutInput) (*FileOutput, error) {
	f, err := h.svc.Shortcut(ctx, in.Portal, in.Category, in.Body.Target, in.Body.Name)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &FileOutput{Body: f}, nil
}

func (h *Handler) DeleteFile(ctx context.Context, in *IDInput) (*struct{}, error) {
	if err := h.svc.DeleteFile(ctx, in.ID); err != nil {
		return nil, apiError(ctx, err)
	}
	return nil, nil
}

// DownloadFile streams a binary file. Native Google documents redirect to
// their web view instead.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, body, err := h.svc.Download(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusOf(ctx, err), err.Error())
		return
	}
	if body == nil {
		http.Redirect(w, r, f.WebViewLink, http.StatusFound)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	if _, err := io.Copy(w, body); err != nil {
		log.WithError(err).WithField("id", f.ID).Warn("Download interrupted")
	}
}
