package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"

	"opsboard/pkg/drive"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// mockFiles is an in-memory drive.FilesAPI.
type mockFiles struct {
	mu      sync.Mutex
	files   map[string]*gdrive.File
	content map[string][]byte
	next    int
	Err     error
}

func newMockFiles() *mockFiles {
	return &mockFiles{files: map[string]*gdrive.File{}, content: map[string][]byte{}}
}

var (
	nameRe   = regexp.MustCompile(`name='([^']*)'`)
	parentRe = regexp.MustCompile(`'([^']*)' in parents`)
)

func (m *mockFiles) RootID(ctx context.Context) (string, error) {
	return "root", m.Err
}

func (m *mockFiles) List(ctx context.Context, q, pageToken string, opts drive.Options) (*gdrive.FileList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	parent := ""
	if p := parentRe.FindStringSubmatch(q); p != nil {
		parent = p[1]
	}
	name := ""
	if n := nameRe.FindStringSubmatch(q); n != nil {
		name = n[1]
	}
	out := &gdrive.FileList{}
	for i := 1; i <= m.next; i++ {
		f, ok := m.files[fmt.Sprintf("f%d", i)]
		if !ok || len(f.Parents) == 0 || f.Parents[0] != parent {
			continue
		}
		if name != "" && f.Name != name {
			continue
		}
		out.Files = append(out.Files, f)
	}
	return out, nil
}

func (m *mockFiles) Create(ctx context.Context, f *gdrive.File, media io.Reader, opts drive.Options) (*gdrive.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.next++
	c := *f
	c.Id = fmt.Sprintf("f%d", m.next)
	c.WebViewLink = "https://drive.google.com/file/d/" + c.Id + "/view"
	m.files[c.Id] = &c
	if media != nil {
		b, _ := io.ReadAll(media)
		m.content[c.Id] = b
		c.Size = int64(len(b))
	}
	return &c, nil
}

func (m *mockFiles) Get(ctx context.Context, id string, opts drive.Options) (*gdrive.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, &googleapi.Error{Code: http.StatusNotFound, Message: "File not found: " + id}
	}
	return f, nil
}

func (m *mockFiles) Download(ctx context.Context, id string, opts drive.Options) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return io.NopCloser(bytes.NewReader(m.content[id])), nil
}

func (m *mockFiles) Delete(ctx context.Context, id string, opts drive.Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[id]; !ok {
		return &googleapi.Error{Code: http.StatusNotFound, Message: "File not found: " + id}
	}
	delete(m.files, id)
	return nil
}
