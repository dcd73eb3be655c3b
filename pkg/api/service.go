package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"opsboard/pkg/auth"
	"opsboard/pkg/board"
	"opsboard/pkg/chat"
	"opsboard/pkg/checklist"
	"opsboard/pkg/config"
	"opsboard/pkg/drive"
	"opsboard/pkg/model"
	"opsboard/pkg/reports"
	"opsboard/pkg/sheets"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrUnavailable  = errors.New("not configured")
)

var nowFunc = time.Now

// Options assemble a Service. Targets without a TableSpec are ignored,
// except the gemini target, which feeds the insights report.
type Options struct {
	Targets    map[string]sheets.Target
	Values     sheets.ValuesAPI
	Files      drive.FilesAPI
	DriveRoot  string
	BaseFolder string
	Chat       *chat.Client
	Checklist  *checklist.Store
	Location   *time.Location
}

// Service holds the boards and clients behind the HTTP API and the CLI.
type Service struct {
	boards     map[string]*board.Board
	specs      map[string]TableSpec
	reader     *sheets.Reader
	gemini     *sheets.Target
	browser    *drive.Browser
	driveOpts  drive.Options
	baseFolder string
	chat       *chat.Client
	checklist  *checklist.Store
	loc        *time.Location
}

func NewService(o Options) *Service {
	if o.Location == nil {
		o.Location = time.Local
	}
	s := &Service{
		boards:     make(map[string]*board.Board),
		specs:      make(map[string]TableSpec),
		baseFolder: o.BaseFolder,
		driveOpts:  drive.Options{RootID: o.DriveRoot},
		chat:       o.Chat,
		checklist:  o.Checklist,
		loc:        o.Location,
	}
	if o.Values != nil {
		s.reader = sheets.NewReader(o.Values)
		for name, t := range o.Targets {
			spec, ok := TableSpecs[name]
			if !ok {
				continue
			}
			s.specs[name] = spec
			s.boards[name] = board.New(board.Config{
				Name:     name,
				Target:   t,
				Schema:   spec.Schema,
				Marks:    spec.Marks,
				Editable: spec.Editable,
				Location: o.Location,
			}, o.Values)
		}
		if t, ok := o.Targets[config.Gemini]; ok {
			s.gemini = &t
		}
	}
	if o.Files != nil {
		s.browser = drive.NewBrowser(o.Files)
	}
	return s
}

// FromConfig connects the Google clients with the session's token and opens
// the checklist database.
func FromConfig(ctx context.Context, cfg *config.Config, session *auth.TokenCache) (*Service, error) {
	opts := []option.ClientOption{session.ClientOption()}
	values, err := sheets.NewSheetClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	files, err := drive.NewDriveClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]sheets.Target)
	for _, name := range config.TableNames {
		t, err := cfg.Target(name)
		if err != nil {
			log.WithField("table", name).Warnf("Table disabled: %v", err)
			continue
		}
		targets[name] = t
	}

	var store *checklist.Store
	if path := cfg.Store.Checklist.DBPath; path != "" {
		store, err = checklist.Open(path)
		if err != nil {
			return nil, fmt.Errorf("checklist: %w", err)
		}
	}

	var chatClient *chat.Client
	if cfg.Store.Chat.URL != "" {
		chatClient = chat.NewClient(cfg.Store.Chat.URL, cfg.Store.Chat.AppKey, chat.Mode(strings.ToLower(cfg.Store.Chat.Mode)))
	}

	return NewService(Options{
		Targets:    targets,
		Values:     values,
		Files:      files,
		DriveRoot:  cfg.Store.Drive.RootID,
		BaseFolder: cfg.Store.Drive.BaseFolder,
		Chat:       chatClient,
		Checklist:  store,
		Location:   cfg.Location(),
	}), nil
}

func (s *Service) Close() error {
	if s.checklist != nil {
		return s.checklist.Close()
	}
	return nil
}

// Tables lists the configured table names.
func (s *Service) Tables() []string {
	names := make([]string, 0, len(s.boards))
	for n := range s.boards {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func tableName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "master" {
		return config.Abiertos
	}
	return n
}

// Board returns the named board, loading it first if it has never been
// loaded or refresh is set.
func (s *Service) Board(ctx context.Context, name string, refresh bool) (*board.Board, error) {
	b, ok := s.boards[tableName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	if refresh || !b.Loaded() {
		if err := b.Load(ctx); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Snapshot returns the filtered view of a table with its filter options.
func (s *Service) Snapshot(ctx context.Context, name string, f board.Filter, refresh bool) (board.Snapshot, error) {
	b, err := s.Board(ctx, name, refresh)
	if err != nil {
		return board.Snapshot{}, err
	}
	return b.Snapshot(f, s.specs[b.Name()].Filters...), nil
}

func (s *Service) tickets(ctx context.Context, name string) ([]model.Ticket, *sheets.Table, error) {
	b, err := s.Board(ctx, name, false)
	if err != nil {
		return nil, nil, err
	}
	return b.Tickets(), b.Table(), nil
}

// Summary builds the desk report over the last days; model.AllDays
// disables the window.
func (s *Service) Summary(ctx context.Context, days int) (reports.Summary, error) {
	abiertos, _, err := s.tickets(ctx, config.Abiertos)
	if err != nil {
		return reports.Summary{}, err
	}
	cerrados, table, err := s.tickets(ctx, config.Cerrados)
	if err != nil {
		return reports.Summary{}, err
	}
	return reports.BuildSummary(reports.Input{
		Abiertos:        abiertos,
		Cerrados:        cerrados,
		CerradosHeaders: table.Headers,
	}, days, nowFunc().In(s.loc)), nil
}

// CreatedSeries counts Abiertos tickets created per day in the window.
func (s *Service) CreatedSeries(ctx context.Context, days int) ([]model.DayCount, error) {
	abiertos, _, err := s.tickets(ctx, config.Abiertos)
	if err != nil {
		return nil, err
	}
	return reports.CreatedSeries(abiertos, days, nowFunc().In(s.loc)), nil
}

func (s *Service) Distribution(ctx context.Context, view reports.View, dataset board.Dataset) (reports.Distribution, error) {
	abiertos, _, err := s.tickets(ctx, config.Abiertos)
	if err != nil {
		return reports.Distribution{}, err
	}
	return reports.BuildDistribution(abiertos, view, dataset), nil
}

func (s *Service) Escalations(ctx context.Context) ([]model.Ticket, error) {
	abiertos, _, err := s.tickets(ctx, config.Abiertos)
	if err != nil {
		return nil, err
	}
	return reports.Escalations(abiertos), nil
}

// Insights reads the insight tab on every call.
func (s *Service) Insights(ctx context.Context) ([]reports.Insight, error) {
	if s.gemini == nil || s.reader == nil {
		return nil, fmt.Errorf("insights: %w", ErrUnavailable)
	}
	table, err := s.reader.ReadTable(ctx, *s.gemini)
	if err != nil {
		return nil, err
	}
	return reports.Insights(table)
}

func (s *Service) drive() (*drive.Browser, error) {
	if s.browser == nil {
		return nil, fmt.Errorf("drive: %w", ErrUnavailable)
	}
	return s.browser, nil
}

// PortalFolder resolves (creating if needed) a portal category folder.
func (s *Service) PortalFolder(ctx context.Context, portal, category string) (string, error) {
	b, err := s.drive()
	if err != nil {
		return "", err
	}
	path, err := drive.PortalPath(s.baseFolder, portal, category)
	if err != nil {
		return "", err
	}
	return b.EnsurePath(ctx, path, s.driveOpts)
}

func (s *Service) PortalFiles(ctx context.Context, portal, category string) (string, []drive.File, error) {
	folder, err := s.PortalFolder(ctx, portal, category)
	if err != nil {
		return "", nil, err
	}
	files, err := s.browser.ListFiles(ctx, folder, s.driveOpts)
	return folder, files, err
}

func (s *Service) Upload(ctx context.Context, portal, category, name, mimeType string, r io.Reader) (drive.File, error) {
	folder, err := s.PortalFolder(ctx, portal, category)
	if err != nil {
		return drive.File{}, err
	}
	return s.browser.UploadFile(ctx, folder, name, mimeType, r, s.driveOpts)
}

// Shortcut links target, a file id or a Drive/Docs URL, into a portal folder.
func (s *Service) Shortcut(ctx context.Context, portal, category, target, name string) (drive.File, error) {
	id := strings.TrimSpace(target)
	if strings.Contains(id, "/") {
		var err error
		if id, err = drive.ExtractID(id); err != nil {
			return drive.File{}, err
		}
	}
	if id == "" {
		return drive.File{}, drive.ErrNoID
	}
	folder, err := s.PortalFolder(ctx, portal, category)
	if err != nil {
		return drive.File{}, err
	}
	return s.browser.CreateShortcut(ctx, folder, id, name, s.driveOpts)
}

func (s *Service) DeleteFile(ctx context.Context, id string) error {
	b, err := s.drive()
	if err != nil {
		return err
	}
	return b.DeleteFile(ctx, id, s.driveOpts)
}

func (s *Service) Download(ctx context.Context, id string) (drive.File, io.ReadCloser, error) {
	b, err := s.drive()
	if err != nil {
		return drive.File{}, nil, err
	}
	return b.Download(ctx, id, s.driveOpts)
}

// Chat relays text. Transport failures come back as the inline
// network-error reply rather than an error.
func (s *Service) Chat(ctx context.Context, text, idToken string) (chat.Reply, error) {
	if s.chat == nil {
		return chat.Reply{}, chat.ErrNoEndpoint
	}
	reply, err := s.chat.Send(ctx, text, idToken)
	switch {
	case err == nil:
		return reply, nil
	case errors.Is(err, chat.ErrEmptyText), errors.Is(err, chat.ErrNoEndpoint):
		return chat.Reply{}, err
	}
	return chat.Reply{Text: chat.NetworkError, Error: true}, nil
}

func (s *Service) Checklist() (*checklist.Store, error) {
	if s.checklist == nil {
		return nil, fmt.Errorf("checklist: %w", ErrUnavailable)
	}
	return s.checklist, nil
}

// Connect restores the saved session, or acquires a token from the
// configured credentials, and builds the Service on it.
func Connect(ctx context.Context, cfg *config.Config) (*Service, *auth.TokenCache, error) {
	src, err := auth.NewSource(ctx, cfg.Store.Google.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	session := auth.NewTokenCache(src, cfg.Store.Google.TokenFile)
	session.Renew = func(ctx context.Context) (oauth2.TokenSource, error) {
		return auth.NewSource(ctx, cfg.Store.Google.CredentialsFile)
	}
	if session.Restore() {
		log.Debug("Restored saved session")
	}
	svc, err := FromConfig(ctx, cfg, session)
	if err != nil {
		return nil, nil, err
	}
	return svc, session, nil
}
