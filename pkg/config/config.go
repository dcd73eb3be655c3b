// Package config loads the opsboard settings from a TOML file, with a
// .env file and OPSBOARD_* environment variables layered on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"opsboard/pkg/sheets"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "OPSBOARD_"

// Table names.
const (
	Abiertos        = "abiertos"
	Cerrados        = "cerrados"
	N3              = "n3"
	ReporteAbiertos = "reporte_abiertos"
	ReporteCerrados = "reporte_cerrados"
	Gemini          = "gemini"
)

// TableNames lists every configured table in a stable order.
var TableNames = []string{Abiertos, Cerrados, N3, ReporteAbiertos, ReporteCerrados, Gemini}

var ErrNoSpreadsheet = errors.New("no spreadsheet id configured")

type Server struct {
	Listen   string `toml:"listen"`
	LogLevel string `toml:"log_level"`
	Timezone string `toml:"timezone"`
}

type Google struct {
	// SpreadsheetID is used by every table without its own id.
	SpreadsheetID   string   `toml:"spreadsheet_id"`
	ClientID        string   `toml:"client_id"`
	CredentialsFile string   `toml:"credentials_file"`
	TokenFile       string   `toml:"token_file"`
	AllowedDomains  []string `toml:"allowed_domains"`
	// SkipTokenVerify decodes ID tokens without checking signatures.
	SkipTokenVerify bool `toml:"skip_token_verify,omitempty"`
}

type Table struct {
	SpreadsheetID string `toml:"spreadsheet_id,omitempty"`
	Tab           string `toml:"tab"`
	GridID        string `toml:"grid_id,omitempty"`
	MaxColumns    int    `toml:"max_columns,omitempty"`
	MaxRows       int    `toml:"max_rows,omitempty"`
}

type Drive struct {
	BaseFolder string `toml:"base_folder"`
	RootID     string `toml:"root_id,omitempty"`
}

type Chat struct {
	URL    string `toml:"url"`
	AppKey string `toml:"app_key"`
	Mode   string `toml:"mode"`
}

type Checklist struct {
	DBPath string `toml:"db_path"`
}

type Store struct {
	Server    Server           `toml:"server"`
	Google    Google           `toml:"google"`
	Tables    map[string]Table `toml:"tables"`
	Drive     Drive            `toml:"drive"`
	Chat      Chat             `toml:"chat"`
	Checklist Checklist        `toml:"checklist"`
}

type Config struct {
	Filename string
	Store    Store
}

func defaults() Store {
	return Store{
		Server: Server{
			Listen:   ":8080",
			LogLevel: "info",
			Timezone: "America/Argentina/Buenos_Aires",
		},
		Google: Google{
			TokenFile:      "opsboard-session.json",
			AllowedDomains: []string{"iplan.com.ar", "restart-ai.com"},
		},
		Tables: map[string]Table{
			Abiertos:        {Tab: "Abiertos"},
			Cerrados:        {Tab: "Cerrados"},
			N3:              {Tab: "Tickets N3"},
			ReporteAbiertos: {Tab: "Reporte Abiertos", MaxRows: 50000},
			ReporteCerrados: {Tab: "Reporte Cerrados", MaxRows: 50000},
			Gemini:          {Tab: "Gemini", MaxColumns: 20, MaxRows: 500},
		},
		Drive:     Drive{BaseFolder: "Soporte Documentación"},
		Chat:      Chat{Mode: "post"},
		Checklist: Checklist{DBPath: "opsboard.sqlite3"},
	}
}

// Save writes the current config out to the toml file.
func (c *Config) Save() error {
	b, err := toml.Marshal(c.Store)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Filename, b, 0644)
}

// load reads the toml file over the current values.
func (c *Config) load() error {
	b, err := os.ReadFile(c.Filename)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, &c.Store)
}

// Load reads filename, writing a default file first if there is none.
// A .env file in the working directory and OPSBOARD_* variables override
// what the file says.
func Load(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Unable to read .env")
	}

	c := &Config{Filename: filename, Store: defaults()}
	if err := c.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to read %s: %w", filename, err)
		}
		if err := c.Save(); err != nil {
			return nil, err
		}
		log.WithField("file", filename).Info("Wrote default configuration")
	}

	c.applyEnv(os.LookupEnv)
	c.fillDefaults()
	return c, nil
}

func (c *Config) fillDefaults() {
	def := defaults()
	if c.Store.Tables == nil {
		c.Store.Tables = map[string]Table{}
	}
	for name, d := range def.Tables {
		t := c.Store.Tables[name]
		if t.Tab == "" {
			t.Tab = d.Tab
		}
		if t.MaxColumns == 0 {
			t.MaxColumns = d.MaxColumns
		}
		if t.MaxRows == 0 {
			t.MaxRows = d.MaxRows
		}
		c.Store.Tables[name] = t
	}
	if c.Store.Server.Listen == "" {
		c.Store.Server.Listen = def.Server.Listen
	}
	if c.Store.Server.Timezone == "" {
		c.Store.Server.Timezone = def.Server.Timezone
	}
	if c.Store.Drive.BaseFolder == "" {
		c.Store.Drive.BaseFolder = def.Drive.BaseFolder
	}
	if c.Store.Chat.Mode == "" {
		c.Store.Chat.Mode = def.Chat.Mode
	}
	if len(c.Store.Google.AllowedDomains) == 0 {
		c.Store.Google.AllowedDomains = def.Google.AllowedDomains
	}
	if c.Store.Checklist.DBPath == "" {
		c.Store.Checklist.DBPath = def.Checklist.DBPath
	}
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	s := &c.Store
	str("LISTEN", &s.Server.Listen)
	str("LOG_LEVEL", &s.Server.LogLevel)
	str("TIMEZONE", &s.Server.Timezone)
	str("SPREADSHEET_ID", &s.Google.SpreadsheetID)
	str("GOOGLE_CLIENT_ID", &s.Google.ClientID)
	str("CREDENTIALS_FILE", &s.Google.CredentialsFile)
	str("TOKEN_FILE", &s.Google.TokenFile)
	str("DRIVE_BASE_FOLDER", &s.Drive.BaseFolder)
	str("DRIVE_ROOT_ID", &s.Drive.RootID)
	str("CHAT_URL", &s.Chat.URL)
	str("CHAT_APP_KEY", &s.Chat.AppKey)
	str("CHAT_MODE", &s.Chat.Mode)
	str("CHECKLIST_DB", &s.Checklist.DBPath)

	if v, ok := lookup(envPrefix + "ALLOWED_DOMAINS"); ok {
		s.Google.AllowedDomains = splitList(v)
	}
	if v, ok := lookup(envPrefix + "SKIP_TOKEN_VERIFY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Google.SkipTokenVerify = b
		}
	}

	if s.Tables == nil {
		s.Tables = map[string]Table{}
	}
	for _, name := range TableNames {
		t := s.Tables[name]
		up := strings.ToUpper(name)
		str(up+"_SHEET_ID", &t.SpreadsheetID)
		str(up+"_TAB", &t.Tab)
		str(up+"_GID", &t.GridID)
		s.Tables[name] = t
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FallbackSpreadsheetID is the global id, else the Abiertos id, else the N3 id.
func (c *Config) FallbackSpreadsheetID() string {
	if c.Store.Google.SpreadsheetID != "" {
		return c.Store.Google.SpreadsheetID
	}
	if id := c.Store.Tables[Abiertos].SpreadsheetID; id != "" {
		return id
	}
	return c.Store.Tables[N3].SpreadsheetID
}

// Target resolves a table name, or a tab name such as "Master", to the
// range the sheets package reads.
func (c *Config) Target(name string) (sheets.Target, error) {
	name = c.alias(name)
	t, ok := c.Store.Tables[name]
	if !ok {
		return sheets.Target{}, fmt.Errorf("unknown table %q", name)
	}
	id := t.SpreadsheetID
	if id == "" {
		id = c.FallbackSpreadsheetID()
	}
	if id == "" {
		return sheets.Target{}, fmt.Errorf("%w for table %s", ErrNoSpreadsheet, name)
	}
	return sheets.Target{
		SpreadsheetID: id,
		Tab:           t.Tab,
		GridID:        t.GridID,
		MaxColumns:    t.MaxColumns,
		MaxRows:       t.MaxRows,
	}, nil
}

// alias maps the legacy "Master" tab and configured tab names onto table names.
func (c *Config) alias(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "master" {
		return Abiertos
	}
	if _, ok := c.Store.Tables[n]; ok {
		return n
	}
	for key, t := range c.Store.Tables {
		if strings.EqualFold(t.Tab, name) {
			return key
		}
	}
	return n
}

// Location is the configured timezone, or time.Local if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Store.Server.Timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", c.Store.Server.Timezone).Warn("Falling back to local time")
		return time.Local
	}
	return loc
}

func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Store.Server.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
