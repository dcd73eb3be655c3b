// Package checklist stores the team's ad-hoc follow-up list in a local
// sqlite database, independent of the ticket sheets.
package checklist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"opsboard/pkg/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("checklist item not found")
	ErrInvalid  = errors.New("invalid checklist item")
)

var nowFunc = time.Now

var Mesas = []string{"Nivel 1", "Nivel 2", "Nivel 3"}

// Statuses lists the row colours in priority order.
var Statuses = []struct {
	Key   string      `json:"key"`
	Style model.Style `json:"style"`
}{
	{"rojo", model.Style{Label: "Urgente", Background: "#FFE5E9", Border: "#fd006e", Text: "#b20049"}},
	{"naranja", model.Style{Label: "Importante", Background: "#FFF3E0", Border: "#ff8c00", Text: "#9a5100"}},
	{"amarillo", model.Style{Label: "En prueba", Background: "#FFFDE7", Border: "#FBC02D", Text: "#8d6e00"}},
	{"celeste", model.Style{Label: "A implementar", Background: "#E3F2FD", Border: "#398FFF", Text: "#1c4e9a"}},
	{"verde", model.Style{Label: "Solucionado (mantener)", Background: "#E8F5E9", Border: "#43A047", Text: "#1b5e20"}},
}

type Item struct {
	ID           string    `json:"id"`
	Tema         string    `json:"tema"`
	Responsable  string    `json:"responsable"`
	Mesa         string    `json:"mesa"`
	Analista     string    `json:"analista"`
	Invgate      string    `json:"invgate"`
	Detalle      string    `json:"detalle"`
	Comentarios  string    `json:"comentarios"`
	FechaEntrega string    `json:"fechaEntrega"`
	Estado       string    `json:"estado"`
	CreatedAt    time.Time `json:"createdAt"`
}

var digitsRe = regexp.MustCompile(`^\d+$`)

// Validate trims the item in place and checks it.
func (it *Item) Validate() error {
	it.Tema = strings.TrimSpace(it.Tema)
	it.Invgate = strings.TrimSpace(it.Invgate)
	it.Mesa = strings.TrimSpace(it.Mesa)
	it.Estado = strings.ToLower(strings.TrimSpace(it.Estado))

	if it.Tema == "" {
		return fmt.Errorf("%w: Completá el campo Tema", ErrInvalid)
	}
	if it.Invgate != "" && !digitsRe.MatchString(it.Invgate) {
		return fmt.Errorf("%w: InvGate debe ser numérico", ErrInvalid)
	}
	if it.Mesa == "" {
		it.Mesa = Mesas[0]
	}
	if !contains(Mesas, it.Mesa) {
		return fmt.Errorf("%w: mesa %q", ErrInvalid, it.Mesa)
	}
	if it.Estado != "" && statusRank(it.Estado) == len(Statuses) {
		return fmt.Errorf("%w: estado %q", ErrInvalid, it.Estado)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func statusRank(estado string) int {
	for i, s := range Statuses {
		if s.Key == estado {
			return i
		}
	}
	return len(Statuses)
}

// SortByPriority orders items by status (urgent first, unset last) and then
// by delivery date.
func SortByPriority(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := statusRank(items[i].Estado), statusRank(items[j].Estado)
		if ri != rj {
			return ri < rj
		}
		return items[i].FechaEntrega < items[j].FechaEntrega
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS checklist (
	id TEXT PRIMARY KEY,
	tema TEXT NOT NULL,
	responsable TEXT NOT NULL DEFAULT '',
	mesa TEXT NOT NULL DEFAULT 'Nivel 1',
	analista TEXT NOT NULL DEFAULT '',
	invgate TEXT NOT NULL DEFAULT '',
	detalle TEXT NOT NULL DEFAULT '',
	comentarios TEXT NOT NULL DEFAULT '',
	fecha_entrega TEXT NOT NULL DEFAULT '',
	estado TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checklist_created ON checklist (created_at);
`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps :memory: shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("checklist schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const columns = `id, tema, responsable, mesa, analista, invgate, detalle, comentarios, fecha_entrega, estado, created_at`

func scan(row interface{ Scan(...any) error }) (Item, error) {
	var it Item
	var created int64
	err := row.Scan(&it.ID, &it.Tema, &it.Responsable, &it.Mesa, &it.Analista, &it.Invgate,
		&it.Detalle, &it.Comentarios, &it.FechaEntrega, &it.Estado, &created)
	it.CreatedAt = time.Unix(0, created)
	return it, err
}

// List returns every item, newest first.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM checklist ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Item, error) {
	it, err := scan(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM checklist WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

// Create validates and inserts it with a fresh id.
func (s *Store) Create(ctx context.Context, it Item) (Item, error) {
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	it.ID = uuid.NewString()
	it.CreatedAt = nowFunc()
	_, err := s.db.ExecContext(ctx, `INSERT INTO checklist (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Tema, it.Responsable, it.Mesa, it.Analista, it.Invgate,
		it.Detalle, it.Comentarios, it.FechaEntrega, it.Estado, it.CreatedAt.UnixNano())
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

// Update replaces every editable field of the item with it.ID.
func (s *Store) Update(ctx context.Context, it Item) (Item, error) {
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE checklist SET tema = ?, responsable = ?, mesa = ?, analista = ?,
		invgate = ?, detalle = ?, comentarios = ?, fecha_entrega = ?, estado = ? WHERE id = ?`,
		it.Tema, it.Responsable, it.Mesa, it.Analista, it.Invgate,
		it.Detalle, it.Comentarios, it.FechaEntrega, it.Estado, it.ID)
	if err := affected(res, err); err != nil {
		return Item{}, err
	}
	return s.Get(ctx, it.ID)
}

// SetEstado changes only the status colour; "" clears it.
func (s *Store) SetEstado(ctx context.Context, id, estado string) error {
	estado = strings.ToLower(strings.TrimSpace(estado))
	if estado != "" && statusRank(estado) == len(Statuses) {
		return fmt.Errorf("%w: estado %q", ErrInvalid, estado)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE checklist SET estado = ? WHERE id = ?`, estado, id)
	return affected(res, err)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM checklist WHERE id = ?`, id)
	return affected(res, err)
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
