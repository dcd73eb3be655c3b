package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	abiertosHeader = []string{
		"Nro", "Estado", "Tipo", "Mesa", "Módulo", "Agente asignado", "Prioridad", "Asunto",
		"Fecha de creación", "Fecha fin", "Marca", "Etiqueta", "Etiqueta Madre", "Etiqueta Color",
		"Ticket N3", "Comentario", "Escalamiento",
	}
	cerradosHeader = []string{
		"Nro", "Estado", "Tipo", "Mesa asignada", "Módulo", "Agente asignado", "Prioridad", "Asunto",
		"Fecha de creación", "Fecha fin",
	}
)

type testEnv struct {
	svc     *Service
	handler http.Handler
	values  *sheets.MockValues
	files   *mockFiles
	chatReq chan map[string]string
}

func newTestEnv(t *testing.T, gate *auth.Gate) *testEnv {
	t.Helper()

	orig := nowFunc
	nowFunc = func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = orig })

	values := sheets.NewMockValues()
	values.SetTab("Abiertos", abiertosHeader,
		[]string{"100", "Abierto", "Incidente", "Beesion", "CRM", "Ana", "Alta", "Falla login", "15/05/2025", "", "", "", "", "", "", "", "Posible N3"},
		[]string{"101", "Pendiente", "Pedido de cambio", "Tenfold", "Billing", "Bruno", "Media", "Nuevo reporte", "10/05/2025", "", "", "", "", "", "", "", ""},
		[]string{"102", "En espera", "Incidente", "Nivel 1", "CRM", "Ana", "Baja", "Consulta", "01/01/2025", "", "", "", "", "", "", "", ""},
	)
	values.SetTab("Cerrados", cerradosHeader,
		[]string{"90", "Resuelto", "Incidente", "Beesion", "CRM", "Ana", "Alta", "x", "01/05/2025", "18/05/2025"},
		[]string{"91", "Resuelto", "Pedido de cambio", "Invgate", "Portal", "Bruno", "Media", "y", "02/05/2025", "19/05/2025"},
	)
	values.SetTab("Gemini", []string{"Tema", "Insight", "Última actualización"},
		[]string{"Login", "Picos los lunes", "19/05/2025"},
		[]string{"", "Sin datos", ""},
	)

	env := &testEnv{values: values, files: newMockFiles(), chatReq: make(chan map[string]string, 4)}

	chatSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		env.chatReq <- body
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"reply":"Nro: 100\nEstado: Abierto"}`)
	}))
	t.Cleanup(chatSrv.Close)

	store, err := checklist.Open(filepath.Join(t.TempDir(), "checklist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	target := func(tab string) sheets.Target { return sheets.Target{SpreadsheetID: "book", Tab: tab} }
	env.svc = NewService(Options{
		Targets: map[string]sheets.Target{
			config.Abiertos: target("Abiertos"),
			config.Cerrados: target("Cerrados"),
			config.Gemini:   target("Gemini"),
		},
		Values:     values,
		Files:      env.files,
		BaseFolder: "Docs",
		Chat:       chat.NewClient(chatSrv.URL, "app-key", chat.ModePost),
		Checklist:  store,
		Location:   time.UTC,
	})
	env.handler = GetRouter(env.svc, gate)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func keys(rows []sheets.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Get("Nro"))
	}
	return out
}

func TestGetTable(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/tables/abiertos", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[TableView](t, w)
	assert.Equal(t, "abiertos", view.Table)
	assert.Equal(t, []string{"100", "101", "102"}, keys(view.Rows))
	assert.Equal(t, []string{"Beesion", "Nivel 1", "Tenfold"}, view.Options["Mesa"])
	assert.Equal(t, []string{"Ticket N3", "Comentario"}, view.Editable)
	assert.Equal(t, "Pruebas de Usuario", view.Marks[model.MarkAmarillo].Label)
	assert.Empty(t, view.Warnings)
}

func TestGetTable_Filters(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name  string
		table string
		query url.Values
		want  []string
	}{
		{"one column", "abiertos", url.Values{"filter": {"Mesa=Beesion"}}, []string{"100"}},
		{"or within column", "abiertos", url.Values{"filter": {"Mesa=Beesion", "Mesa=Nivel 1"}}, []string{"100", "102"}},
		{"and across columns", "abiertos", url.Values{"filter": {"Módulo=CRM", "Agente asignado=Ana", "Estado=En espera"}}, []string{"102"}},
		{"changes", "abiertos", url.Values{"dataset": {"evo"}}, []string{"101"}},
		{"incidents", "abiertos", url.Values{"dataset": {"inv"}}, []string{"100", "102"}},
		{"search ignores accents", "abiertos", url.Values{"search": {"CONSULTÁ"}}, []string{"102"}},
		{"master alias", "Master", url.Values{"filter": {"Mesa=Tenfold"}}, []string{"101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/v1/tables/"+tt.table+"?"+tt.query.Encode(), nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, keys(decode[TableView](t, w).Rows))
		})
	}
}

func TestGetTable_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/tables/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/v1/tables/abiertos?filter=sin-igual", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodGet, "/v1/tables/abiertos?dataset=otro", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	env.values.GetErr = errors.New("network down")
	w = env.do(t, http.MethodGet, "/v1/tables/abiertos", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRefreshKeepsRowsOnFailure(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/v1/tables/abiertos/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env.values.GetErr = errors.New("network down")
	w = env.do(t, http.MethodPost, "/v1/tables/abiertos/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// the stale rows are still served
	w = env.do(t, http.MethodGet, "/v1/tables/abiertos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[TableView](t, w).Rows, 3)
}

type writeBody struct {
	Result  sheets.WriteResult   `json:"result"`
	Pending []board.PendingWrite `json:"pending"`
}

func TestEditRow(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPatch, "/v1/tables/abiertos/rows/100", map[string]any{
		"set": map[string]string{"Comentario": "revisado", "Ticket N3": "N3-77"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[writeBody](t, w)
	assert.Equal(t, 2, res.Result.Written)
	assert.Len(t, res.Pending, 2)
	assert.Equal(t, "revisado", env.values.Cell("Abiertos", 2, 15))
	assert.Equal(t, "N3-77", env.values.Cell("Abiertos", 2, 14))

	// the next read confirms the writes
	w = env.do(t, http.MethodPost, "/v1/tables/abiertos/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "pending")
	assert.NotContains(t, w.Body.String(), "conflicts")
}

func TestEditRow_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		path   string
		set    map[string]string
		status int
	}{
		{"not editable", "/v1/tables/abiertos/rows/100", map[string]string{"Estado": "Resuelto"}, http.StatusUnprocessableEntity},
		{"unknown row", "/v1/tables/abiertos/rows/999", map[string]string{"Comentario": "x"}, http.StatusNotFound},
		{"read-only table", "/v1/tables/cerrados/rows/90", map[string]string{"Estado": "x"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPatch, tt.path, map[string]any{"set": tt.set})
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, env.values.Batches)
}

func TestEditRow_WriteFailureKeepsPatch(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/v1/tables/abiertos", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env.values.UpdateErr = errors.New("quota")
	w = env.do(t, http.MethodPatch, "/v1/tables/abiertos/rows/101", map[string]any{"set": map[string]string{"Comentario": "x"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = env.do(t, http.MethodGet, "/v1/tables/abiertos?filter=Nro=101", nil)
	view := decode[TableView](t, w)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "x", view.Rows[0].Get("Comentario"))
	require.Len(t, view.Pending, 1)
	assert.True(t, view.Pending[0].Failed)

	// the sheet never took the value: the next load reports it
	env.values.UpdateErr = nil
	w = env.do(t, http.MethodPost, "/v1/tables/abiertos/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed struct {
		Conflicts []board.Conflict `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	assert.Equal(t, []board.Conflict{{Key: "101", Column: "Comentario", Expected: "x", Actual: ""}}, refreshed.Conflicts)
}

func TestMarkRow(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPut, "/v1/tables/abiertos/rows/101/mark", map[string]string{"mark": "Amarillo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "amarillo", env.values.Cell("Abiertos", 3, 10))

	w = env.do(t, http.MethodPut, "/v1/tables/abiertos/rows/101/mark", map[string]string{"mark": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", env.values.Cell("Abiertos", 3, 10))

	w = env.do(t, http.MethodPut, "/v1/tables/abiertos/rows/101/mark", map[string]string{"mark": "rojo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/v1/tables/cerrados/rows/90/mark", map[string]string{"mark": "celeste"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLabels(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/v1/tables/abiertos/rows/100/label-owner", map[string]string{"name": "Facturación", "color": "Rosa"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Sí", env.values.Cell("Abiertos", 2, 12))
	assert.Equal(t, "rosa", env.values.Cell("Abiertos", 2, 13))

	w = env.do(t, http.MethodPut, "/v1/tables/abiertos/rows/101/label", map[string]string{"name": "Facturación"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Facturación", env.values.Cell("Abiertos", 3, 11))

	w = env.do(t, http.MethodPost, "/v1/tables/abiertos/rows/102/label-owner", map[string]string{"name": "Facturación"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/v1/tables/abiertos/rows/102/label", map[string]string{"name": "Soporte"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// an owner row cannot point at a different label
	w = env.do(t, http.MethodPut, "/v1/tables/abiertos/rows/100/label", map[string]string{"name": "Soporte"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(t, http.MethodPost, "/v1/tables/abiertos/rows/100/label-owner", map[string]string{"name": "Soporte"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Facturación", env.values.Cell("Abiertos", 2, 11))

	w = env.do(t, http.MethodGet, "/v1/tables/abiertos/labels", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var labels struct {
		Labels []struct {
			Name     string `json:"name"`
			OwnerKey string `json:"ownerKey"`
			Color    string `json:"color"`
		} `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &labels))
	require.Len(t, labels.Labels, 1)
	assert.Equal(t, "100", labels.Labels[0].OwnerKey)
	assert.Equal(t, "rosa", labels.Labels[0].Color)

	// removing the owner clears every reference
	w = env.do(t, http.MethodDelete, "/v1/tables/abiertos/rows/100/label-owner", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "", env.values.Cell("Abiertos", 3, 11))
	assert.Equal(t, "", env.values.Cell("Abiertos", 2, 12))
}

func TestReports(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/reports/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary struct {
		reports.Summary
		Created []model.DayCount `json:"created"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 30, summary.WindowDays)
	assert.Equal(t, 1, summary.CreatedIncidents)
	assert.Equal(t, 1, summary.CreatedChanges)
	assert.Equal(t, 1, summary.ClosedIncidents)
	assert.Equal(t, 1, summary.ClosedChanges)
	assert.Len(t, summary.Created, 2)

	w = env.do(t, http.MethodGet, "/v1/reports/summary?days=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/v1/reports/distribution", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[reports.Distribution](t, w)
	assert.Equal(t, 2, d.TotalIncidents)
	assert.Equal(t, 1, d.TotalChanges)

	w = env.do(t, http.MethodGet, "/v1/reports/distribution?view=otro", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/v1/reports/escalations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	esc := decode[[]model.Ticket](t, w)
	require.Len(t, esc, 1)
	assert.Equal(t, "100", esc[0].Key)

	w = env.do(t, http.MethodGet, "/v1/reports/insights", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ins := decode[[]reports.Insight](t, w)
	require.Len(t, ins, 2)
	assert.Equal(t, "Sin tema", ins[1].Tema)
}

func TestExportXLSX(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/reports/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxMime, w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reporte-2025-05-20.xlsx")

	env2 := newTestEnv(t, nil)
	env2.values.GetErr = errors.New("network down")
	w = env2.do(t, http.MethodGet, "/v1/reports/export.xlsx", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDrive(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/drive/portals/cxm/tutoriales", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var folder struct {
		FolderID string       `json:"folderId"`
		Files    []drive.File `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &folder))
	assert.Empty(t, folder.Files)
	leaf, err := env.files.Get(context.Background(), folder.FolderID, drive.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Tutoriales / Guías", leaf.Name)

	req := httptest.NewRequest(http.MethodPost, "/v1/drive/portals/cxm/tutoriales/files?name=guia.pdf", strings.NewReader("PDFDATA"))
	req.Header.Set("Content-Type", "application/pdf")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	uploaded := decode[drive.File](t, rec)
	assert.Equal(t, "guia.pdf", uploaded.Name)

	w = env.do(t, http.MethodPost, "/v1/drive/portals/cxm/tutoriales/shortcuts",
		map[string]string{"target": "https://docs.google.com/document/d/abc123/edit"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sc := decode[drive.File](t, w)
	assert.Equal(t, "Atajo", sc.Name)
	assert.Equal(t, "abc123", sc.ShortcutTarget)

	w = env.do(t, http.MethodGet, "/v1/drive/portals/cxm/tutoriales", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &folder))
	assert.Len(t, folder.Files, 2)

	w = env.do(t, http.MethodGet, "/v1/drive/files/"+uploaded.ID+"/content", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PDFDATA", w.Body.String())

	w = env.do(t, http.MethodDelete, "/v1/drive/files/"+uploaded.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/v1/drive/files/"+uploaded.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDrive_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/drive/portals/xyz/tutoriales", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/v1/drive/portals/cxm/analisis/shortcuts", map[string]string{"target": "https://example.com/nothing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/v1/drive/portals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SCRIPTS NIVEL 3")
}

func TestChat(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/v1/chat", map[string]string{"text": "estado 100"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decode[chat.Reply](t, w)
	assert.False(t, reply.Error)
	require.Len(t, reply.Details, 2)
	assert.Equal(t, chat.DetailLine{Label: "Estado", Value: "Abierto"}, reply.Details[1])

	sent := <-env.chatReq
	assert.Equal(t, "estado 100", sent["text"])
	assert.Equal(t, "app-key", sent["appKey"])

	w = env.do(t, http.MethodPost, "/v1/chat", map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_NetworkError(t *testing.T) {
	env := newTestEnv(t, nil)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	env.svc.chat = chat.NewClient(dead.URL, "", chat.ModePost)

	w := env.do(t, http.MethodPost, "/v1/chat", map[string]string{"text": "hola"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decode[chat.Reply](t, w)
	assert.Equal(t, chat.NetworkError, reply.Text)
	assert.True(t, reply.Error)
}

func TestChecklist(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/v1/checklist", map[string]string{"tema": "VPN caída", "estado": "verde"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[checklist.Item](t, w)
	assert.Equal(t, "Nivel 1", first.Mesa)

	w = env.do(t, http.MethodPost, "/v1/checklist", map[string]string{"tema": "Backup", "estado": "rojo", "invgate": "555"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/v1/checklist", map[string]string{"tema": "Mal", "invgate": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	type list struct {
		Items []checklist.Item `json:"items"`
	}
	w = env.do(t, http.MethodGet, "/v1/checklist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[list](t, w).Items
	require.Len(t, items, 2)
	assert.Equal(t, "Backup", items[0].Tema)

	w = env.do(t, http.MethodPut, "/v1/checklist/"+first.ID+"/estado", map[string]string{"estado": "naranja"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "naranja", decode[checklist.Item](t, w).Estado)

	w = env.do(t, http.MethodGet, "/v1/checklist?sort=priority", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items = decode[list](t, w).Items
	assert.Equal(t, "Backup", items[0].Tema)
	assert.Equal(t, "VPN caída", items[1].Tema)

	w = env.do(t, http.MethodPut, "/v1/checklist/"+first.ID, map[string]string{"tema": "VPN", "responsable": "Ana"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ana", decode[checklist.Item](t, w).Responsable)

	w = env.do(t, http.MethodDelete, "/v1/checklist/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/v1/checklist/"+first.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnconfiguredServices(t *testing.T) {
	svc := NewService(Options{})
	h := GetRouter(svc, nil)

	for _, path := range []string{"/v1/reports/insights", "/v1/checklist", "/v1/drive/portals/cxm/analisis"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
