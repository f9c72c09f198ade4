package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	testhelpers "github.com/vsinha/stockpick/pkg/infrastructure/testing"
)

// fakeSheets is a minimal in-memory Sheets API serving one spreadsheet
type fakeSheets struct {
	mu     sync.Mutex
	id     string
	order  []string
	values map[string][][]interface{}
}

func newFakeSheets(id string) *fakeSheets {
	return &fakeSheets{id: id, values: make(map[string][][]interface{})}
}

func unquote(a1 string) string {
	title := strings.SplitN(a1, "!", 2)[0]
	title = strings.TrimSuffix(strings.TrimPrefix(title, "'"), "'")
	return strings.ReplaceAll(title, "''", "'")
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := "/v4/spreadsheets/" + f.id
	if !strings.HasPrefix(r.URL.Path, base) {
		http.NotFound(w, r)
		return
	}

	switch suffix := strings.TrimPrefix(r.URL.Path, base); {
	case suffix == "" && r.Method == http.MethodGet:
		sheets := make([]map[string]interface{}, 0, len(f.order))
		for _, title := range f.order {
			sheets = append(sheets, map[string]interface{}{"properties": map[string]interface{}{"title": title}})
		}
		writeJSON(w, map[string]interface{}{"sheets": sheets})

	case suffix == ":batchUpdate":
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.order = append(f.order, rq.AddSheet.Properties.Title)
		}
		writeJSON(w, map[string]interface{}{"spreadsheetId": f.id})

	case suffix == "/values:batchGet":
		var ranges []map[string]interface{}
		for _, a1 := range r.URL.Query()["ranges"] {
			ranges = append(ranges, map[string]interface{}{"range": a1, "values": f.values[unquote(a1)]})
		}
		writeJSON(w, map[string]interface{}{"spreadsheetId": f.id, "valueRanges": ranges})

	case suffix == "/values:batchClear":
		var req struct {
			Ranges []string `json:"ranges"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, a1 := range req.Ranges {
			delete(f.values, unquote(a1))
		}
		writeJSON(w, map[string]interface{}{"spreadsheetId": f.id})

	case suffix == "/values:batchUpdate":
		var req struct {
			Data []struct {
				Range  string          `json:"range"`
				Values [][]interface{} `json:"values"`
			} `json:"data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, vr := range req.Data {
			f.values[unquote(vr.Range)] = vr.Values
		}
		writeJSON(w, map[string]interface{}{"spreadsheetId": f.id})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestRepo(t *testing.T, fake *fakeSheets) *Repository {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	repo, err := NewRepository(context.Background(), nil,
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return repo
}

func TestRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSheets("sheet-1")
	fake.order = []string{"Stock-In-Hand", "Archive"}
	fake.values["Archive"] = [][]interface{}{{"kept"}}
	repo := newTestRepo(t, fake)

	ds := testhelpers.BuildScenario("exhaust")
	require.NoError(t, repo.Save(ctx, "sheet-1", ds))

	assert.Equal(t, []string{"Stock-In-Hand", "Archive", "New-Order", "Out-stock", "Not-Available"}, fake.order)
	assert.Equal(t, [][]interface{}{{"kept"}}, fake.values["Archive"])

	loaded, err := repo.Load(ctx, "sheet-1")
	require.NoError(t, err)
	assert.Equal(t, fake.order, loaded.TableNames())

	want, err := ds.ReadTable("Stock-In-Hand")
	require.NoError(t, err)
	got, err := loaded.ReadTable("Stock-In-Hand")
	require.NoError(t, err)
	assert.Equal(t, want.Columns, got.Columns)
	assert.Equal(t, want.Rows, got.Rows)

	archive, err := loaded.ReadTable("Archive")
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, archive.Columns)
	assert.Empty(t, archive.Rows)
}

func TestRepository_SaveClearsOldRows(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSheets("sheet-1")
	repo := newTestRepo(t, fake)

	require.NoError(t, repo.Save(ctx, "sheet-1", testhelpers.BuildScenario("contention")))

	drained := testhelpers.BuildDataset(nil, nil)
	require.NoError(t, repo.Save(ctx, "sheet-1", drained))

	loaded, err := repo.Load(ctx, "sheet-1")
	require.NoError(t, err)
	orders, err := loaded.ReadTable("New-Order")
	require.NoError(t, err)
	assert.Equal(t, testhelpers.DemandHeader(), orders.Columns)
	assert.Empty(t, orders.Rows)
}

func TestRepository_UnknownSpreadsheet(t *testing.T) {
	repo := newTestRepo(t, newFakeSheets("sheet-1"))

	_, err := repo.Load(context.Background(), "other")
	assert.Error(t, err)
	assert.Error(t, repo.Save(context.Background(), "other", entities.NewDataset()))
}

func TestRepository_OutputLocation(t *testing.T) {
	repo := &Repository{}
	assert.Equal(t, "sheet-1", repo.OutputLocation("sheet-1", "", time.Now()))
	assert.Equal(t, "sheet-2", repo.OutputLocation("sheet-1", "sheet-2", time.Now()))
}
