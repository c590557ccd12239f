package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/outfitter/internal/catalog"
	"github.com/hyperjump/outfitter/internal/config"
	"github.com/hyperjump/outfitter/internal/index"
	"github.com/hyperjump/outfitter/internal/ingest"
	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/kvstore"
	"github.com/hyperjump/outfitter/internal/llm"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/ranking"
	"github.com/hyperjump/outfitter/internal/search"
	"github.com/hyperjump/outfitter/internal/selection"
	"github.com/hyperjump/outfitter/internal/storage"
	"github.com/hyperjump/outfitter/internal/tasks"
)

var jpeg = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")

type fixture struct {
	handler http.Handler
	catalog *catalog.Catalog
	index   *index.Index
	text    *llm.MockText
}

type fakeWatch struct{ dirs []string }

func (f *fakeWatch) Directories() []string { return f.dirs }

type fakeClient struct{ tasks []*asynq.Task }

func (f *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-7"}, nil
}

func newFixture(t *testing.T, queue TaskQueue, records ...*models.OutfitRecord) *fixture {
	t.Helper()
	ctx := context.Background()
	cat, err := catalog.New(storage.NewMemoryStore())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })
	for _, rec := range records {
		_, err := cat.Save(ctx, rec)
		require.NoError(t, err)
	}
	vocab := keyword.NewVocabulary()
	kv := kvstore.NewMemoryStore()
	ix := index.New(kv, vocab, cat)
	_, err = ix.RebuildAll(ctx, false)
	require.NoError(t, err)

	calc := ranking.NewCalculator(nil, vocab)
	finder := search.NewFinder(cat, ix, calc, vocab)
	policy := selection.NewPolicy(selection.NewRecencyWindow(kv), cat, calc)
	text := &llm.MockText{}
	deps := Deps{
		Matcher:  search.NewEngine(cat, finder, policy),
		Composer: llm.NewComposer(text, nil),
		Records:  cat,
		Ingester: ingest.New(cat, ix, llm.NewMockVision()),
		Index:    ix,
		Queue:    queue,
		Watch:    &fakeWatch{dirs: []string{"/inbox"}},
	}
	s := NewServer(deps, &config.ServerConfig{Host: "localhost", Port: 0}, nil, WithStorageBackend("memory"))
	return &fixture{handler: s.Handler(), catalog: cat, index: ix, text: text}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func businessRecord() *models.OutfitRecord {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return &models.OutfitRecord{
		ID: "suit_1",
		Garments: map[models.Slot]models.GarmentAttributes{
			models.SlotTop:    {Name: "blazer", Color: "navy"},
			models.SlotBottom: {Name: "slacks", Color: "gray"},
		},
		SituationTags: []string{"business"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestHandleMatch(t *testing.T) {
	f := newFixture(t, nil, businessRecord())

	rec, out := f.do(t, http.MethodPost, "/api/v1/match", map[string]interface{}{
		"text": "business meeting", "expert_role": "colorist", "compose": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["found"])
	assert.Equal(t, "color_expert", out["expert_role"])
	assert.NotEmpty(t, out["session_id"])
	assert.Contains(t, out["response"], "You are a color expert.")
	record := out["record"].(map[string]interface{})
	assert.Equal(t, "suit_1", record["id"])
}

func TestHandleMatch_errors(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body interface{}
		code int
	}{
		{"bad body", "not an object", http.StatusBadRequest},
		{"empty text", map[string]string{"text": "  "}, http.StatusBadRequest},
		{"unknown role", map[string]string{"text": "date", "expert_role": "astrologer"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := f.do(t, http.MethodPost, "/api/v1/match", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec, out := f.do(t, http.MethodPost, "/api/v1/match", map[string]interface{}{"text": "date", "session_id": "s1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["found"])
	assert.Equal(t, models.ReasonEmptyCatalog, out["reason"])
	assert.Equal(t, "s1", out["session_id"])
	assert.Nil(t, out["response"])
}

func TestHandleRecords_lifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	rec, out := f.do(t, http.MethodPost, "/api/v1/records", map[string]interface{}{
		"source": "look 01.jpg", "image_base64": base64.StdEncoding.EncodeToString(jpeg),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := out["record"].(map[string]interface{})["id"].(string)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/records", map[string]interface{}{
		"source": "look 01.jpg", "image_base64": base64.StdEncoding.EncodeToString(jpeg),
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out = f.do(t, http.MethodGet, "/api/v1/records/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "look 01.jpg", out["source_url"])

	rec, out = f.do(t, http.MethodPut, "/api/v1/records/"+id+"/tags", map[string]interface{}{"tags": []string{"Travel", "date"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"travel", "date"}, out["situation_tags"])
	assert.Equal(t, []string{id}, f.index.Query(ctx, index.KindSituation, "travel", 0))
	assert.Empty(t, f.index.Query(ctx, index.KindSituation, "business", 0))

	rec, _ = f.do(t, http.MethodDelete, "/api/v1/records/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(t, http.MethodDelete, "/api/v1/records/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = f.do(t, http.MethodGet, "/api/v1/records/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = f.do(t, http.MethodPut, "/api/v1/records/"+id+"/tags", map[string]interface{}{"tags": []string{"date"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleIngest_badInput(t *testing.T) {
	f := newFixture(t, nil)
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"no source", map[string]interface{}{"image_base64": base64.StdEncoding.EncodeToString(jpeg)}},
		{"bad base64", map[string]interface{}{"source": "a.jpg", "image_base64": "%%%"}},
		{"not an image", map[string]interface{}{"source": "a.txt", "image_base64": base64.StdEncoding.EncodeToString([]byte("hello"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := f.do(t, http.MethodPost, "/api/v1/records", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleIngest_rejectsLocalPaths(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secret.jpg")
	require.NoError(t, os.WriteFile(path, jpeg, 0o600))

	client := &fakeClient{}
	f := newFixture(t, tasks.NewQueue(client, nil))
	for _, body := range []map[string]interface{}{
		{"source": path},
		{"source_url": "file://" + path},
		{"source": path, "async": true},
		{"source": "ftp://example.com/a.jpg"},
	} {
		rec, out := f.do(t, http.MethodPost, "/api/v1/records", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %v", body)
		assert.Equal(t, ingest.ErrLocalSource.Error(), out["error"])
	}
	assert.Empty(t, client.tasks)
	n, err := f.catalog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandleQueued(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, tasks.NewQueue(client, nil))

	rec, out := f.do(t, http.MethodPost, "/api/v1/records", map[string]interface{}{"source": "https://cdn.example.com/a.jpg", "async": true})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "task-7", out["task_id"])

	rec, _ = f.do(t, http.MethodPost, "/api/v1/index/rebuild?force=true", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, client.tasks, 2)
	assert.Equal(t, tasks.TypeAnalyzeOutfit, client.tasks[0].Type())
	assert.Equal(t, tasks.TypeRebuildIndex, client.tasks[1].Type())
}

func TestHandleRebuildAndStatus(t *testing.T) {
	f := newFixture(t, nil, businessRecord())

	rec, out := f.do(t, http.MethodPost, "/api/v1/index/rebuild?force=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), out["indexed"])

	rec, out = f.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), out["records"])
	assert.Equal(t, "memory", out["storage_backend"])
	assert.Equal(t, false, out["queue_enabled"])
	idx := out["index"].(map[string]interface{})
	assert.Equal(t, true, idx["available"])
	assert.Equal(t, float64(1), idx["indexed"])
	assert.Equal(t, []interface{}{"/inbox"}, out["watch_directories"])

	rec, out = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}
