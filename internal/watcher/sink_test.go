package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/hyperjump/outfitter/internal/ingest"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/tasks"
)

type fakeIngester struct {
	files   []string
	forced  []bool
	removed []string
	err     error
}

func (f *fakeIngester) IngestFile(_ context.Context, path string, _ []string, force bool) (*ingest.Outcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.files = append(f.files, path)
	f.forced = append(f.forced, force)
	return &ingest.Outcome{Record: &models.OutfitRecord{ID: "look"}}, nil
}

func (f *fakeIngester) RemoveSource(_ context.Context, source string) (bool, error) {
	f.removed = append(f.removed, source)
	return true, f.err
}

type fakeClient struct{ tasks []*asynq.Task }

func (f *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t"}, nil
}

func TestIngestSink(t *testing.T) {
	ctx := context.Background()
	ing := &fakeIngester{}
	s := NewIngestSink(ing, nil)
	s.Upsert(ctx, "/inbox/look.jpg", true)
	s.Remove(ctx, "/inbox/old.jpg")
	if len(ing.files) != 1 || !ing.forced[0] || len(ing.removed) != 1 {
		t.Errorf("ingester calls = %+v", ing)
	}

	ing.err = errors.New("vision down")
	s.Upsert(ctx, "/inbox/other.jpg", false)
	s.Remove(ctx, "/inbox/other.jpg")
}

func TestQueueSink(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	ing := &fakeIngester{}
	s := NewQueueSink(tasks.NewQueue(client, nil), ing, nil)
	s.Upsert(ctx, "/inbox/look.jpg", false)
	s.Remove(ctx, "/inbox/look.jpg")

	if len(client.tasks) != 1 || client.tasks[0].Type() != tasks.TypeAnalyzeOutfit {
		t.Fatalf("enqueued = %v", client.tasks)
	}
	var p tasks.AnalyzeOutfitPayload
	if err := json.Unmarshal(client.tasks[0].Payload(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Source != "/inbox/look.jpg" || !p.Local {
		t.Errorf("payload = %+v, want a local source", p)
	}
	if len(ing.files) != 0 || len(ing.removed) != 1 {
		t.Errorf("ingester calls = %+v", ing)
	}
}
