package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/outfitter/internal/catalog"
	"github.com/hyperjump/outfitter/internal/index"
	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/kvstore"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/ranking"
	"github.com/hyperjump/outfitter/internal/selection"
	"github.com/hyperjump/outfitter/internal/storage"
)

type harness struct {
	catalog *catalog.Catalog
	index   *index.Index
	finder  *Finder
	engine  *Engine
}

func outfit(id string, tags []string, top, bottom models.GarmentAttributes) *models.OutfitRecord {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return &models.OutfitRecord{
		ID:            id,
		Garments:      map[models.Slot]models.GarmentAttributes{models.SlotTop: top, models.SlotBottom: bottom},
		SituationTags: tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newHarness(t *testing.T, blobs storage.BlobStore, records ...*models.OutfitRecord) *harness {
	t.Helper()
	ctx := context.Background()
	cat, err := catalog.New(blobs)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	for _, rec := range records {
		if _, err := cat.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	vocab := keyword.NewVocabulary()
	kv := kvstore.NewMemoryStore()
	ix := index.New(kv, vocab, cat)
	if len(records) > 0 {
		if _, err := ix.RebuildAll(ctx, false); err != nil {
			t.Fatal(err)
		}
	}
	calc := ranking.NewCalculator(nil, vocab)
	finder := NewFinder(cat, ix, calc, vocab)
	policy := selection.NewPolicy(selection.NewRecencyWindow(kv), cat, calc,
		selection.WithRand(rand.New(rand.NewPCG(1, 2))))
	return &harness{catalog: cat, index: ix, finder: finder, engine: NewEngine(cat, finder, policy)}
}

func rankedIDs(c *Candidates) []string {
	out := make([]string, 0, len(c.Ranked))
	for _, s := range c.Ranked {
		out = append(out, s.Record.ID)
	}
	sort.Strings(out)
	return out
}

func businessCatalog() []*models.OutfitRecord {
	return []*models.OutfitRecord{
		outfit("r1", []string{"business"}, models.GarmentAttributes{Name: "blazer", Color: "navy"}, models.GarmentAttributes{Name: "slacks", Color: "gray"}),
		outfit("r2", []string{"business"}, models.GarmentAttributes{Name: "shirt", Color: "white"}, models.GarmentAttributes{Name: "slacks", Color: "beige"}),
		outfit("r3", nil, models.GarmentAttributes{Name: "hoodie", Color: "black"}, models.GarmentAttributes{Name: "jogger", Color: "black"}),
		outfit("r4", nil, models.GarmentAttributes{Name: "tee", Color: "white"}, models.GarmentAttributes{Name: "shorts", Color: "beige"}),
	}
}

func TestEngine_EmptyCatalog(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore())
	res, err := h.engine.Match(context.Background(), models.MatchQuery{Text: "date outfit", SessionID: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found || res.Reason != models.ReasonEmptyCatalog {
		t.Errorf("got Found=%v Reason=%q, want empty_catalog", res.Found, res.Reason)
	}
}

type downBlobs struct{ *storage.MemoryStore }

func (*downBlobs) List(context.Context, string) ([]storage.BlobInfo, error) {
	return nil, errors.New("connection refused")
}

func TestEngine_CatalogUnavailable(t *testing.T) {
	h := newHarness(t, &downBlobs{storage.NewMemoryStore()})
	_, err := h.engine.Match(context.Background(), models.MatchQuery{Text: "date outfit"})
	if !errors.Is(err, catalog.ErrCatalogUnavailable) {
		t.Errorf("Match() error = %v, want ErrCatalogUnavailable", err)
	}
}

func TestEngine_EmptyQuery(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(), businessCatalog()...)
	_, err := h.engine.Match(context.Background(), models.MatchQuery{Text: "   "})
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Match() error = %v, want ErrEmptyQuery", err)
	}
}

func TestEngine_NoCandidates(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(),
		outfit("x", nil, models.GarmentAttributes{Name: "blouse"}, models.GarmentAttributes{Name: "skirt"}))
	res, err := h.engine.Match(context.Background(), models.MatchQuery{Text: "anything", SessionID: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found || res.Reason != models.ReasonNoCandidates {
		t.Errorf("got Found=%v Reason=%q, want no_candidates", res.Found, res.Reason)
	}
}

func TestEngine_NeverOffersJacketWithShortsForBusiness(t *testing.T) {
	records := []*models.OutfitRecord{
		outfit("blazer_shorts", []string{"business"}, models.GarmentAttributes{Name: "blazer"}, models.GarmentAttributes{Name: "shorts"}),
		outfit("suit", []string{"business"}, models.GarmentAttributes{Name: "blazer", Color: "navy"}, models.GarmentAttributes{Name: "slacks", Color: "gray"}),
		outfit("shirt", []string{"business"}, models.GarmentAttributes{Name: "shirt", Color: "white"}, models.GarmentAttributes{Name: "slacks", Color: "beige"}),
		outfit("tee", []string{"daily"}, models.GarmentAttributes{Name: "graphic tee"}, models.GarmentAttributes{Name: "denim shorts"}),
	}
	h := newHarness(t, storage.NewMemoryStore(), records...)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		// Fresh sessions, then one session asked repeatedly.
		session := fmt.Sprintf("s%d", i)
		if i >= 50 {
			session = "repeat"
		}
		res, err := h.engine.Match(ctx, models.MatchQuery{Text: "business meeting attire", SessionID: session})
		if err != nil {
			t.Fatal(err)
		}
		if !res.Found {
			t.Fatalf("turn %d: Found = false (%s)", i, res.Reason)
		}
		if res.Record.ID == "blazer_shorts" {
			t.Fatalf("turn %d: jacket with shorts offered for a business meeting", i)
		}
	}
}

func TestEngine_IntroductionMeeting(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(),
		outfit("striped", []string{"date"}, models.GarmentAttributes{Name: "striped shirt"}, models.GarmentAttributes{Name: "slacks"}),
		outfit("plain", []string{"date"}, models.GarmentAttributes{Name: "shirt"}, models.GarmentAttributes{Name: "slacks"}),
	)
	res, err := h.engine.Match(context.Background(), models.MatchQuery{Text: "introduction meeting outfit", Role: "stylist", SessionID: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.Path != models.PathIndex || res.CandidateCount != 2 {
		t.Fatalf("got Found=%v Path=%q CandidateCount=%d", res.Found, res.Path, res.CandidateCount)
	}
	if res.Role != models.RoleStyleAnalyst {
		t.Errorf("Role = %q, want style_analyst", res.Role)
	}
	if got := res.Contributions[ranking.ContribSituation]; got != 0.4 {
		t.Errorf("situation contribution = %v, want 0.4", got)
	}
}

// The paths agree while every tagged record lies inside the index intersection.
func TestFinder_IndexFullScanAgreeOnIntersection(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(), businessCatalog()...)
	ctx := context.Background()

	for _, text := range []string{"business meeting", "office", "something for the company dinner"} {
		t.Run(text, func(t *testing.T) {
			aq := h.finder.calc.Analyze(models.MatchQuery{Text: text})
			criteria := index.DeriveCriteria(h.finder.extractor, text)

			viaIndex := h.finder.fromIndex(ctx, aq, criteria)
			if viaIndex == nil {
				t.Fatal("index path yielded nothing")
			}
			viaScan, err := h.finder.fullScan(ctx, aq, criteria)
			if err != nil {
				t.Fatal(err)
			}
			if got, want := rankedIDs(viaIndex), rankedIDs(viaScan); strings.Join(got, ",") != strings.Join(want, ",") {
				t.Errorf("index path = %v, full scan = %v", got, want)
			}
			if viaIndex.Path != models.PathIndex || viaScan.Path != models.PathFullScan {
				t.Errorf("paths = %q, %q", viaIndex.Path, viaScan.Path)
			}
		})
	}
}

// A record tagged for another situation still earns the tagged bonus on a full scan,
// but the index never returns it for the request's situation.
func TestFinder_IndexOmitsOtherSituations(t *testing.T) {
	records := append(businessCatalog(),
		outfit("daily1", []string{"daily"}, models.GarmentAttributes{Name: "shirt", Color: "white"}, models.GarmentAttributes{Name: "slacks", Color: "navy"}))
	h := newHarness(t, storage.NewMemoryStore(), records...)
	ctx := context.Background()

	aq := h.finder.calc.Analyze(models.MatchQuery{Text: "business meeting"})
	criteria := index.DeriveCriteria(h.finder.extractor, "business meeting")
	viaIndex := h.finder.fromIndex(ctx, aq, criteria)
	if viaIndex == nil {
		t.Fatal("index path yielded nothing")
	}
	viaScan, err := h.finder.fullScan(ctx, aq, criteria)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(rankedIDs(viaIndex), ","); got != "r1,r2" {
		t.Errorf("index path = %s, want r1,r2", got)
	}
	if got := strings.Join(rankedIDs(viaScan), ","); got != "daily1,r1,r2" {
		t.Errorf("full scan = %s, want daily1,r1,r2", got)
	}
}

func TestFinder_FallsBackToFullScan(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(), businessCatalog()...)
	ctx := context.Background()

	// No record is both tagged for a date and has a hoodie.
	c, err := h.finder.Find(ctx, models.MatchQuery{Text: "black hoodie for a date"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != models.PathFullScan {
		t.Errorf("Path = %q, want full_scan", c.Path)
	}
	if len(c.AllIDs) != 4 || !c.Complete() {
		t.Errorf("AllIDs = %v, want the whole catalog", c.AllIDs)
	}

	noIndex := NewFinder(h.catalog, nil, h.finder.calc, h.finder.extractor)
	c, err = noIndex.Find(ctx, models.MatchQuery{Text: "business meeting"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != models.PathFullScan || strings.Join(rankedIDs(c), ",") != "r1,r2" {
		t.Errorf("Path = %q ranked = %v", c.Path, rankedIDs(c))
	}
}

func TestFinder_TopLimitAndOrder(t *testing.T) {
	var records []*models.OutfitRecord
	for i := 0; i < 20; i++ {
		records = append(records, outfit(fmt.Sprintf("d%02d", 19-i), []string{"date"},
			models.GarmentAttributes{Name: "shirt"}, models.GarmentAttributes{Name: "slacks"}))
	}
	records = append(records, outfit("best", []string{"date"},
		models.GarmentAttributes{Name: "shirt", Fit: "slim"}, models.GarmentAttributes{Name: "slacks"}))
	h := newHarness(t, storage.NewMemoryStore(), records...)

	c, err := h.finder.Find(context.Background(), models.MatchQuery{Text: "slim shirt for a date"})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Top) != DefaultMaxCandidates || len(c.Ranked) != 21 {
		t.Fatalf("len(Top) = %d len(Ranked) = %d", len(c.Top), len(c.Ranked))
	}
	if c.Top[0].Record.ID != "best" || c.Top[1].Record.ID != "d00" || c.Top[2].Record.ID != "d01" {
		t.Errorf("order = %s, %s, %s", c.Top[0].Record.ID, c.Top[1].Record.ID, c.Top[2].Record.ID)
	}
	for i := 1; i < len(c.Ranked); i++ {
		if c.Ranked[i].Score > c.Ranked[i-1].Score {
			t.Fatalf("Ranked not sorted at %d", i)
		}
	}
}

func TestProcessQuery(t *testing.T) {
	q := models.MatchQuery{Text: "  navy blazer  ", Role: "colorist", SessionID: " s1 "}
	if err := ProcessQuery(&q); err != nil {
		t.Fatal(err)
	}
	if q.Text != "navy blazer" || q.Role != models.RoleColorExpert || q.SessionID != "s1" {
		t.Errorf("got %+v", q)
	}

	q = models.MatchQuery{Text: strings.Repeat("가", MaxQueryLength)}
	if err := ProcessQuery(&q); err != nil {
		t.Fatal(err)
	}
	if len(q.Text) > MaxQueryLength || !strings.HasSuffix(q.Text, "가") {
		t.Errorf("truncated text has %d bytes", len(q.Text))
	}
}
