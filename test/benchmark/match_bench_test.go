package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hyperjump/outfitter/internal/catalog"
	"github.com/hyperjump/outfitter/internal/index"
	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/kvstore"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/ranking"
	"github.com/hyperjump/outfitter/internal/search"
	"github.com/hyperjump/outfitter/internal/storage"
)

var (
	tops    = []string{"oxford shirt", "linen shirt", "wool blazer", "graphic tee", "knit cardigan"}
	bottoms = []string{"slacks", "wide slacks", "denim shorts", "chinos", "jeans"}
	colors  = []string{"navy", "white", "beige", "charcoal gray", "black", "olive"}
	tags    = [][]string{{"business"}, {"date"}, {"daily", "travel"}, {"business", "daily"}}
)

func corpus(n int) []*models.OutfitRecord {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.OutfitRecord, n)
	for i := range out {
		out[i] = &models.OutfitRecord{
			ID: fmt.Sprintf("rec-%04d", i),
			Garments: map[models.Slot]models.GarmentAttributes{
				models.SlotTop:    {Name: tops[i%len(tops)], Color: colors[i%len(colors)], Fit: "regular"},
				models.SlotBottom: {Name: bottoms[i%len(bottoms)], Color: colors[(i+2)%len(colors)]},
			},
			StylingMethod: map[string]string{models.StylingTuckDegree: "half tuck"},
			SituationTags: tags[i%len(tags)],
			CreatedAt:     t0.Add(time.Duration(i) * time.Hour),
			UpdatedAt:     t0.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func BenchmarkCalculatorRank(b *testing.B) {
	vocab := keyword.NewVocabulary()
	calc := ranking.NewCalculator(ranking.DefaultRankingConfig(), vocab)
	records := corpus(1000)
	q := calc.Analyze(models.MatchQuery{Text: "navy slacks for a business meeting"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = calc.Rank(q, records)
	}
}

func newCatalog(b *testing.B, records []*models.OutfitRecord) *catalog.Catalog {
	b.Helper()
	cat, err := catalog.New(storage.NewMemoryStore())
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	for _, rec := range records {
		if _, err := cat.Put(ctx, rec); err != nil {
			b.Fatal(err)
		}
	}
	return cat
}

func BenchmarkIndexQueryIntersection(b *testing.B) {
	ctx := context.Background()
	cat := newCatalog(b, corpus(1000))
	defer cat.Close()
	ix := index.New(kvstore.NewMemoryStore(), keyword.NewVocabulary(), cat)
	if _, err := ix.RebuildAll(ctx, true); err != nil {
		b.Fatal(err)
	}
	c := index.Criteria{Situations: []string{"business"}, Garments: []string{"slacks", "chinos"}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ix.QueryIntersection(ctx, c)
	}
}

func benchmarkFind(b *testing.B, text string) {
	ctx := context.Background()
	cat := newCatalog(b, corpus(1000))
	defer cat.Close()
	vocab := keyword.NewVocabulary()
	ix := index.New(kvstore.NewMemoryStore(), vocab, cat)
	if _, err := ix.RebuildAll(ctx, true); err != nil {
		b.Fatal(err)
	}
	finder := search.NewFinder(cat, ix, ranking.NewCalculator(ranking.DefaultRankingConfig(), vocab), vocab)
	q := models.MatchQuery{Text: text}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := finder.Find(ctx, q); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFinderIndexPath(b *testing.B) { benchmarkFind(b, "slacks for a business meeting") }

func BenchmarkFinderFullScan(b *testing.B) { benchmarkFind(b, "something nice to wear") }
