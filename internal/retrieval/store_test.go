package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/user/kisanmitra/internal/types"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(t.TempDir())
	docs := []types.Document{
		{
			ID:       "pm-kisan",
			Title:    "PM-KISAN Income Support",
			Content:  "Financial benefit of Rs. 6000 per year to eligible farmer families, paid in three installments.",
			Source:   "pmkisan.gov.in",
			Category: "income support",
		},
		{
			ID:       "drip-subsidy",
			Title:    "Drip Irrigation Subsidy",
			Content:  "Up to 55% subsidy for small and marginal farmers installing drip irrigation systems.",
			Source:   "pmksy.gov.in",
			Category: "irrigation",
		},
		{
			ID:       "pmfby",
			Title:    "Crop Insurance PMFBY",
			Content:  "Comprehensive crop insurance coverage for natural calamities and post-harvest losses.",
			Source:   "pmfby.gov.in",
			Category: "insurance",
		},
	}
	if err := store.Add(context.Background(), docs); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestSearchRanksRelevantFirst(t *testing.T) {
	store := seedStore(t)

	results, err := store.Search(context.Background(), "subsidy for drip irrigation", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].ID != "drip-subsidy" {
		t.Errorf("expected drip-subsidy first, got %s", results[0].ID)
	}
	if results[0].Score <= 0 || results[0].Score > 1 {
		t.Errorf("expected score in (0,1], got %f", results[0].Score)
	}
}

func TestSearchNoMatch(t *testing.T) {
	store := seedStore(t)

	results, err := store.Search(context.Background(), "quantum computing tutorials", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	store := NewStore(t.TempDir())

	results, err := store.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestAddUpserts(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	updated := []types.Document{{
		ID:      "pm-kisan",
		Title:   "PM-KISAN Income Support",
		Content: "Updated content with new installment details.",
		Source:  "pmkisan.gov.in",
	}}
	if err := store.Add(ctx, updated); err != nil {
		t.Fatal(err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 docs after upsert, got %d", count)
	}
}

func TestRemovePrefix(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	removed, err := store.RemovePrefix(ctx, "pm")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed (pm-kisan, pmfby), got %d", removed)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 doc left, got %d", count)
	}

	removed, err = store.RemovePrefix(ctx, "no-such-source-")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("expected nothing removed, got %d", removed)
	}
}

func TestSearchTopKLimit(t *testing.T) {
	store := seedStore(t)

	results, err := store.Search(context.Background(), "farmer scheme crop subsidy insurance", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 1 {
		t.Errorf("expected at most 1 result, got %d", len(results))
	}
}

func TestContextBuilderBudget(t *testing.T) {
	builder, err := NewContextBuilder("gpt-4o-mini", 50)
	if err != nil {
		t.Fatal(err)
	}

	docs := []types.ScoredDocument{
		{Document: types.Document{Title: "A", Content: "short first doc", Source: "s1"}, Score: 0.9},
		{Document: types.Document{Title: "B", Content: "this second document has quite a lot of words so it should not fit inside the remaining budget at all", Source: "s2"}, Score: 0.5},
	}

	ctx := builder.Build(docs)
	if ctx == "" {
		t.Fatal("expected non-empty context")
	}
	if !strings.Contains(ctx, "short first doc") {
		t.Error("expected first document in context")
	}
	if strings.Contains(ctx, "second document") {
		t.Error("expected second document to be dropped by budget")
	}
}
