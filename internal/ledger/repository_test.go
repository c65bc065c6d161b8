package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/logging"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/pipeline"
	"github.com/theirongolddev/subtrack/internal/store"

	"github.com/shopspring/decimal"
)

type failingKV struct {
	store.KV
	failPut bool
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.KV.Put(ctx, key, value)
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
}

func openMemory(t *testing.T, kv store.KV) *Repository {
	t.Helper()
	return Open(context.Background(), kv, Options{Logger: logging.Discard(), NewID: seqIDs()})
}

func draft(name, price string, day int, cat model.Category) model.Draft {
	return model.NewDraft(name, decimal.RequireFromString(price), day, cat)
}

func TestAddListRemove(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t, store.NewMemory())

	a, err := repo.Add(ctx, draft("Netflix", "15.49", 5, model.CategoryEntertainment))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := repo.Add(ctx, draft("Gym", "30", 1, model.CategoryFitness)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.ID != "id-01" || a.Color != model.CategoryEntertainment.Color() {
		t.Errorf("added = %+v, want id-01 with category color", a)
	}

	got := repo.List()
	if len(got) != 2 || got[0].Name != "Netflix" || got[1].Name != "Gym" {
		t.Fatalf("List = %+v, want [Netflix Gym] in insertion order", got)
	}
	if v := repo.Version(); v != 2 {
		t.Errorf("Version = %d, want 2", v)
	}

	if err := repo.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := repo.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
	if n := repo.Len(); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
	if v := repo.Version(); v != 3 {
		t.Errorf("Version after no-op remove = %d, want 3", v)
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t, store.NewMemory())
	if _, err := repo.Add(ctx, draft("Spotify", "9.99", 10, model.CategoryEntertainment)); err != nil {
		t.Fatal(err)
	}
	list := repo.List()
	list[0].Name = "mutated"
	if got := repo.List()[0].Name; got != "Spotify" {
		t.Errorf("stored name = %q, want Spotify", got)
	}
}

func TestAdd_InvalidDraftLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	repo := openMemory(t, kv)

	_, err := repo.Add(ctx, draft("  ", "-1", 40, model.CategoryOther))
	if !model.IsValidationError(err) {
		t.Fatalf("Add err = %v, want validation error", err)
	}
	if repo.Len() != 0 || repo.Version() != 0 {
		t.Errorf("Len = %d Version = %d, want 0 0", repo.Len(), repo.Version())
	}
	if _, err := kv.Get(ctx, StorageKey); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("store Get err = %v, want ErrNotFound", err)
	}
}

func TestAdd_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: store.NewMemory()}
	repo := openMemory(t, kv)
	if _, err := repo.Add(ctx, draft("Kept", "1", 1, model.CategoryOther)); err != nil {
		t.Fatal(err)
	}

	kv.failPut = true
	if _, err := repo.Add(ctx, draft("Lost", "2", 2, model.CategoryOther)); err == nil {
		t.Fatal("Add with failing store = nil error, want error")
	}
	if err := repo.Remove(ctx, "id-01"); err == nil {
		t.Fatal("Remove with failing store = nil error, want error")
	}
	got := repo.List()
	if len(got) != 1 || got[0].Name != "Kept" {
		t.Errorf("List = %+v, want only Kept", got)
	}
}

func TestOpen_RoundTripThroughSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "subtrack.db")

	db, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	repo := Open(ctx, db, Options{Logger: logging.Discard()})
	want := []model.Draft{
		draft("Netflix", "15.49", 5, model.CategoryEntertainment),
		draft("AWS", "0.10", 28, model.CategorySoftware),
	}
	for _, d := range want {
		if _, err := repo.Add(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	before := repo.List()
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = db.Close() }()
	after := Open(ctx, db, Options{Logger: logging.Discard()}).List()

	if len(after) != len(before) {
		t.Fatalf("reloaded %d records, want %d", len(after), len(before))
	}
	for i := range before {
		b, a := before[i], after[i]
		if a.ID != b.ID || a.Name != b.Name || !a.Price.Equal(b.Price) ||
			a.DayOfMonth != b.DayOfMonth || a.Category != b.Category || a.Color != b.Color {
			t.Errorf("record %d = %+v, want %+v", i, a, b)
		}
	}
}

func TestOpen_CorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"bad json":      `{not json`,
		"invalid day":   `[{"id":"a","name":"X","price":"1","dayOfMonth":0,"category":"Other"}]`,
		"unknown cat":   `[{"id":"a","name":"X","price":"1","dayOfMonth":3,"category":"Food"}]`,
		"duplicate ids": `[{"id":"a","name":"X","price":"1","dayOfMonth":3,"category":"Other"},{"id":"a","name":"Y","price":"1","dayOfMonth":4,"category":"Other"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			kv := store.NewMemory()
			if err := kv.Put(ctx, StorageKey, []byte(raw)); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(ctx, kv); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Load err = %v, want ErrCorrupt", err)
			}
			if n := openMemory(t, kv).Len(); n != 0 {
				t.Errorf("Len = %d, want 0", n)
			}
		})
	}
}

func TestOpen_AcceptsNumericPrice(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	raw := `[{"id":"a","name":"Netflix","price":15.49,"dayOfMonth":5,"category":"Entertainment","color":"#8b5cf6"}]`
	if err := kv.Put(ctx, StorageKey, []byte(raw)); err != nil {
		t.Fatal(err)
	}
	got := openMemory(t, kv).List()
	if len(got) != 1 || got[0].Price.String() != "15.49" {
		t.Errorf("List = %+v, want Netflix at 15.49", got)
	}
}

func TestTwoStepDelete(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t, store.NewMemory())
	sub, _ := repo.Add(ctx, draft("Hulu", "7.99", 12, model.CategoryEntertainment))

	if _, err := repo.RequestDelete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RequestDelete(missing) err = %v, want ErrNotFound", err)
	}

	p, err := repo.RequestDelete(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Subscription.ID != sub.ID {
		t.Errorf("pending subscription = %q, want %q", p.Subscription.ID, sub.ID)
	}
	if err := repo.Cancel(p.Token); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("Len after cancel = %d, want 1", repo.Len())
	}
	if err := repo.Confirm(ctx, p.Token); !errors.Is(err, ErrTokenUsed) {
		t.Errorf("Confirm(cancelled) err = %v, want ErrTokenUsed", err)
	}

	p, _ = repo.RequestDelete(sub.ID)
	if err := repo.Confirm(ctx, p.Token); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if repo.Len() != 0 {
		t.Errorf("Len after confirm = %d, want 0", repo.Len())
	}
	if err := repo.Confirm(ctx, p.Token); !errors.Is(err, ErrTokenUsed) {
		t.Errorf("Confirm reused err = %v, want ErrTokenUsed", err)
	}
}

func TestConfirm_RecordAlreadyGoneIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t, store.NewMemory())
	sub, _ := repo.Add(ctx, draft("Hulu", "7.99", 12, model.CategoryEntertainment))

	p, _ := repo.RequestDelete(sub.ID)
	if err := repo.Remove(ctx, sub.ID); err != nil {
		t.Fatal(err)
	}
	v := repo.Version()
	if err := repo.Confirm(ctx, p.Token); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if repo.Version() != v {
		t.Errorf("Version = %d, want unchanged %d", repo.Version(), v)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	ids := []string{"abc-1", "abd-2", "xyz-3"}
	i := 0
	repo := Open(ctx, store.NewMemory(), Options{
		Logger: logging.Discard(),
		NewID:  func() string { id := ids[i]; i++; return id },
	})
	for _, n := range []string{"A", "B", "C"} {
		if _, err := repo.Add(ctx, draft(n, "1", 1, model.CategoryOther)); err != nil {
			t.Fatal(err)
		}
	}

	if s, err := repo.Resolve("xyz"); err != nil || s.Name != "C" {
		t.Errorf("Resolve(xyz) = %+v, %v; want C", s, err)
	}
	if s, err := repo.Resolve("abc-1"); err != nil || s.Name != "A" {
		t.Errorf("Resolve(abc-1) = %+v, %v; want A", s, err)
	}
	if _, err := repo.Resolve("ab"); !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("Resolve(ab) err = %v, want ErrAmbiguousID", err)
	}
	if _, err := repo.Resolve("q"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(q) err = %v, want ErrNotFound", err)
	}
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t, store.NewMemory())
	_, _ = repo.Add(ctx, draft("Old", "1", 1, model.CategoryOther))

	sub := func(id string) model.Subscription {
		return model.Subscription{
			ID: id, Name: "S " + id, Price: decimal.NewFromInt(2),
			DayOfMonth: 3, Category: model.CategoryUtilities,
		}
	}
	if err := repo.Replace(ctx, []model.Subscription{sub("a"), sub("a")}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Replace dup err = %v, want ErrDuplicateID", err)
	}
	if got := repo.List(); len(got) != 1 || got[0].Name != "Old" {
		t.Fatalf("List after rejected replace = %+v", got)
	}

	if err := repo.Replace(ctx, []model.Subscription{sub("a"), sub("b")}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got := repo.List()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("List = %+v, want ids [a b]", got)
	}
}

func TestAddAll_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	repo := openMemory(t, kv)
	_, _ = repo.Add(ctx, draft("Old", "1", 1, model.CategoryOther))

	_, err := repo.AddAll(ctx, []model.Draft{
		draft("Netflix", "15.49", 5, model.CategoryEntertainment),
		draft("", "2", 40, model.CategoryOther),
	})
	if !model.IsValidationError(err) {
		t.Fatalf("AddAll err = %v, want validation error", err)
	}
	if repo.Len() != 1 || repo.Version() != 1 {
		t.Errorf("after rejected AddAll Len = %d Version = %d, want 1 1", repo.Len(), repo.Version())
	}
	stored, err := Load(ctx, kv)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored = %d records (%v), want 1", len(stored), err)
	}

	added, err := repo.AddAll(ctx, []model.Draft{
		draft("Netflix", "15.49", 5, model.CategoryEntertainment),
		draft(" Gym ", "30", 1, model.CategoryFitness),
	})
	if err != nil {
		t.Fatalf("AddAll: %v", err)
	}
	if len(added) != 2 || added[0].ID != "id-02" || added[1].Name != "Gym" {
		t.Errorf("added = %+v", added)
	}
	if repo.Len() != 3 || repo.Version() != 2 {
		t.Errorf("Len = %d Version = %d, want 3 2 (one bump per batch)", repo.Len(), repo.Version())
	}
	if stored, _ := Load(ctx, kv); len(stored) != 3 {
		t.Errorf("stored = %d records, want 3", len(stored))
	}
}

func TestAddAll_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: store.NewMemory(), failPut: true}
	repo := openMemory(t, kv)

	if _, err := repo.AddAll(ctx, []model.Draft{draft("A", "1", 1, model.CategoryOther)}); err == nil {
		t.Fatal("AddAll with failing store = nil error")
	}
	if repo.Len() != 0 {
		t.Errorf("Len = %d, want 0", repo.Len())
	}
}

func TestRemoveNearest_ChangesNextPayment(t *testing.T) {
	ctx := context.Background()
	repo := openMemory(t, store.NewMemory())
	near, _ := repo.Add(ctx, draft("Near", "5", 16, model.CategoryOther))
	_, _ = repo.Add(ctx, draft("Far", "5", 25, model.CategoryOther))
	now := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.Local)

	np, ok := pipeline.NextPayment(repo.List(), now)
	if !ok || np.Subscription.ID != near.ID || np.DaysUntil != 1 {
		t.Fatalf("NextPayment = %+v, %v; want Near in 1 day", np, ok)
	}
	if err := repo.Remove(ctx, near.ID); err != nil {
		t.Fatal(err)
	}
	np, ok = pipeline.NextPayment(repo.List(), now)
	if !ok || np.Subscription.Name != "Far" || np.DaysUntil != 10 {
		t.Errorf("NextPayment = %+v, %v; want Far in 10 days", np, ok)
	}
}
