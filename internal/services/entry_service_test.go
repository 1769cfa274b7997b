package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"drinklog/internal/core"
)

func TestCreatePersonalEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.member(t, "a@example.com")

	entry, err := env.entries.Create(ctx, core.EntryRequest{
		UserID:       user,
		DrinkingDate: date(2025, time.June, 14),
		Memo:         "solo night",
		TotalPrice:   5000,
		Drinks:       []core.DrinkRequest{{Type: core.DrinkTypeSoju, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if entry.GroupID != nil || entry.GroupEntryID != nil || entry.IsGroupShared {
		t.Error("personal entry must carry no group fields")
	}
	if entry.TotalPrice != 5000 {
		t.Errorf("price = %d, want 5000", entry.TotalPrice)
	}
	if len(entry.Drinks) != 1 || entry.Drinks[0].Quantity != 2 {
		t.Errorf("drinks = %+v, want one soju line with quantity 2", entry.Drinks)
	}
	if paid := env.memberPaid(t, user); paid != 5000 {
		t.Errorf("member paid = %d, want 5000", paid)
	}
}

func TestCreateGroupEntrySplitsAcrossMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	c := env.member(t, "c@example.com")
	group := env.group(t, a, b, c)

	req := groupRequest(a, group, 300)
	req.Drinks = []core.DrinkRequest{{Type: core.DrinkTypeBeer, Quantity: 6}}
	anchor, err := env.entries.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !anchor.IsAnchor() {
		t.Fatal("author's entry must be the anchor")
	}
	if anchor.GroupEntryID == nil || *anchor.GroupEntryID != anchor.ID {
		t.Error("anchor's share id must point at its own id")
	}
	if anchor.TotalPrice != 100 {
		t.Errorf("anchor price = %d, want 100", anchor.TotalPrice)
	}
	if len(anchor.Drinks) != 1 || anchor.Drinks[0].Quantity != 2 {
		t.Errorf("anchor drinks = %+v, want quantity 6/3=2", anchor.Drinks)
	}

	for _, member := range []int64{b, c} {
		entries := env.entriesOf(t, member)
		if len(entries) != 1 {
			t.Fatalf("member %d has %d entries, want 1 mirror", member, len(entries))
		}
		mirror := entries[0]
		if !mirror.IsGroupShared {
			t.Error("mirror must be flagged as group shared")
		}
		if mirror.GroupEntryID == nil || *mirror.GroupEntryID != anchor.ID {
			t.Error("mirror must reference the anchor's share id")
		}
		if mirror.TotalPrice != 100 {
			t.Errorf("mirror price = %d, want 100", mirror.TotalPrice)
		}
		if paid := env.memberPaid(t, member); paid != 100 {
			t.Errorf("member %d paid = %d, want 100", member, paid)
		}
	}
	if paid := env.memberPaid(t, a); paid != 100 {
		t.Errorf("author paid = %d, want 100", paid)
	}
	if paid := env.groupPaid(t, group); paid != 300 {
		t.Errorf("group paid = %d, want gross 300", paid)
	}
}

func TestCreateGroupEntryDropsRemainder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	group := env.group(t, a, b)

	anchor, err := env.entries.Create(ctx, groupRequest(a, group, 101))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if anchor.TotalPrice != 50 {
		t.Errorf("share = %d, want floor(101/2)=50", anchor.TotalPrice)
	}
	if paid := env.memberPaid(t, b); paid != 50 {
		t.Errorf("member paid = %d, want 50", paid)
	}
	// The group ledger still carries the undivided total.
	if paid := env.groupPaid(t, group); paid != 101 {
		t.Errorf("group paid = %d, want 101", paid)
	}
}

func TestCreateZeroPriceGroupEntrySkipsSplit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	group := env.group(t, a, b)

	anchor, err := env.entries.Create(ctx, groupRequest(a, group, 0))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if anchor.GroupEntryID == nil || *anchor.GroupEntryID != anchor.ID {
		t.Error("zero-price group entry still anchors its share set")
	}
	if got := env.entriesOf(t, b); len(got) != 0 {
		t.Errorf("member B has %d entries, want no mirrors for zero price", len(got))
	}
	if paid := env.memberPaid(t, a); paid != 0 {
		t.Errorf("author paid = %d, want 0", paid)
	}
	if paid := env.groupPaid(t, group); paid != 0 {
		t.Errorf("group paid = %d, want 0", paid)
	}
}

func TestCreateGroupEntryEmptyRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	group := env.group(t, a)
	if err := env.groups.RemoveMember(ctx, group, a, a); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	_, err := env.entries.Create(ctx, groupRequest(a, group, 100))
	if !errors.Is(err, core.ErrNoGroupMembers) {
		t.Fatalf("Create on empty roster: got %v, want ErrNoGroupMembers", err)
	}

	// The failed create must leave nothing behind.
	if got := env.entriesOf(t, a); len(got) != 0 {
		t.Errorf("entries persisted after failed create: %d", len(got))
	}
	if paid := env.memberPaid(t, a); paid != 0 {
		t.Errorf("author paid = %d after failed create, want 0", paid)
	}
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.member(t, "a@example.com")

	cases := []struct {
		name string
		req  core.EntryRequest
	}{
		{"missing user", core.EntryRequest{DrinkingDate: date(2025, time.June, 14)}},
		{"missing date", core.EntryRequest{UserID: user}},
		{"negative price", core.EntryRequest{UserID: user, DrinkingDate: date(2025, time.June, 14), TotalPrice: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.entries.Create(ctx, tc.req); !errors.Is(err, core.ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestCreateSkipsUnknownDrinkTypes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.member(t, "a@example.com")

	entry, err := env.entries.Create(ctx, core.EntryRequest{
		UserID:       user,
		DrinkingDate: date(2025, time.June, 14),
		TotalPrice:   100,
		Drinks: []core.DrinkRequest{
			{Type: "makgeolli", Quantity: 2},
			{Type: core.DrinkTypeSoju, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(entry.Drinks) != 1 || entry.Drinks[0].Type != core.DrinkTypeSoju {
		t.Errorf("drinks = %+v, want only the soju line", entry.Drinks)
	}
}

func TestDeleteAnchorCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	c := env.member(t, "c@example.com")
	group := env.group(t, a, b, c)

	anchor, err := env.entries.Create(ctx, groupRequest(a, group, 300))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := env.entries.Delete(ctx, anchor.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, member := range []int64{a, b, c} {
		if got := env.entriesOf(t, member); len(got) != 0 {
			t.Errorf("member %d still has %d entries after anchor delete", member, len(got))
		}
		if paid := env.memberPaid(t, member); paid != 0 {
			t.Errorf("member %d paid = %d after cascade, want 0", member, paid)
		}
	}
	if paid := env.groupPaid(t, group); paid != 0 {
		t.Errorf("group paid = %d after cascade, want 0", paid)
	}
}

func TestDeleteMirrorLeavesRestOfSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	c := env.member(t, "c@example.com")
	group := env.group(t, a, b, c)

	if _, err := env.entries.Create(ctx, groupRequest(a, group, 300)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mirrorB := env.entriesOf(t, b)[0]
	if err := env.entries.Delete(ctx, mirrorB.ID); err != nil {
		t.Fatalf("Delete mirror failed: %v", err)
	}

	if got := env.entriesOf(t, b); len(got) != 0 {
		t.Error("deleted mirror should be gone")
	}
	if got := env.entriesOf(t, a); len(got) != 1 {
		t.Error("anchor must survive a mirror delete")
	}
	if got := env.entriesOf(t, c); len(got) != 1 {
		t.Error("other mirrors must survive a mirror delete")
	}

	if paid := env.memberPaid(t, b); paid != 0 {
		t.Errorf("member B paid = %d, want 0 after refund", paid)
	}
	if paid := env.memberPaid(t, a); paid != 100 {
		t.Errorf("member A paid = %d, want untouched 100", paid)
	}
	// A mirror delete gives the whole set total back to the group ledger.
	if paid := env.groupPaid(t, group); paid != 0 {
		t.Errorf("group paid = %d, want 0 after set-total reversal", paid)
	}
}

func TestDeletePersonalEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.member(t, "a@example.com")

	entry, err := env.entries.Create(ctx, core.EntryRequest{
		UserID:       user,
		DrinkingDate: date(2025, time.June, 14),
		TotalPrice:   5000,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := env.entries.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if paid := env.memberPaid(t, user); paid != 0 {
		t.Errorf("member paid = %d after delete, want 0", paid)
	}
	if err := env.entries.Delete(ctx, entry.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestUpdatePersonalEntryAdjustsLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.member(t, "a@example.com")

	entry, err := env.entries.Create(ctx, core.EntryRequest{
		UserID:       user,
		DrinkingDate: date(2025, time.June, 14),
		Memo:         "before",
		TotalPrice:   5000,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := env.entries.Update(ctx, entry.ID, core.EntryRequest{
		UserID:       user,
		DrinkingDate: date(2025, time.June, 15),
		Memo:         "after",
		TotalPrice:   8000,
	}, "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Memo != "after" || updated.TotalPrice != 8000 {
		t.Errorf("updated = %+v, want memo after, price 8000", updated.Entry)
	}
	if !updated.DrinkingDate.Equal(date(2025, time.June, 15)) {
		t.Errorf("date = %v, want moved to June 15", updated.DrinkingDate)
	}
	if paid := env.memberPaid(t, user); paid != 8000 {
		t.Errorf("member paid = %d, want re-booked 8000", paid)
	}
}

func TestUpdatePersonalToGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	group := env.group(t, a, b)

	entry, err := env.entries.Create(ctx, core.EntryRequest{
		UserID:       a,
		DrinkingDate: date(2025, time.June, 14),
		TotalPrice:   50,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := env.entries.Update(ctx, entry.ID, groupRequest(a, group, 200), "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.TotalPrice != 100 {
		t.Errorf("anchor price = %d, want 200/2=100", updated.TotalPrice)
	}
	if updated.GroupEntryID == nil || *updated.GroupEntryID != entry.ID {
		t.Error("converted entry must anchor its own share set")
	}

	mirrors := env.entriesOf(t, b)
	if len(mirrors) != 1 || mirrors[0].TotalPrice != 100 || !mirrors[0].IsGroupShared {
		t.Fatalf("member B entries = %+v, want one mirror at 100", mirrors)
	}

	// The author's 50 was reversed before re-booking the 100 share.
	if paid := env.memberPaid(t, a); paid != 100 {
		t.Errorf("author paid = %d, want 100", paid)
	}
	if paid := env.memberPaid(t, b); paid != 100 {
		t.Errorf("member B paid = %d, want 100", paid)
	}
	if paid := env.groupPaid(t, group); paid != 200 {
		t.Errorf("group paid = %d, want gross 200", paid)
	}
}

func TestUpdateGroupToPersonal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	group := env.group(t, a, b)

	anchor, err := env.entries.Create(ctx, groupRequest(a, group, 200))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := env.entries.Update(ctx, anchor.ID, core.EntryRequest{
		UserID:       a,
		DrinkingDate: date(2025, time.June, 14),
		TotalPrice:   150,
	}, "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.GroupID != nil || updated.GroupEntryID != nil || updated.IsGroupShared {
		t.Error("entry converted to personal must carry no group fields")
	}
	if updated.TotalPrice != 150 {
		t.Errorf("price = %d, want full 150", updated.TotalPrice)
	}
	if got := env.entriesOf(t, b); len(got) != 0 {
		t.Error("mirrors must be torn down when the entry leaves the group")
	}
	if paid := env.memberPaid(t, a); paid != 150 {
		t.Errorf("author paid = %d, want 150", paid)
	}
	if paid := env.memberPaid(t, b); paid != 0 {
		t.Errorf("member B paid = %d, want refunded 0", paid)
	}
	if paid := env.groupPaid(t, group); paid != 0 {
		t.Errorf("group paid = %d, want 0", paid)
	}
}

func TestUpdateGroupContentRepricesWholeSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	c := env.member(t, "c@example.com")
	group := env.group(t, a, b, c)

	req := groupRequest(a, group, 300)
	req.Drinks = []core.DrinkRequest{{Type: core.DrinkTypeSoju, Quantity: 6}}
	anchor, err := env.entries.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newReq := groupRequest(a, group, 600)
	newReq.Memo = "round two"
	newReq.Drinks = []core.DrinkRequest{{Type: core.DrinkTypeBeer, Quantity: 9}}
	updated, err := env.entries.Update(ctx, anchor.ID, newReq, "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.TotalPrice != 200 {
		t.Errorf("anchor price = %d, want 600/3=200", updated.TotalPrice)
	}
	for _, member := range []int64{a, b, c} {
		entries := env.entriesOf(t, member)
		if len(entries) != 1 {
			t.Fatalf("member %d has %d entries, want 1", member, len(entries))
		}
		if entries[0].TotalPrice != 200 || entries[0].Memo != "round two" {
			t.Errorf("member %d entry = %+v, want repriced to 200 with new memo", member, entries[0])
		}
		if paid := env.memberPaid(t, member); paid != 200 {
			t.Errorf("member %d paid = %d, want 200", member, paid)
		}
	}
	if paid := env.groupPaid(t, group); paid != 600 {
		t.Errorf("group paid = %d, want re-booked 600", paid)
	}

	// Every row of the set gets the new drink list, divided.
	mirror := env.entriesOf(t, b)[0]
	got, err := env.entries.Get(ctx, mirror.ID)
	if err != nil {
		t.Fatalf("Get mirror failed: %v", err)
	}
	if len(got.Drinks) != 1 || got.Drinks[0].Type != core.DrinkTypeBeer || got.Drinks[0].Quantity != 3 {
		t.Errorf("mirror drinks = %+v, want beer 9/3=3", got.Drinks)
	}
}

func TestUpdateBackfillsLegacyShareID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	group := env.group(t, a, b)

	// A grouped row without a share id, the shape rows had before share ids
	// existed.
	legacy := &core.Entry{
		UserID:       a,
		GroupID:      &group,
		DrinkingDate: date(2025, time.June, 14),
		TotalPrice:   100,
	}
	if err := env.store.CreateEntry(ctx, legacy); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}

	updated, err := env.entries.Update(ctx, legacy.ID, groupRequest(a, group, 100), "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.GroupEntryID == nil || *updated.GroupEntryID != legacy.ID {
		t.Errorf("share id = %v, want backfilled to own id %d", updated.GroupEntryID, legacy.ID)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.entries.Get(context.Background(), 42); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSharedByUserReturnsOnlyMirrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.member(t, "a@example.com")
	b := env.member(t, "b@example.com")
	group := env.group(t, a, b)

	if _, err := env.entries.Create(ctx, groupRequest(a, group, 200)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	shared, err := env.entries.SharedByUser(ctx, b)
	if err != nil {
		t.Fatalf("SharedByUser failed: %v", err)
	}
	if len(shared) != 1 || !shared[0].IsGroupShared {
		t.Fatalf("shared = %+v, want B's single mirror", shared)
	}

	// The author's anchor is not a shared entry.
	shared, err = env.entries.SharedByUser(ctx, a)
	if err != nil {
		t.Fatalf("SharedByUser failed: %v", err)
	}
	if len(shared) != 0 {
		t.Errorf("author shared entries = %d, want 0", len(shared))
	}
}
