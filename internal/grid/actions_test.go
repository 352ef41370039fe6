package grid

import "testing"

var (
	editAction   = Action{ID: "edit", Label: "Edit Plan", Category: "Action", IconLeft: "bi-pencil-square"}
	cancelAction = Action{ID: "cancel", Label: "Cancel Plan", Category: "Action", IconLeft: "bi-x-lg", Separator: true}
	viewAction   = Action{ID: "view", Label: "View Plan", Category: "View", IconRight: "bi-box-arrow-up-right"}
)

func TestGroupActions(t *testing.T) {
	items := GroupActions([]Action{editAction, cancelAction, viewAction})
	kinds := []MenuItemKind{MenuHeader, MenuAction, MenuAction, MenuSeparator, MenuHeader, MenuAction}
	if len(items) != len(kinds) {
		t.Fatalf("got %d items, want %d", len(items), len(kinds))
	}
	for i, k := range kinds {
		if items[i].Kind != k {
			t.Errorf("item %d kind = %v, want %v", i, items[i].Kind, k)
		}
	}
	if items[0].Label != "Action" || items[4].Label != "View" {
		t.Errorf("header labels = %q, %q", items[0].Label, items[4].Label)
	}
}

func TestGroupActionsUncategorised(t *testing.T) {
	a := Action{ID: "a", Label: "A", Category: "X"}
	b := Action{ID: "b", Label: "B"}
	c := Action{ID: "c", Label: "C", Category: "X"}
	items := GroupActions([]Action{a, b, c})
	// b has no category so no header is emitted for it, and c shares the
	// last emitted header.
	if len(items) != 4 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != MenuHeader || items[3].Action.ID != "c" {
		t.Fatalf("unexpected grouping: %+v", items)
	}
}

func TestEffectivePrimaryFallback(t *testing.T) {
	a := Action{ID: "a", Label: "A"}
	b := Action{ID: "b", Label: "B"}
	items := GroupActions([]Action{a, b})
	row := Row{"id": 1}

	disableA := func(act Action, _ Row) bool { return act.ID == "a" }
	got, disabled, ok := EffectivePrimary(items, row, disableA)
	if !ok || disabled || got.ID != "b" {
		t.Fatalf("got %s disabled=%v ok=%v, want b enabled", got.ID, disabled, ok)
	}

	disableAll := func(Action, Row) bool { return true }
	got, disabled, ok = EffectivePrimary(items, row, disableAll)
	if !ok || !disabled || got.ID != "a" {
		t.Fatalf("all disabled: got %s disabled=%v", got.ID, disabled)
	}

	got, disabled, _ = EffectivePrimary(items, row, nil)
	if got.ID != "a" || disabled {
		t.Fatalf("no rule: got %s disabled=%v", got.ID, disabled)
	}

	if _, _, ok := EffectivePrimary(nil, row, nil); ok {
		t.Fatal("no actions should report ok=false")
	}
}

func TestRowMenu(t *testing.T) {
	items := GroupActions([]Action{editAction, cancelAction, viewAction})
	row := Row{"id": 1, "status": "Complete"}
	onlyView := func(a Action, _ Row) bool { return a.ID == "view" }
	complete := func(a Action, r Row) bool {
		return r.Text("status") == "Complete" && (a.ID == "edit" || a.ID == "cancel")
	}

	entries := RowMenu(items, row, nil, complete)
	var disabled []string
	for _, e := range entries {
		if e.Kind == MenuAction && e.Disabled {
			disabled = append(disabled, e.Action.ID)
		}
	}
	if len(disabled) != 2 || disabled[0] != "edit" || disabled[1] != "cancel" {
		t.Fatalf("disabled = %v", disabled)
	}

	entries = RowMenu(items, row, onlyView, complete)
	var shown []string
	for _, e := range entries {
		if e.Kind == MenuAction {
			shown = append(shown, e.Action.ID)
		}
	}
	if len(shown) != 1 || shown[0] != "view" {
		t.Fatalf("shown = %v", shown)
	}
}
