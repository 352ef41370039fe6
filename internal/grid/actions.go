package grid

// Action describes a per-row action offered by the grid.
type Action struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	IconLeft  string `json:"iconLeft,omitempty" yaml:"icon_left,omitempty"`
	IconRight string `json:"iconRight,omitempty" yaml:"icon_right,omitempty"`
	Separator bool   `json:"separator,omitempty" yaml:"separator,omitempty"`
}

// MenuItemKind distinguishes entries in a flattened action menu.
type MenuItemKind int

const (
	MenuAction MenuItemKind = iota
	MenuHeader
	MenuSeparator
)

// MenuItem is one rendered entry of an action menu.
type MenuItem struct {
	Kind   MenuItemKind
	Label  string // header text for MenuHeader
	Action Action // set for MenuAction
}

// ActionPredicate is a host-supplied rule evaluated per action and row.
type ActionPredicate func(Action, Row) bool

// GroupActions flattens actions into menu items. A header is emitted each
// time a non-empty category differs from the last emitted header, and a
// separator follows every action flagged with Separator.
func GroupActions(actions []Action) []MenuItem {
	items := make([]MenuItem, 0, len(actions)*2)
	current := ""
	for _, a := range actions {
		if a.Category != "" && a.Category != current {
			current = a.Category
			items = append(items, MenuItem{Kind: MenuHeader, Label: a.Category})
		}
		items = append(items, MenuItem{Kind: MenuAction, Action: a})
		if a.Separator {
			items = append(items, MenuItem{Kind: MenuSeparator})
		}
	}
	return items
}

// ActionsOf returns the actions of items in menu order.
func ActionsOf(items []MenuItem) []Action {
	var out []Action
	for _, it := range items {
		if it.Kind == MenuAction {
			out = append(out, it.Action)
		}
	}
	return out
}

// PrimaryAction returns the first action in items.
func PrimaryAction(items []MenuItem) (Action, bool) {
	for _, it := range items {
		if it.Kind == MenuAction {
			return it.Action, true
		}
	}
	return Action{}, false
}

// EffectivePrimary picks the action shown on a row's primary button. It is
// the primary action when enabled, otherwise the first enabled action. When
// every action is disabled the primary is returned with disabled set.
func EffectivePrimary(items []MenuItem, row Row, isDisabled ActionPredicate) (a Action, disabled, ok bool) {
	primary, ok := PrimaryAction(items)
	if !ok {
		return Action{}, false, false
	}
	if isDisabled == nil || !isDisabled(primary, row) {
		return primary, false, true
	}
	for _, candidate := range ActionsOf(items) {
		if !isDisabled(candidate, row) {
			return candidate, false, true
		}
	}
	return primary, true, true
}

// MenuEntry is a menu item resolved for a particular row.
type MenuEntry struct {
	MenuItem
	Disabled bool
}

// RowMenu resolves the dropdown for row. Actions for which visible returns
// false are dropped; headers and separators are kept as-is.
func RowMenu(items []MenuItem, row Row, visible, isDisabled ActionPredicate) []MenuEntry {
	out := make([]MenuEntry, 0, len(items))
	for _, it := range items {
		if it.Kind != MenuAction {
			out = append(out, MenuEntry{MenuItem: it})
			continue
		}
		if visible != nil && row != nil && !visible(it.Action, row) {
			continue
		}
		out = append(out, MenuEntry{
			MenuItem: it,
			Disabled: isDisabled != nil && isDisabled(it.Action, row),
		})
	}
	return out
}
