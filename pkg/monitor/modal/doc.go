// Package modal provides a declarative modal dialog library with automatic
// hit region management for mouse support.
//
// The library eliminates off-by-one hit region bugs via a render-then-measure
// pattern and provides automatic keyboard navigation (Tab/Shift+Tab, Enter, Esc)
// and hover state management.
//
// # Quick Start
//
//	m := modal.New("Cancel Plan", modal.WithVariant(modal.VariantDanger)).
//	    AddSection(modal.Text("Are you sure you want to cancel this plan?")).
//	    AddSection(modal.Spacer()).
//	    AddSection(modal.Buttons(
//	        modal.Btn(" Cancel Plan ", "confirm", modal.BtnDanger()),
//	        modal.Btn(" Keep Plan ", "keep"),
//	    ))
//
//	// In View():
//	content := m.Render(screenW, screenH, mouseHandler)
//
//	// In Update():
//	if action, cmd := m.HandleKey(keyMsg); action != "" {
//	    switch action {
//	    case "confirm":
//	        return cancelPlan()
//	    case "keep", modal.ActionCancel:
//	        return closeModal()
//	    }
//	}
//
// # Built-in Sections
//
//   - Text(s string) - static text, auto-wrapped
//   - Spacer() - blank line
//   - Buttons(btns ...ButtonDef) - button row with focus/hover styling
//   - List(id string, items []ListItem, selectedIdx *int, opts...) - scrollable list
//   - When(condition func() bool, section) - conditional rendering
//   - Custom(renderFn, updateFn) - escape hatch for complex content
//
// # Options
//
//   - WithWidth(w int) - set modal width (default: 50)
//   - WithVariant(v Variant) - set visual style (Default, Danger, Warning, Info)
//   - WithHints(show bool) - show/hide keyboard hints at bottom
//   - WithPrimaryAction(actionID string) - action for implicit Enter submit
//   - WithCloseOnBackdropClick(close bool) - close on backdrop click
//
// Render registers a backdrop region, the modal body and one region per
// focusable element, so HandleMouse resolves clicks against exactly what
// was drawn.
package modal
