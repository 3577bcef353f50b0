package param

// Kind selects the interface control a parameter record is shown as.
// The numeric values are part of the host/plugin contract and must not be reordered.
type Kind int32

const (
	// KindRange is a bar control.
	KindRange Kind = iota
	// KindBender reports a relative delta (-100..100) rather than an absolute value.
	KindBender
	// KindToggle is a boolean on/off button.
	KindToggle
	// KindColumnBreak starts the next parameter at the top of a new panel column.
	KindColumnBreak
	// KindSelector lists a selection of options.
	KindSelector
	// KindBlank leaves an empty row in the panel.
	KindBlank
	// KindMultiState is a button that steps through a range of states.
	KindMultiState
	// KindTrigger is a momentary button.
	KindTrigger
	// KindLabel is a plain label.
	KindLabel
	// KindTextEntry opens a text entry dialog; the text travels in the display value.
	KindTextEntry
	// KindFontPicker opens a font selection dialog.
	KindFontPicker
	// KindSourcePicker selects one of the available source slots.
	KindSourcePicker
	// KindColorPicker is not supported by hosts yet.
	KindColorPicker
	// KindJoystick is not supported by hosts yet.
	KindJoystick
	// KindFilePicker opens a file dialog. The plugin publishes the start folder in the
	// display value, the host replaces it with the chosen path.
	KindFilePicker
	// KindBeatPicker selects a beat division.
	KindBeatPicker
)

var kindNames = [...]string{
	"range", "bender", "toggle", "column-break", "selector", "blank", "multi-state",
	"trigger", "label", "text-entry", "font-picker", "source-picker", "color-picker",
	"joystick", "file-picker", "beat-picker",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// Supported reports whether hosts render this kind.
func (k Kind) Supported() bool {
	return k.Valid() && k != KindColorPicker && k != KindJoystick
}

// HasValue reports whether the kind carries a value at all.
// Layout-only kinds never become pending.
func (k Kind) HasValue() bool {
	switch k {
	case KindColumnBreak, KindBlank, KindLabel:
		return false
	}
	return true
}
