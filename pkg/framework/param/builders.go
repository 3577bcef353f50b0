package param

// BenderSpan is the largest offset a bender reports in either direction.
const BenderSpan = 100

// RangeParameter creates a bar control
func RangeParameter(name string, min, max, defaultVal int64) *Builder {
	return New(KindRange, name).Range(min, max).Default(defaultVal)
}

// PercentParameter creates a 0..100 bar control
func PercentParameter(name string, defaultVal int64) *Builder {
	return RangeParameter(name, 0, 100, defaultVal)
}

// ToggleParameter creates an on/off button
func ToggleParameter(name string, on bool) *Builder {
	def := int64(0)
	if on {
		def = 1
	}
	return New(KindToggle, name).Range(0, 1).Default(def)
}

// TriggerParameter creates a momentary button
func TriggerParameter(name string) *Builder {
	return New(KindTrigger, name).Range(0, 1).Default(0)
}

// BenderParameter creates a relative-delta control. The value itself is unused.
func BenderParameter(name string) *Builder {
	return New(KindBender, name).Range(-BenderSpan, BenderSpan).Default(0)
}

// SelectorParameter creates a drop-down list
func SelectorParameter(name string, defaultIndex int64, options ...string) *Builder {
	return New(KindSelector, name).Options(options...).Default(defaultIndex)
}

// MultiStateParameter creates a button stepping through len(labels) states.
// The label of the default state is used as the initial display value.
func MultiStateParameter(name string, defaultIndex int64, labels ...string) *Builder {
	b := New(KindMultiState, name).Range(0, int64(len(labels)-1)).Default(defaultIndex)
	if defaultIndex >= 0 && int(defaultIndex) < len(labels) {
		b.Display(labels[defaultIndex])
	}
	return b
}

// BeatParameter creates a beat-division picker over the standard divisions
func BeatParameter(name string, defaultIndex int64) *Builder {
	return New(KindBeatPicker, name).
		Range(0, int64(len(BeatDivisionLabels)-1)).
		Default(defaultIndex).
		Display(BeatFormatter(defaultIndex))
}

// SourceParameter creates a picker over the first n source slots
func SourceParameter(name string, n int64, defaultSlot int64) *Builder {
	return New(KindSourcePicker, name).Range(0, n-1).Default(defaultSlot)
}

// TextParameter creates a text entry button with an initial payload
func TextParameter(name, text string) *Builder {
	return New(KindTextEntry, name).Range(0, 0).Default(0).Display(text)
}

// FileParameter creates a file picker starting in folder
func FileParameter(name, folder string) *Builder {
	return New(KindFilePicker, name).Range(0, 0).Default(0).Display(folder)
}

// LabelParameter creates a plain label
func LabelParameter(name string) *Builder {
	return New(KindLabel, name).Range(0, 0).Default(0)
}

// ColumnBreak starts a new panel column
func ColumnBreak() *Builder {
	return New(KindColumnBreak, "").Range(0, 0).Default(0)
}

// Blank leaves an empty panel row
func Blank() *Builder {
	return New(KindBlank, "").Range(0, 0).Default(0)
}
