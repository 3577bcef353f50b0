package param

// The three per-record flags each have a different owner. Their method sets
// only expose the operations the owning side is allowed to perform, so a
// call site always names which side of the contract it is acting for.

// UpdateFlag marks a record whose current value must be re-read by the plugin.
//
//	host:   Request before Update, Settle after the frame
//	plugin: Consume during Update (echo keeps it raised for the host)
type UpdateFlag struct {
	pending bool
}

// Request is called by the host when it changed the value.
func (f *UpdateFlag) Request() { f.pending = true }

// Consume is called by the plugin once it applied the value. With echo the
// flag stays raised so the host repaints the control.
func (f *UpdateFlag) Consume(echo bool) { f.pending = echo }

// Echo is called by the plugin when it changed the value itself and wants the
// host to pick the change up.
func (f *UpdateFlag) Echo() { f.pending = true }

// Settle is called by the host after the frame, once it repainted an echoed value.
func (f *UpdateFlag) Settle() { f.pending = false }

// Pending reports whether the flag is raised.
func (f *UpdateFlag) Pending() bool { return f.pending }

// ResetFlag asks the plugin to snap a record back to its default.
//
//	host:   Request
//	plugin: Consume
type ResetFlag struct {
	pending bool
}

// Request is called by the host.
func (f *ResetFlag) Request() { f.pending = true }

// Consume is called by the plugin after snapping to default.
func (f *ResetFlag) Consume(echo bool) { f.pending = echo }

// Settle clears an echoed reset after the frame. Host only.
func (f *ResetFlag) Settle() { f.pending = false }

// Pending reports whether the flag is raised.
func (f *ResetFlag) Pending() bool { return f.pending }

// NoticeFlag tells the host a plugin-written value needs repainting.
//
//	plugin: Raise
//	host:   Clear
type NoticeFlag struct {
	raised bool
}

// Raise is called by the plugin.
func (f *NoticeFlag) Raise() { f.raised = true }

// Clear is called by the host after rendering.
func (f *NoticeFlag) Clear() { f.raised = false }

// Raised reports whether the flag is set.
func (f *NoticeFlag) Raised() bool { return f.raised }
