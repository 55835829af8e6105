package viewer

// PopupTracker is the set of popups currently open in a session.
// Not safe for concurrent use.
type PopupTracker struct {
	open map[string]struct{}
}

// NewPopupTracker returns a tracker with no open popups.
func NewPopupTracker() *PopupTracker {
	return &PopupTracker{open: make(map[string]struct{})}
}

// Open marks id as open and reports whether it was closed before.
func (p *PopupTracker) Open(id string) bool {
	if _, ok := p.open[id]; ok {
		return false
	}
	p.open[id] = struct{}{}
	return true
}

// Close marks id as closed and reports whether it was open.
func (p *PopupTracker) Close(id string) bool {
	if _, ok := p.open[id]; !ok {
		return false
	}
	delete(p.open, id)
	return true
}

// IsOpen reports whether the popup for id is open.
func (p *PopupTracker) IsOpen(id string) bool {
	_, ok := p.open[id]
	return ok
}

// Len returns the number of open popups.
func (p *PopupTracker) Len() int {
	return len(p.open)
}
