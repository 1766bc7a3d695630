package bridge

// borrowed holds a View for the duration of one call.
type borrowed struct {
	view View
}

func (b *borrowed) release() {
	if b == nil || b.view == nil {
		return
	}
	v := b.view
	b.view = nil
	v.Release()
}

// statusGuard owns a Status record until release. The accessors report the
// zero value once the record has been released.
type statusGuard struct {
	st Status
}

func (g *statusGuard) code() int {
	if g.st == nil {
		return StatusOK
	}
	return g.st.Code()
}

func (g *statusGuard) message() []byte {
	if g.st == nil {
		return nil
	}
	return g.st.Message()
}

func (g *statusGuard) release() {
	if g.st == nil {
		return
	}
	st := g.st
	g.st = nil
	st.Free()
}
