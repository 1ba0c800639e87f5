package core

// ViewInvalidator receives hints about named views whose cached rendering
// became stale after a successful mutation. The presentation layer decides
// what (if anything) to do with them.
type ViewInvalidator interface {
	InvalidateViews(views ...string)
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateViews(...string) {}

// NewNopInvalidator returns a ViewInvalidator that discards all hints.
func NewNopInvalidator() ViewInvalidator { return nopInvalidator{} }
