package engine

// ModelSwitcher is an optional capability of engine sessions that can
// switch the active model mid-session. Callers type-assert on Session.
type ModelSwitcher interface {
	// SwitchModel changes the session's active model. Returns false when
	// the session cannot switch (unknown model, provider restriction).
	SwitchModel(model string) bool
}
