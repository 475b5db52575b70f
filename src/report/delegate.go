package report

// Delegate is the observer a Reporter notifies. Both methods are required: a host that
// cannot handle build start and finish cannot be wired to a Reporter at all.
//
// The delegate receives the Reporter's live Build and actions. Implementations must not
// modify them and must Clone before handing them to another goroutine.
type Delegate interface {
	BuildStarted(b *Build)
	BuildFinished(b *Build)
}

// ActionStartedNotifier is implemented by delegates interested in new actions.
type ActionStartedNotifier interface {
	BuildActionStarted(a *BuildAction)
}

// ActionFinishedNotifier is implemented by delegates interested in closed actions.
type ActionFinishedNotifier interface {
	BuildActionFinished(a *BuildAction)
}

// EnvVariableNotifier is implemented by delegates interested in setenv lines.
type EnvVariableNotifier interface {
	EnvVariableDetected(name, value string)
}

// ActionFailedNotifier is implemented by delegates interested in BuildActionFailed events.
type ActionFailedNotifier interface {
	BuildActionFailed(a *BuildAction)
}

// FullDelegate has every notification, required and optional.
type FullDelegate interface {
	Delegate
	ActionStartedNotifier
	ActionFinishedNotifier
	EnvVariableNotifier
	ActionFailedNotifier
}

// NopDelegate ignores every notification. Embed it to implement only a few methods.
type NopDelegate struct{}

func (NopDelegate) BuildStarted(*Build)                {}
func (NopDelegate) BuildFinished(*Build)               {}
func (NopDelegate) BuildActionStarted(*BuildAction)    {}
func (NopDelegate) BuildActionFinished(*BuildAction)   {}
func (NopDelegate) EnvVariableDetected(string, string) {}
func (NopDelegate) BuildActionFailed(*BuildAction)     {}

// adapter fills the optional notifications of a partial delegate with no-ops.
// Capabilities are resolved once, at construction.
type adapter struct {
	Delegate
	started  ActionStartedNotifier
	finished ActionFinishedNotifier
	env      EnvVariableNotifier
	failed   ActionFailedNotifier
}

// Adapt wraps d so every optional notification can be called unconditionally.
// A nil d yields a NopDelegate.
func Adapt(d Delegate) FullDelegate {
	if d == nil {
		return NopDelegate{}
	}
	if full, ok := d.(FullDelegate); ok {
		return full
	}
	a := &adapter{Delegate: d}
	a.started, _ = d.(ActionStartedNotifier)
	a.finished, _ = d.(ActionFinishedNotifier)
	a.env, _ = d.(EnvVariableNotifier)
	a.failed, _ = d.(ActionFailedNotifier)
	return a
}

func (a *adapter) BuildActionStarted(action *BuildAction) {
	if a.started != nil {
		a.started.BuildActionStarted(action)
	}
}

func (a *adapter) BuildActionFinished(action *BuildAction) {
	if a.finished != nil {
		a.finished.BuildActionFinished(action)
	}
}

func (a *adapter) EnvVariableDetected(name, value string) {
	if a.env != nil {
		a.env.EnvVariableDetected(name, value)
	}
}

func (a *adapter) BuildActionFailed(action *BuildAction) {
	if a.failed != nil {
		a.failed.BuildActionFailed(action)
	}
}
