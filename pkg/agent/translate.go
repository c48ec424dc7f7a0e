package agent

// FamilyOptions is the option shape one transport family understands.
type FamilyOptions interface {
	Family() Family
}

// ClassicOptions configure the classic family, which expresses connection
// lifetime as a keep-alive switch and a socket ceiling.
type ClassicOptions struct {
	KeepAlive  bool
	MaxSockets int
}

func (ClassicOptions) Family() Family {
	return FamilyClassic
}

// DispatcherOptions configure the dispatcher family, which expresses the
// same concepts as a pipelining depth (0 = no persistent connection) and a
// connection pool size.
type DispatcherOptions struct {
	Pipelining  int
	Connections int
}

func (DispatcherOptions) Family() Family {
	return FamilyDispatcher
}

// defaultPipelining is the dispatcher depth used when neither pipelining nor
// keep-alive was given.
const defaultPipelining = 1

// Translate maps the family-neutral options onto the shape family f expects.
// It is pure: NoProxy and any other resolver-only directive never reach the
// result.
func Translate(o Options, f Family) FamilyOptions {
	if f == FamilyDispatcher {
		return translateDispatcher(o)
	}
	return translateClassic(o)
}

func translateClassic(o Options) ClassicOptions {
	var ret ClassicOptions
	switch {
	case o.KeepAlive != nil:
		ret.KeepAlive = *o.KeepAlive
	case o.Pipelining != nil:
		ret.KeepAlive = *o.Pipelining > 0
	default:
		ret.KeepAlive = DefaultKeepAlive
	}
	switch {
	case o.MaxSockets != nil:
		ret.MaxSockets = *o.MaxSockets
	case o.Connections != nil:
		ret.MaxSockets = *o.Connections
	}
	return ret
}

func translateDispatcher(o Options) DispatcherOptions {
	var ret DispatcherOptions
	switch {
	case o.Pipelining != nil:
		ret.Pipelining = *o.Pipelining
	case o.KeepAlive != nil && *o.KeepAlive:
		ret.Pipelining = 1
	case o.KeepAlive != nil:
		ret.Pipelining = 0
	default:
		ret.Pipelining = defaultPipelining
	}
	switch {
	case o.Connections != nil:
		ret.Connections = *o.Connections
	case o.MaxSockets != nil:
		ret.Connections = *o.MaxSockets
	}
	return ret
}
