package tracelog

// Package-level functions that delegate to the most recently created
// listener. They do nothing when no listener exists.

// Init creates a listener from an initialization string and makes it the default
func Init(init string, opts ...Option) *Listener {
	return New(init, opts...)
}

// WriteLine writes a line through the default listener
func WriteLine(message string) {
	if l := Default(); l != nil {
		l.WriteLine(message)
	}
}

// Write writes a partial line through the default listener
func Write(message string) {
	if l := Default(); l != nil {
		l.Write(message)
	}
}

// WriteValue writes a rendered value through the default listener
func WriteValue(v any) {
	if l := Default(); l != nil {
		l.WriteValue(v)
	}
}

// Indent increases the indent level of the default listener
func Indent() {
	if l := Default(); l != nil {
		l.Indent()
	}
}

// Unindent decreases the indent level of the default listener
func Unindent() {
	if l := Default(); l != nil {
		l.Unindent()
	}
}

// Flush flushes the default listener
func Flush() {
	if l := Default(); l != nil {
		l.Flush()
	}
}

// Shutdown closes the default listener
func Shutdown() error {
	if l := Default(); l != nil {
		return l.Close()
	}
	return nil
}
