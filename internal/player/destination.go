package player

// Destination is where a sink renders audio.
type Destination struct {
	ID   string
	Name string
}

// Destinations finds the destination a user is currently present in.
type Destinations interface {
	Resolve(identity string) (Destination, bool)
}

// LocalDestinations exposes the local output device. When Owner is set only
// that identity resolves.
type LocalDestinations struct {
	Owner string
}

// Resolve implements Destinations.
func (l LocalDestinations) Resolve(identity string) (Destination, bool) {
	if l.Owner != "" && identity != l.Owner {
		return Destination{}, false
	}
	return Destination{ID: "local", Name: "default output"}, true
}
