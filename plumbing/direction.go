package plumbing

// Direction tells whether a refspec or a connection is meant to fetch from or
// push to a remote.
type Direction int8

const (
	Fetch Direction = iota
	Push
)

func (d Direction) String() string {
	switch d {
	case Fetch:
		return "fetch"
	case Push:
		return "push"
	}

	return "unknown"
}
