// Package artifact retrieves movement documents and derives their final
// names and preview images. Every step past the download is best-effort:
// a document with no extractable text still gets a (sentinel) name, a
// document whose preview fails is still a valid artifact.
package artifact

// State tracks an artifact through the two-phase temp->final rename so the
// partial-failure points stay explicit instead of being incidental
// filesystem side effects.
type State int

const (
	StatePending State = iota
	StateDownloaded
	StateNamed
	StatePreviewed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDownloaded:
		return "downloaded"
	case StateNamed:
		return "named"
	case StatePreviewed:
		return "previewed"
	}
	return "unknown"
}

type Artifact struct {
	// source reference token scraped from the movement row
	Token string
	// resolved retrieval URL
	URL string
	// short text extracted from the first page, used for naming;
	// the sentinel "sin_resumen" when no usable text was found
	Summary string

	TempPath    string
	FinalPath   string
	PreviewPath string

	State State
}

// document kinds select the per-section retrieval endpoint template
const (
	KindResolution = ""
	KindAppeal     = "apelacion"
)
