package file

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-remote/internal/reference"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/protocol/packp"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/plumbing/transport"
)

// Agent is sent in the agent capability.
const Agent = "go-remote"

const maxResolveRecursion = 1 << 10

var errSymRefTargetNotFound = errors.New("symbolic reference target not found")

// advertise builds the advertised-refs message a git server would
// send for the references in st: HEAD first for upload-pack, every other
// reference under refs/ sorted by name with symbolic ones resolved.
func advertise(st storer.ReferenceStorer, service string) (*packp.AdvRefs, error) {
	refs, err := reference.References(st)
	if err != nil {
		return nil, err
	}

	reference.Sort(refs)

	caps := []string{"agent=" + Agent}
	if service == transport.ReceivePackServiceName {
		caps = append([]string{"report-status", "delete-refs"}, caps...)
	}

	adv := packp.NewAdvRefs()
	if service == transport.UploadPackServiceName {
		if err := addHead(st, adv, &caps); err != nil {
			return nil, err
		}
	}

	for _, ref := range refs {
		if !strings.HasPrefix(ref.Name().String(), "refs/") {
			continue
		}

		h, err := resolve(st, ref)
		if errors.Is(err, errSymRefTargetNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		adv.Entries = append(adv.Entries, &packp.Entry{
			Type: packp.EntryRef,
			Name: ref.Name().String(),
			Hash: h,
		})
	}

	if len(adv.Entries) == 0 {
		adv.Entries = append(adv.Entries, &packp.Entry{Type: packp.EntryNoRefs, Name: "capabilities^{}"})
	}

	adv.Entries[0].Capabilities = caps
	return adv, nil
}

func addHead(st storer.ReferenceStorer, adv *packp.AdvRefs, caps *[]string) error {
	head, err := st.Reference(plumbing.HEAD)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	h, err := resolve(st, head)
	if errors.Is(err, errSymRefTargetNotFound) {
		// unborn branch
		return nil
	}

	if err != nil {
		return err
	}

	if head.Type() == plumbing.SymbolicReference {
		*caps = append(*caps, fmt.Sprintf("symref=%s:%s", plumbing.HEAD, head.Target()))
	}

	adv.Entries = append(adv.Entries, &packp.Entry{
		Type: packp.EntryRef,
		Name: plumbing.HEAD.String(),
		Hash: h,
	})

	return nil
}

func resolve(st storer.ReferenceStorer, ref *plumbing.Reference) (plumbing.Hash, error) {
	for i := 0; i < maxResolveRecursion; i++ {
		if ref.Type() != plumbing.SymbolicReference {
			return ref.Hash(), nil
		}

		next, err := st.Reference(ref.Target())
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, errSymRefTargetNotFound
		}

		if err != nil {
			return plumbing.ZeroHash, err
		}

		ref = next
	}

	return plumbing.ZeroHash, fmt.Errorf("%w: too many levels of indirection", errSymRefTargetNotFound)
}
