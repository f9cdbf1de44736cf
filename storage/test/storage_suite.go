// Package test holds the conformance suite every storage backend runs.
package test

import (
	"errors"

	. "gopkg.in/check.v1"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/storage"
)

type TestObject struct {
	Content []byte
	Hash    string
	Type    plumbing.ObjectType
}

// BaseStorageSuite is embedded by the suite of each backend, which sets
// Storer before every test.
type BaseStorageSuite struct {
	Storer storage.Storer

	testObjects map[plumbing.ObjectType]TestObject
}

func NewBaseStorageSuite(s storage.Storer) BaseStorageSuite {
	return BaseStorageSuite{
		Storer: s,
		testObjects: map[plumbing.ObjectType]TestObject{
			plumbing.CommitObject: {[]byte{}, "dcf5b16e76cce7425d0beaef62d79a7d10fce1f5", plumbing.CommitObject},
			plumbing.TreeObject:   {[]byte{}, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", plumbing.TreeObject},
			plumbing.BlobObject:   {[]byte{}, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", plumbing.BlobObject},
			plumbing.TagObject:    {[]byte{}, "d994c6bb648123a17e8f70a966857c546b2a6f94", plumbing.TagObject},
		},
	}
}

func (s *BaseStorageSuite) TestSetEncodedObjectAndHas(c *C) {
	for _, to := range s.testObjects {
		comment := Commentf("failed for type %s", to.Type.String())

		h := plumbing.NewHash(to.Hash)
		c.Assert(s.Storer.HasEncodedObject(h), Equals, plumbing.ErrObjectNotFound, comment)

		got, err := s.Storer.SetEncodedObject(to.Type, to.Content)
		c.Assert(err, IsNil, comment)
		c.Assert(got.String(), Equals, to.Hash, comment)
		c.Assert(s.Storer.HasEncodedObject(h), IsNil, comment)

		got, err = s.Storer.SetEncodedObject(to.Type, to.Content)
		c.Assert(err, IsNil, comment)
		c.Assert(got.String(), Equals, to.Hash, comment)
	}
}

func (s *BaseStorageSuite) TestSetEncodedObjectInvalid(c *C) {
	_, err := s.Storer.SetEncodedObject(plumbing.InvalidObject, []byte("foo"))
	c.Assert(err, Equals, plumbing.ErrInvalidType)
}

func (s *BaseStorageSuite) TestSetReferenceAndGetReference(c *C) {
	err := s.Storer.SetReference(
		plumbing.NewReferenceFromStrings("refs/heads/foo", "bc9968d75e48de59f0870ffb71f5e160bbbdcf52"), true,
	)
	c.Assert(err, IsNil)

	err = s.Storer.SetReference(
		plumbing.NewReferenceFromStrings("refs/heads/bar", "482e0eada5de4039e6f216b45b3c9b683b83bfab"), true,
	)
	c.Assert(err, IsNil)

	e, err := s.Storer.Reference(plumbing.ReferenceName("refs/heads/foo"))
	c.Assert(err, IsNil)
	c.Assert(e.Hash().String(), Equals, "bc9968d75e48de59f0870ffb71f5e160bbbdcf52")

	_, err = s.Storer.Reference(plumbing.ReferenceName("refs/heads/missing"))
	c.Assert(err, Equals, plumbing.ErrReferenceNotFound)
}

func (s *BaseStorageSuite) TestSetReferenceSymbolic(c *C) {
	err := s.Storer.SetReference(
		plumbing.NewSymbolicReference("refs/remotes/origin/HEAD", "refs/remotes/origin/master"), true,
	)
	c.Assert(err, IsNil)

	e, err := s.Storer.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"))
	c.Assert(err, IsNil)
	c.Assert(e.Type(), Equals, plumbing.SymbolicReference)
	c.Assert(e.Target(), Equals, plumbing.ReferenceName("refs/remotes/origin/master"))
}

func (s *BaseStorageSuite) TestSetReferenceWithoutForce(c *C) {
	foo := plumbing.NewReferenceFromStrings("refs/tags/foo", "bc9968d75e48de59f0870ffb71f5e160bbbdcf52")
	c.Assert(s.Storer.SetReference(foo, false), IsNil)
	c.Assert(s.Storer.SetReference(foo, false), IsNil)

	other := plumbing.NewReferenceFromStrings("refs/tags/foo", "482e0eada5de4039e6f216b45b3c9b683b83bfab")
	err := s.Storer.SetReference(other, false)
	c.Assert(errors.Is(err, storage.ErrReferenceExists), Equals, true)

	e, err := s.Storer.Reference(plumbing.ReferenceName("refs/tags/foo"))
	c.Assert(err, IsNil)
	c.Assert(e.Hash(), Equals, foo.Hash())

	c.Assert(s.Storer.SetReference(other, true), IsNil)
	e, err = s.Storer.Reference(plumbing.ReferenceName("refs/tags/foo"))
	c.Assert(err, IsNil)
	c.Assert(e.Hash(), Equals, other.Hash())
}

func (s *BaseStorageSuite) TestSetReferencePseudoRef(c *C) {
	ref := plumbing.NewReferenceFromStrings("FETCH_HEAD", "bc9968d75e48de59f0870ffb71f5e160bbbdcf52")
	c.Assert(s.Storer.SetReference(ref, true), IsNil)

	e, err := s.Storer.Reference(plumbing.FetchHead)
	c.Assert(err, IsNil)
	c.Assert(e.Hash(), Equals, ref.Hash())
}

func (s *BaseStorageSuite) TestSetReferenceInvalidName(c *C) {
	for _, name := range []string{"refs/heads/foo..bar", "refs/heads/with space", "refs/tags/v1^{}"} {
		ref := plumbing.NewReferenceFromStrings(name, "bc9968d75e48de59f0870ffb71f5e160bbbdcf52")
		err := s.Storer.SetReference(ref, true)
		c.Assert(errors.Is(err, storage.ErrInvalidReferenceName), Equals, true, Commentf("name: %s", name))

		_, err = s.Storer.Reference(plumbing.ReferenceName(name))
		c.Assert(err, Equals, plumbing.ErrReferenceNotFound, Commentf("name: %s", name))
	}
}

func (s *BaseStorageSuite) TestRenameReferenceInvalidName(c *C) {
	err := s.Storer.SetReference(
		plumbing.NewReferenceFromStrings("refs/remotes/origin/master", "bc9968d75e48de59f0870ffb71f5e160bbbdcf52"), true,
	)
	c.Assert(err, IsNil)

	err = s.Storer.RenameReference("refs/remotes/origin/master", "refs/remotes/up..stream/master", false)
	c.Assert(errors.Is(err, storage.ErrInvalidReferenceName), Equals, true)

	e, err := s.Storer.Reference("refs/remotes/origin/master")
	c.Assert(err, IsNil)
	c.Assert(e.Hash().String(), Equals, "bc9968d75e48de59f0870ffb71f5e160bbbdcf52")
}

func (s *BaseStorageSuite) TestRemoveReference(c *C) {
	err := s.Storer.SetReference(
		plumbing.NewReferenceFromStrings("refs/heads/foo", "bc9968d75e48de59f0870ffb71f5e160bbbdcf52"), true,
	)
	c.Assert(err, IsNil)

	c.Assert(s.Storer.RemoveReference(plumbing.ReferenceName("refs/heads/foo")), IsNil)

	_, err = s.Storer.Reference(plumbing.ReferenceName("refs/heads/foo"))
	c.Assert(err, Equals, plumbing.ErrReferenceNotFound)

	c.Assert(s.Storer.RemoveReference(plumbing.ReferenceName("refs/heads/missing")), IsNil)
}

func (s *BaseStorageSuite) TestRenameReference(c *C) {
	err := s.Storer.SetReference(
		plumbing.NewReferenceFromStrings("refs/remotes/origin/master", "bc9968d75e48de59f0870ffb71f5e160bbbdcf52"), true,
	)
	c.Assert(err, IsNil)

	err = s.Storer.RenameReference("refs/remotes/origin/master", "refs/remotes/upstream/master", false)
	c.Assert(err, IsNil)

	_, err = s.Storer.Reference("refs/remotes/origin/master")
	c.Assert(err, Equals, plumbing.ErrReferenceNotFound)

	e, err := s.Storer.Reference("refs/remotes/upstream/master")
	c.Assert(err, IsNil)
	c.Assert(e.Name(), Equals, plumbing.ReferenceName("refs/remotes/upstream/master"))
	c.Assert(e.Hash().String(), Equals, "bc9968d75e48de59f0870ffb71f5e160bbbdcf52")

	err = s.Storer.RenameReference("refs/remotes/origin/missing", "refs/remotes/upstream/missing", false)
	c.Assert(err, Equals, plumbing.ErrReferenceNotFound)
}

func (s *BaseStorageSuite) TestRenameReferenceExisting(c *C) {
	for _, name := range []string{"refs/heads/a", "refs/heads/b"} {
		err := s.Storer.SetReference(
			plumbing.NewReferenceFromStrings(name, "bc9968d75e48de59f0870ffb71f5e160bbbdcf52"), true,
		)
		c.Assert(err, IsNil)
	}

	err := s.Storer.RenameReference("refs/heads/a", "refs/heads/b", false)
	c.Assert(errors.Is(err, storage.ErrReferenceExists), Equals, true)

	_, err = s.Storer.Reference("refs/heads/a")
	c.Assert(err, IsNil)

	c.Assert(s.Storer.RenameReference("refs/heads/a", "refs/heads/b", true), IsNil)
	_, err = s.Storer.Reference("refs/heads/a")
	c.Assert(err, Equals, plumbing.ErrReferenceNotFound)
}

func (s *BaseStorageSuite) TestIterReferences(c *C) {
	names := []string{"refs/heads/z", "refs/heads/a", "refs/tags/v1"}
	for _, name := range names {
		err := s.Storer.SetReference(
			plumbing.NewReferenceFromStrings(name, "bc9968d75e48de59f0870ffb71f5e160bbbdcf52"), true,
		)
		c.Assert(err, IsNil)
	}

	iter, err := s.Storer.IterReferences()
	c.Assert(err, IsNil)

	refs, err := storer.CollectReferences(storer.NewReferencePrefixIter("refs/", iter))
	c.Assert(err, IsNil)
	c.Assert(refs, HasLen, 3)
	c.Assert(refs[0].Name().String(), Equals, "refs/heads/a")
	c.Assert(refs[1].Name().String(), Equals, "refs/heads/z")
	c.Assert(refs[2].Name().String(), Equals, "refs/tags/v1")
}

func (s *BaseStorageSuite) TestConfig(c *C) {
	cfg := s.Storer.Config()

	_, err := cfg.GetString("remote.origin.url")
	c.Assert(errors.Is(err, config.ErrKeyNotFound), Equals, true)

	c.Assert(cfg.SetString("remote.origin.url", "https://example.com/repo.git"), IsNil)
	c.Assert(cfg.SetString("remote.origin.fetch", "+refs/heads/*:refs/remotes/origin/*"), IsNil)
	c.Assert(cfg.SetString("branch.master.remote", "origin"), IsNil)

	v, err := cfg.GetString("remote.origin.url")
	c.Assert(err, IsNil)
	c.Assert(v, Equals, "https://example.com/repo.git")

	c.Assert(cfg.SetString("remote.origin.url", "https://example.com/other.git"), IsNil)
	v, err = cfg.GetString("remote.origin.url")
	c.Assert(err, IsNil)
	c.Assert(v, Equals, "https://example.com/other.git")

	var keys []string
	err = cfg.ForEach(`^remote\.`, func(e *config.Entry) error {
		keys = append(keys, e.Key)
		return nil
	})
	c.Assert(err, IsNil)
	c.Assert(keys, DeepEquals, []string{"remote.origin.url", "remote.origin.fetch"})

	c.Assert(cfg.Delete("remote.origin.fetch"), IsNil)
	err = cfg.Delete("remote.origin.fetch")
	c.Assert(errors.Is(err, config.ErrKeyNotFound), Equals, true)
}

func (s *BaseStorageSuite) TestConfigRenameSection(c *C) {
	cfg := s.Storer.Config()

	c.Assert(cfg.SetString("remote.origin.url", "https://example.com/repo.git"), IsNil)
	c.Assert(cfg.SetString("remote.origin.tagopt", "--no-tags"), IsNil)

	c.Assert(cfg.RenameSection("remote.origin", "remote.upstream"), IsNil)

	_, err := cfg.GetString("remote.origin.url")
	c.Assert(errors.Is(err, config.ErrKeyNotFound), Equals, true)

	v, err := cfg.GetString("remote.upstream.url")
	c.Assert(err, IsNil)
	c.Assert(v, Equals, "https://example.com/repo.git")

	v, err = cfg.GetString("remote.upstream.tagopt")
	c.Assert(err, IsNil)
	c.Assert(v, Equals, "--no-tags")
}

func (s *BaseStorageSuite) TestConfigForEachStop(c *C) {
	cfg := s.Storer.Config()
	c.Assert(cfg.SetString("remote.a.url", "a"), IsNil)
	c.Assert(cfg.SetString("remote.b.url", "b"), IsNil)

	var seen int
	err := cfg.ForEach("", func(*config.Entry) error {
		seen++
		return storer.ErrStop
	})
	c.Assert(err, IsNil)
	c.Assert(seen, Equals, 1)
}
