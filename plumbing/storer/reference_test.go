package storer

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-git/go-remote/plumbing"
)

type ReferenceSuite struct {
	suite.Suite
}

func TestReferenceSuite(t *testing.T) {
	suite.Run(t, new(ReferenceSuite))
}

func (s *ReferenceSuite) TestReferenceSliceIterNext() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("foo", "foo"),
		plumbing.NewReferenceFromStrings("bar", "bar"),
	}

	i := NewReferenceSliceIter(slice)
	foo, err := i.Next()
	s.NoError(err)
	s.True(foo == slice[0])

	bar, err := i.Next()
	s.NoError(err)
	s.True(bar == slice[1])

	empty, err := i.Next()
	s.ErrorIs(err, io.EOF)
	s.Nil(empty)
}

func (s *ReferenceSuite) TestReferenceSliceIterForEach() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("foo", "foo"),
		plumbing.NewReferenceFromStrings("bar", "bar"),
	}

	i := NewReferenceSliceIter(slice)
	var count int
	i.ForEach(func(r *plumbing.Reference) error {
		s.True(r == slice[count])
		count++
		return nil
	})

	s.Equal(2, count)
}

func (s *ReferenceSuite) TestReferenceSliceIterForEachError() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("foo", "foo"),
		plumbing.NewReferenceFromStrings("bar", "bar"),
	}

	i := NewReferenceSliceIter(slice)
	var count int
	exampleErr := errors.New("SOME ERROR")
	err := i.ForEach(func(r *plumbing.Reference) error {
		s.True(r == slice[count])
		count++
		if count == 2 {
			return exampleErr
		}

		return nil
	})

	s.ErrorIs(err, exampleErr)
	s.Equal(2, count)
}

func (s *ReferenceSuite) TestReferenceSliceIterForEachStop() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("foo", "foo"),
		plumbing.NewReferenceFromStrings("bar", "bar"),
	}

	i := NewReferenceSliceIter(slice)

	var count int
	i.ForEach(func(r *plumbing.Reference) error {
		s.True(r == slice[count])
		count++
		return ErrStop
	})

	s.Equal(1, count)
}

func (s *ReferenceSuite) TestReferenceFilteredIterNext() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("foo", "foo"),
		plumbing.NewReferenceFromStrings("bar", "bar"),
	}

	i := NewReferenceFilteredIter(func(r *plumbing.Reference) bool {
		return r.Name() == "bar"
	}, NewReferenceSliceIter(slice))
	foo, err := i.Next()
	s.NoError(err)
	s.False(foo == slice[0])
	s.True(foo == slice[1])

	empty, err := i.Next()
	s.ErrorIs(err, io.EOF)
	s.Nil(empty)
}

func (s *ReferenceSuite) TestReferenceFilteredIterForEach() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("foo", "foo"),
		plumbing.NewReferenceFromStrings("bar", "bar"),
	}

	i := NewReferenceFilteredIter(func(r *plumbing.Reference) bool {
		return r.Name() == "bar"
	}, NewReferenceSliceIter(slice))
	var count int
	i.ForEach(func(r *plumbing.Reference) error {
		s.True(r == slice[1])
		count++
		return nil
	})

	s.Equal(1, count)
}

func (s *ReferenceSuite) TestReferenceFilteredIterError() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("foo", "foo"),
		plumbing.NewReferenceFromStrings("bar", "bar"),
	}

	i := NewReferenceFilteredIter(func(r *plumbing.Reference) bool {
		return r.Name() == "bar"
	}, NewReferenceSliceIter(slice))
	var count int
	exampleErr := errors.New("SOME ERROR")
	err := i.ForEach(func(r *plumbing.Reference) error {
		s.True(r == slice[1])
		count++
		if count == 1 {
			return exampleErr
		}

		return nil
	})

	s.ErrorIs(err, exampleErr)
	s.Equal(1, count)
}

func (s *ReferenceSuite) TestReferenceFilteredIterForEachStop() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("foo", "foo"),
		plumbing.NewReferenceFromStrings("bar", "bar"),
	}

	i := NewReferenceFilteredIter(func(r *plumbing.Reference) bool {
		return r.Name() == "bar"
	}, NewReferenceSliceIter(slice))

	var count int
	i.ForEach(func(r *plumbing.Reference) error {
		s.True(r == slice[1])
		count++
		return ErrStop
	})

	s.Equal(1, count)
}

func (s *ReferenceSuite) TestReferencePrefixIter() {
	slice := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("refs/remotes/origin/master", "foo"),
		plumbing.NewReferenceFromStrings("refs/remotes/originals/master", "foo"),
		plumbing.NewReferenceFromStrings("refs/remotes/origin/dev", "foo"),
		plumbing.NewReferenceFromStrings("refs/heads/master", "foo"),
	}

	refs, err := CollectReferences(NewReferencePrefixIter(
		plumbing.RemoteReferencePrefix("origin"), NewReferenceSliceIter(slice),
	))
	s.NoError(err)
	s.Len(refs, 2)
	s.Equal(plumbing.ReferenceName("refs/remotes/origin/master"), refs[0].Name())
	s.Equal(plumbing.ReferenceName("refs/remotes/origin/dev"), refs[1].Name())
}

type mapReferenceStorer map[plumbing.ReferenceName]*plumbing.Reference

func (m mapReferenceStorer) Reference(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	r, ok := m[n]
	if !ok {
		return nil, plumbing.ErrReferenceNotFound
	}

	return r, nil
}

func (m mapReferenceStorer) SetReference(r *plumbing.Reference, _ bool) error {
	m[r.Name()] = r
	return nil
}

func (m mapReferenceStorer) RenameReference(_, _ plumbing.ReferenceName, _ bool) error {
	return nil
}

func (m mapReferenceStorer) RemoveReference(n plumbing.ReferenceName) error {
	delete(m, n)
	return nil
}

func (m mapReferenceStorer) IterReferences() (ReferenceIter, error) {
	var refs []*plumbing.Reference
	for _, r := range m {
		refs = append(refs, r)
	}

	return NewReferenceSliceIter(refs), nil
}

func (s *ReferenceSuite) TestResolveReference() {
	h := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	st := mapReferenceStorer{}
	st.SetReference(plumbing.NewHashReference("refs/heads/master", h), true)
	st.SetReference(plumbing.NewSymbolicReference("refs/remotes/origin/HEAD", "refs/heads/master"), true)
	st.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, "refs/remotes/origin/HEAD"), true)

	r, err := ResolveReference(st, plumbing.HEAD)
	s.NoError(err)
	s.Equal(h, r.Hash())
	s.Equal(plumbing.ReferenceName("refs/heads/master"), r.Name())

	_, err = ResolveReference(st, "refs/heads/missing")
	s.ErrorIs(err, plumbing.ErrReferenceNotFound)
}

func (s *ReferenceSuite) TestResolveReferenceLoop() {
	st := mapReferenceStorer{}
	st.SetReference(plumbing.NewSymbolicReference("refs/heads/a", "refs/heads/b"), true)
	st.SetReference(plumbing.NewSymbolicReference("refs/heads/b", "refs/heads/a"), true)

	_, err := ResolveReference(st, "refs/heads/a")
	s.True(errors.Is(err, ErrMaxResolveRecursion))
}
