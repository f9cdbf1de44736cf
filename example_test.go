package remote_test

import (
	"context"
	"fmt"
	"log"

	remote "github.com/go-git/go-remote"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/transport/file"
	"github.com/go-git/go-remote/storage/memory"
)

func ExampleRemote_UpdateTips() {
	// A server repository, kept in memory and served by the file transport.
	server := memory.NewStorage()
	master := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	server.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, "refs/heads/master"), true)
	server.SetReference(plumbing.NewHashReference("refs/heads/master", master), true)

	repo := remote.NewMemoryRepository()
	repo.Transport = file.NewTransport(file.MapLoader{"/srv/repo.git": server})

	r, err := remote.Add(repo, "origin", "file:///srv/repo.git")
	if err != nil {
		log.Fatal(err)
	}

	r.SetCallbacks(remote.Callbacks{
		UpdateTips: func(name plumbing.ReferenceName, old, new plumbing.Hash) error {
			fmt.Printf("%s %s\n", name.Short(), new)
			return nil
		},
	})

	if err := r.Connect(context.Background(), plumbing.Fetch); err != nil {
		log.Fatal(err)
	}

	defer r.Close()

	if err := r.UpdateTips(context.Background()); err != nil {
		log.Fatal(err)
	}

	// Output: origin/master 6ecf0ef2c2dffb796033e5a02219af86ec6584e5
}

func ExampleRemote_Rename() {
	repo := remote.NewMemoryRepository()
	r, err := remote.Add(repo, "origin", "https://github.com/git-fixtures/basic.git")
	if err != nil {
		log.Fatal(err)
	}

	err = r.Rename("upstream", func(refspec string) error {
		fmt.Println("cannot rename", refspec)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	names, err := remote.List(repo)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(names, r.FetchRefSpec())
	// Output: [upstream] +refs/heads/*:refs/remotes/upstream/*
}
