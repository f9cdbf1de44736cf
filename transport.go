package remote

// Default supported transports.
import (
	_ "github.com/go-git/go-remote/plumbing/transport/file" // file transport
	_ "github.com/go-git/go-remote/plumbing/transport/http" // http transport
	_ "github.com/go-git/go-remote/plumbing/transport/ssh"  // ssh transport
)
