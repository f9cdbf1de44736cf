// Package remote keeps the references of a local repository in sync with
// the ones advertised by its remotes.
//
// A Remote is a named or transient identity: an url, an optional push url, a
// fetch and a push refspec and a tag download policy. Named remotes are
// persisted in the repository configuration, under the remote.<name>
// section. Once connected, a Remote exposes the references advertised by the
// server and UpdateTips reconciles them into the local reference store,
// following the fetch refspec and the tag policy.
//
// The package is transport agnostic, connections are opened through the
// transport.Transport of the Repository. The storage of the repository,
// references, objects and configuration, is any storage.Storer, see the
// memory, filesystem and sqlite backends.
package remote
