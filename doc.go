// Package userstate holds the signed-in user's session state as a set of
// independent, typed slots. Each slot keeps its latest value, logs every Set
// and delivers it synchronously to observers, replaying the latest value to
// late subscribers.
//
// A State is built once per session with NewState or NewStateFromConfig and
// passed to the views that read or update it.
package userstate
