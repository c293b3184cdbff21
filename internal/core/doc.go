// Package core holds the reactive building blocks shared by the providers and
// view models: Result for asynchronous outcomes, EventFlow for pushing events,
// Pack and Flow for turning a producer function into a shared observable
// output, and ScreenProvider for the mount/dispose lifecycle of a screen.
//
// Every long-lived loop is a goroutine owned by a Flow or ScreenProvider and
// stops when its context is cancelled; callers unsubscribe and close
// explicitly.
package core
