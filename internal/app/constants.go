package app

import "time"

// Lifecycle is the state of a session: waiting for players, playing, or finished.
type Lifecycle string

const (
	LifecycleWaiting  Lifecycle = "waiting"
	LifecyclePlaying  Lifecycle = "playing"
	LifecycleFinished Lifecycle = "finished"
)

// defaultSubscriberBuffer is used when the config leaves the buffer unset.
const defaultSubscriberBuffer = 64

// shutdownGrace bounds how long Shutdown waits for subscribers when ctx has no deadline.
const shutdownGrace = 5 * time.Second
