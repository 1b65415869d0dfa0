package goportal

// Opening is the timed state machine behind the readyToRender flag: a
// progress fraction in [0,1] advanced once per frame, replacing the
// coroutine-driven appear animation of engine-managed hosts.
type Opening struct {
	frames   int
	elapsed  int
	running  bool
	finished bool
}

func NewOpening(frames int) *Opening {
	if frames < 1 {
		frames = 1
	}
	return &Opening{frames: frames}
}

// Restart begins the animation from zero, e.g. on a fresh placement.
func (o *Opening) Restart() {
	o.elapsed = 0
	o.running = true
	o.finished = false
}

// Reset returns to the idle, not-ready state, e.g. on removal.
func (o *Opening) Reset() {
	o.elapsed = 0
	o.running = false
	o.finished = false
}

// Advance steps the animation by one frame.
func (o *Opening) Advance() {
	if !o.running {
		return
	}
	o.elapsed++
	if o.elapsed >= o.frames {
		o.running = false
		o.finished = true
	}
}

// Progress is the animation fraction in [0,1].
func (o *Opening) Progress() float64 {
	if o.finished {
		return 1
	}
	if !o.running {
		return 0
	}
	return float64(o.elapsed) / float64(o.frames)
}

// Ready is the readyToRender flag consumed by the render scheduler.
func (o *Opening) Ready() bool { return o.finished }
