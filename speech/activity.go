package speech

import "time"

// Activity is the binary speaking state driven by the volume monitor.
type Activity int

const (
	// ActivitySilent indicates the current volume is treated as silence.
	ActivitySilent Activity = iota
	// ActivityActive indicates the speaker is audibly making sound.
	ActivityActive
)

// String returns the string representation of the activity state.
func (a Activity) String() string {
	switch a {
	case ActivitySilent:
		return "silent"
	case ActivityActive:
		return "active"
	default:
		return "unknown"
	}
}

// decideActivity is the pure hysteresis decision. A candidate state must
// have been holdable since the last transition for the opposing dwell time
// before it is allowed to fire; disagreement inside the dwell window is
// ignored, which is what prevents flapping at the threshold boundary.
func decideActivity(state Activity, smoothed, threshold float64, now, lastTransition time.Time, minActiveDwell, minSilentDwell time.Duration) (Activity, bool) {
	above := smoothed > threshold

	switch {
	case above && state == ActivitySilent && now.Sub(lastTransition) >= minSilentDwell:
		return ActivityActive, true
	case !above && state == ActivityActive && now.Sub(lastTransition) >= minActiveDwell:
		return ActivitySilent, true
	}

	return state, false
}

// activityTracker carries the dwell-time bookkeeping between monitor ticks.
// It is owned exclusively by the monitor goroutine for one session.
type activityTracker struct {
	state          Activity
	lastTransition time.Time
}

// newActivityTracker returns a tracker starting Silent at the given time.
func newActivityTracker(start time.Time) activityTracker {
	return activityTracker{
		state:          ActivitySilent,
		lastTransition: start,
	}
}

// observe feeds one smoothed volume sample through the decision and commits
// any resulting transition. It reports the new state and whether a
// transition fired.
func (t *activityTracker) observe(smoothed, threshold float64, now time.Time, minActiveDwell, minSilentDwell time.Duration) (Activity, bool) {
	next, changed := decideActivity(t.state, smoothed, threshold, now, t.lastTransition, minActiveDwell, minSilentDwell)
	if changed {
		t.state = next
		t.lastTransition = now
	}
	return t.state, changed
}
