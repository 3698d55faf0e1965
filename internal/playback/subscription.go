package playback

import "time"

// eventBufferSize bounds every subscriber channel. A slow subscriber loses
// events instead of stalling the session.
const eventBufferSize = 16

// Subscription is one subscriber's view of session events. All channels are
// buffered; Done is closed when the session closes.
type Subscription struct {
	StateChanged    <-chan StateChange
	TrackChanged    <-chan TrackChange
	PositionChanged <-chan PositionChange
	QueueChanged    <-chan QueueChange
	ModeChanged     <-chan ModeChange
	VolumeChanged   <-chan VolumeChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	state    chan StateChange
	track    chan TrackChange
	position chan PositionChange
	queue    chan QueueChange
	mode     chan ModeChange
	volume   chan VolumeChange
	errs     chan ErrorEvent
	done     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		state:    make(chan StateChange, eventBufferSize),
		track:    make(chan TrackChange, eventBufferSize),
		position: make(chan PositionChange, eventBufferSize),
		queue:    make(chan QueueChange, eventBufferSize),
		mode:     make(chan ModeChange, eventBufferSize),
		volume:   make(chan VolumeChange, eventBufferSize),
		errs:     make(chan ErrorEvent, eventBufferSize),
		done:     make(chan struct{}),
	}
	s.StateChanged, s.TrackChanged, s.PositionChanged = s.state, s.track, s.position
	s.QueueChanged, s.ModeChanged, s.VolumeChanged = s.queue, s.mode, s.volume
	s.Error, s.Done = s.errs, s.done
	return s
}

func (s *Subscription) close() {
	close(s.done)
}

// offer delivers e if there is room and drops it otherwise.
func offer[E any](ch chan E, e E) {
	select {
	case ch <- e:
	default:
	}
}

// offerLatest delivers e, evicting the oldest pending value when the channel
// is full. Settings events use it so the newest value is never the one lost.
func offerLatest[E any](ch chan E, e E) {
	for {
		select {
		case ch <- e:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *Subscription) sendState(e StateChange) { offer(s.state, e) }
func (s *Subscription) sendTrack(e TrackChange) { offer(s.track, e) }
func (s *Subscription) sendQueue(e QueueChange) { offer(s.queue, e) }
func (s *Subscription) sendError(e ErrorEvent) { offer(s.errs, e) }
func (s *Subscription) sendMode(e ModeChange) { offerLatest(s.mode, e) }
func (s *Subscription) sendVolume(e VolumeChange) { offerLatest(s.volume, e) }

func (s *Subscription) sendPosition(pos time.Duration) {
	offer(s.position, PositionChange{Position: pos})
}
