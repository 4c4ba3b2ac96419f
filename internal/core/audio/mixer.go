package audio

import (
	"fmt"
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/pkg/sequence"
)

// Channel names created by NewMixer. Hosts may add more.
const (
	ChannelMusic   = "music"
	ChannelEffects = "effects"
	ChannelUI      = "ui"
)

// SettingsKey is the save key mixer settings serialize under.
const SettingsKey = "audio.settings"

// EventChannelMuted is published when a channel's mute state changes, with
// {"channel": name, "muted": bool}. The master stage uses channel "master".
const EventChannelMuted = "audio.channel.muted"

// channel is one named submix: a mixer wrapped in a volume stage that
// feeds the master mixer.
type channel struct {
	mixer  *beep.Mixer
	volume *effects.Volume
	gain   float64
	muted  bool
}

// Mixer routes streamers through named channels into one master output.
// It produces samples, it does not own a device: the host hands the Mixer
// to whatever output it has (speaker, WebAudio bridge, test buffer) via
// the beep.Streamer it implements.
//
// All methods including Stream are safe for concurrent use. Gains are
// linear (0 silent, 1 full); the volume stages work in log2 space the way
// beep's effects package expects.
type Mixer struct {
	log log.Log
	bus bus.EventBus

	mu         sync.Mutex
	master     *beep.Mixer
	out        *effects.Volume
	channels   map[string]*channel
	masterGain float64
	muted      bool
}

func NewMixer(eventBus bus.EventBus, logger log.Log) *Mixer {
	if logger == nil {
		logger = log.Nop()
	}
	if eventBus == nil {
		eventBus = bus.New()
	}
	master := &beep.Mixer{}
	m := &Mixer{
		log:        logger,
		bus:        eventBus,
		master:     master,
		out:        &effects.Volume{Streamer: master, Base: 2},
		channels:   make(map[string]*channel),
		masterGain: 1,
	}
	for _, name := range []string{ChannelMusic, ChannelEffects, ChannelUI} {
		m.addChannel(name)
	}
	return m
}

func (m *Mixer) addChannel(name string) *channel {
	mixer := &beep.Mixer{}
	ch := &channel{
		mixer:  mixer,
		volume: &effects.Volume{Streamer: mixer, Base: 2},
		gain:   1,
	}
	m.channels[name] = ch
	m.master.Add(ch.volume)
	return ch
}

// AddChannel creates an extra named channel. Existing names are returned
// as-is, so hosts can call this idempotently.
func (m *Mixer) AddChannel(name string) error {
	if name == "" {
		return fault.New(fault.CodeChannelNotFound, "channel needs a name", fault.ErrChannelNotFound)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[name]; !ok {
		m.addChannel(name)
	}
	return nil
}

// Channels returns the channel names, sorted.
func (m *Mixer) Channels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return sequence.From(names).Sort(func(a, b string) bool { return a < b }).Collect()
}

// Play adds the streamer to a channel and returns a control handle the
// caller can pause or swap. The streamer plays until it drains or the
// channel stops.
func (m *Mixer) Play(channelName string, s beep.Streamer) (*beep.Ctrl, error) {
	if s == nil {
		return nil, fault.New(fault.CodeChannelNotFound,
			fmt.Sprintf("nil streamer for channel %q", channelName), fault.ErrChannelNotFound)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channelName]
	if !ok {
		return nil, fault.New(fault.CodeChannelNotFound,
			fmt.Sprintf("channel %q does not exist", channelName), fault.ErrChannelNotFound)
	}
	ctrl := &beep.Ctrl{Streamer: s}
	ch.mixer.Add(ctrl)
	return ctrl, nil
}

// StopChannel drops every streamer on the channel.
func (m *Mixer) StopChannel(channelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channelName]
	if !ok {
		return fault.New(fault.CodeChannelNotFound,
			fmt.Sprintf("channel %q does not exist", channelName), fault.ErrChannelNotFound)
	}
	ch.mixer.Clear()
	return nil
}

// StopAll drops every streamer on every channel. Channel and master
// settings are untouched.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		ch.mixer.Clear()
	}
}

// math.Log2(0) is -Inf, so zero gain goes through the Silent flag instead.
func applyVolume(v *effects.Volume, gain float64, muted bool) {
	if muted || gain <= 0 {
		v.Volume = 0
		v.Silent = true
		return
	}
	v.Volume = math.Log2(gain)
	v.Silent = false
}

// SetGain sets a channel's linear gain. Negative values clamp to zero.
func (m *Mixer) SetGain(channelName string, gain float64) error {
	if gain < 0 {
		gain = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channelName]
	if !ok {
		return fault.New(fault.CodeChannelNotFound,
			fmt.Sprintf("channel %q does not exist", channelName), fault.ErrChannelNotFound)
	}
	ch.gain = gain
	applyVolume(ch.volume, ch.gain, ch.muted)
	return nil
}

func (m *Mixer) Gain(channelName string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channelName]
	if !ok {
		return 0, fault.New(fault.CodeChannelNotFound,
			fmt.Sprintf("channel %q does not exist", channelName), fault.ErrChannelNotFound)
	}
	return ch.gain, nil
}

// SetMuted silences a channel without touching its gain.
func (m *Mixer) SetMuted(channelName string, muted bool) error {
	m.mu.Lock()
	ch, ok := m.channels[channelName]
	if !ok {
		m.mu.Unlock()
		return fault.New(fault.CodeChannelNotFound,
			fmt.Sprintf("channel %q does not exist", channelName), fault.ErrChannelNotFound)
	}
	ch.muted = muted
	applyVolume(ch.volume, ch.gain, ch.muted)
	m.mu.Unlock()

	// Publish outside the lock; a handler may call back into the mixer.
	_ = m.bus.Publish(bus.NewEvent(EventChannelMuted, "audio", map[string]any{
		"channel": channelName, "muted": muted,
	}, nil))
	return nil
}

func (m *Mixer) Muted(channelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channelName]
	if !ok {
		return false, fault.New(fault.CodeChannelNotFound,
			fmt.Sprintf("channel %q does not exist", channelName), fault.ErrChannelNotFound)
	}
	return ch.muted, nil
}

func (m *Mixer) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	m.mu.Lock()
	m.masterGain = gain
	applyVolume(m.out, m.masterGain, m.muted)
	m.mu.Unlock()
}

func (m *Mixer) MasterGain() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.masterGain
}

func (m *Mixer) SetMasterMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	applyVolume(m.out, m.masterGain, m.muted)
	m.mu.Unlock()

	_ = m.bus.Publish(bus.NewEvent(EventChannelMuted, "audio", map[string]any{
		"channel": "master", "muted": muted,
	}, nil))
}

func (m *Mixer) MasterMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// Stream implements beep.Streamer by mixing all channels through the
// master volume stage. It always fills the whole slice; an empty mixer
// produces silence.
func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out.Stream(samples)
}

// Err implements beep.Streamer.
func (m *Mixer) Err() error { return nil }
