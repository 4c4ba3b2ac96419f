package audio

import "fmt"

// SystemKey registers mixer settings with the save system.
func (m *Mixer) SystemKey() string { return SettingsKey }

// Serialize snapshots master and per-channel gain/mute.
func (m *Mixer) Serialize() (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	channels := make(map[string]any, len(m.channels))
	for name, ch := range m.channels {
		channels[name] = map[string]any{"gain": ch.gain, "muted": ch.muted}
	}
	return map[string]any{
		"master":   map[string]any{"gain": m.masterGain, "muted": m.muted},
		"channels": channels,
	}, nil
}

// Deserialize restores mixer settings from a snapshot. Channels named in
// the snapshot but missing from the mixer are created, so a restored game
// keeps the setup it was saved with.
func (m *Mixer) Deserialize(data any) error {
	payload, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("audio settings payload is %T, want map", data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rawMaster, present := payload["master"]; present {
		gain, muted, err := decodeChannelSettings(rawMaster)
		if err != nil {
			return fmt.Errorf("master settings: %w", err)
		}
		m.masterGain = gain
		m.muted = muted
		applyVolume(m.out, m.masterGain, m.muted)
	}

	rawChannels, present := payload["channels"]
	if !present || rawChannels == nil {
		return nil
	}
	channels, ok := rawChannels.(map[string]any)
	if !ok {
		return fmt.Errorf("channel settings are %T, want map", rawChannels)
	}
	for name, raw := range channels {
		gain, muted, err := decodeChannelSettings(raw)
		if err != nil {
			return fmt.Errorf("channel %q: %w", name, err)
		}
		ch, exists := m.channels[name]
		if !exists {
			ch = m.addChannel(name)
		}
		ch.gain = gain
		ch.muted = muted
		applyVolume(ch.volume, ch.gain, ch.muted)
	}
	return nil
}

func decodeChannelSettings(raw any) (gain float64, muted bool, err error) {
	settings, ok := raw.(map[string]any)
	if !ok {
		return 0, false, fmt.Errorf("settings are %T, want map", raw)
	}
	gain = 1
	if rawGain, present := settings["gain"]; present {
		gain, ok = toFloat(rawGain)
		if !ok {
			return 0, false, fmt.Errorf("gain is %T, want number", rawGain)
		}
		if gain < 0 {
			gain = 0
		}
	}
	if rawMuted, present := settings["muted"]; present {
		muted, ok = rawMuted.(bool)
		if !ok {
			return 0, false, fmt.Errorf("muted is %T, want bool", rawMuted)
		}
	}
	return gain, muted, nil
}

// toFloat accepts the numeric shapes JSON and YAML decoding produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
