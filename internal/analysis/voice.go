package analysis

import (
	"maps"
	"math"
)

// Profile value bounds.
const (
	MinVoiceScale = 0.5
	MaxVoiceScale = 1.5
)

// VoiceProfile is the synthesis setting suggested for a character. Pitch,
// Speed and Energy are multipliers around 1.0.
type VoiceProfile struct {
	Gender      string
	Age         string
	Tone        string
	Accent      string
	Pitch       float64
	Speed       float64
	Energy      float64
	EmotionBias map[string]float64
}

// DefaultVoiceProfile is the neutral profile assigned when the model gives
// nothing usable.
func DefaultVoiceProfile() *VoiceProfile {
	return &VoiceProfile{
		Tone:        "neutral",
		Pitch:       1.0,
		Speed:       1.0,
		Energy:      1.0,
		EmotionBias: map[string]float64{},
	}
}

// Clone returns a deep copy.
func (p *VoiceProfile) Clone() *VoiceProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.EmotionBias = maps.Clone(p.EmotionBias)
	return &out
}

// Normalize clamps every numeric field into range in place. Non-finite
// scales fall back to 1.0 and non-finite biases are dropped.
func (p *VoiceProfile) Normalize() {
	p.Pitch = ClampScale(p.Pitch)
	p.Speed = ClampScale(p.Speed)
	p.Energy = ClampScale(p.Energy)
	for k, v := range p.EmotionBias {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			delete(p.EmotionBias, k)
			continue
		}
		p.EmotionBias[k] = ClampUnit(v)
	}
}

// ClampScale bounds v to [0.5, 1.5].
func ClampScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 1.0
	}
	return min(max(v, MinVoiceScale), MaxVoiceScale)
}

// ClampUnit bounds v to [0, 1]. NaN becomes 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, 0), 1)
}
